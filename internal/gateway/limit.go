package gateway

import (
	"strconv"
	"strings"
)

// hasLimit reports whether the statement already mentions a limit. The
// check is a plain case-insensitive substring match, so identifiers like
// "speed_limit" count too.
func hasLimit(sql string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(sql)), "limit")
}

// withDefaultLimit appends a LIMIT clause to a statement that has none.
// The clause goes on its own line so a trailing line comment cannot
// swallow it.
func withDefaultLimit(sql string, limit int) string {
	if hasLimit(sql) {
		return sql
	}

	trimmed := strings.TrimRight(strings.TrimSpace(sql), "; \t\r\n")

	return trimmed + "\nLIMIT " + strconv.Itoa(limit)
}

// PrepareSQL returns the statement sent to the database.
//
// Without applyDefaultLimit the statement goes out exactly as submitted and
// the row cap is only enforced while decoding.
func PrepareSQL(sql string, applyDefaultLimit bool, limit int) string {
	if !applyDefaultLimit {
		return sql
	}

	return withDefaultLimit(sql, limit)
}
