package clickhouse

import (
	"fmt"
	"strings"
)

// OutputFormat is the format requested for every query result.
const OutputFormat = "TabSeparatedWithNames"

const (
	headerUser          = "X-ClickHouse-User"
	headerKey           = "X-ClickHouse-Key"
	headerDatabase      = "X-ClickHouse-Database"
	headerExceptionCode = "X-ClickHouse-Exception-Code"
)

// maxErrorBodySize bounds how much of an error response is read.
const maxErrorBodySize = 64 << 10

// Error is an error reported by the ClickHouse server.
type Error struct {
	StatusCode int
	// Code is the ClickHouse exception code, if the server sent one.
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("clickhouse returned HTTP %d", e.StatusCode)
	}

	return e.Message
}

// newError builds an Error from a non-2xx response.
func newError(statusCode int, code string, body []byte) *Error {
	return &Error{
		StatusCode: statusCode,
		Code:       code,
		Message:    strings.TrimSpace(string(body)),
	}
}
