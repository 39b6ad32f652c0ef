package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/chweb/chweb/internal/gateway"
	"github.com/samber/lo"
)

// Output formats of the query command.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputTSV   = "tsv"
)

// OutputFormats lists the accepted output formats.
var OutputFormats = []string{OutputTable, OutputJSON, OutputTSV}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	summary     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// QueryError is returned by Render when the envelope reports a failed query.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return "query failed: " + e.Message
}

// Render writes the envelope to w in the given format.
//
// A failed query is always returned as a *QueryError so the caller exits
// non-zero. Only the JSON format also writes the envelope to w.
func Render(w io.Writer, resp gateway.Response, format string) error {
	switch format {
	case OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(resp); err != nil {
			return err
		}
		if resp.Error != nil {
			return &QueryError{Message: *resp.Error}
		}
		return nil

	case OutputTSV:
		if resp.Error != nil {
			return &QueryError{Message: *resp.Error}
		}
		if len(resp.Columns) == 0 {
			return nil
		}

		lines := append(
			[]string{strings.Join(resp.Columns, "\t")},
			lo.Map(resp.Rows, func(row []string, _ int) string { return strings.Join(row, "\t") })...,
		)
		_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
		return err

	case OutputTable:
		if resp.Error != nil {
			return &QueryError{Message: *resp.Error}
		}

		if len(resp.Columns) > 0 {
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(borderStyle).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				}).
				Headers(resp.Columns...).
				Rows(resp.Rows...)

			if _, err := fmt.Fprintln(w, t.Render()); err != nil {
				return err
			}
		}

		_, err := fmt.Fprintln(w, summary.Render(fmt.Sprintf("✓ %d rows, %d columns", len(resp.Rows), len(resp.Columns))))
		return err

	default:
		return fmt.Errorf("unknown output format %q, expected one of %v", format, OutputFormats)
	}
}
