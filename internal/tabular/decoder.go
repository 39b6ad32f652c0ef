// Package tabular decodes TabSeparatedWithNames streams into columns and rows.
//
// Cells are kept as text exactly as the database wrote them. Escape
// sequences ClickHouse emits for tabs, newlines and backslashes inside
// values are not interpreted.
package tabular

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	fieldSeparator  = "\t"
	recordSeparator = '\n'
)

// Result is a decoded table.
type Result struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Decoder reads a header line followed by data lines.
type Decoder struct {
	reader    *bufio.Reader
	maxRows   int
	truncated bool
}

// NewDecoder creates a Decoder that stops after maxRows data rows.
// A maxRows of zero or less means no cap.
func NewDecoder(r io.Reader, maxRows int) *Decoder {
	return &Decoder{
		reader:  bufio.NewReader(r),
		maxRows: maxRows,
	}
}

// Decode reads the stream until it ends or the row cap is reached.
//
// Reaching the cap is not an error, and the remaining input is left unread.
// A read error discards everything decoded so far.
func (d *Decoder) Decode() (Result, error) {
	result := Result{
		Columns: []string{},
		Rows:    [][]string{},
	}

	header, ok, err := d.readLine()
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	if !ok {
		return result, nil
	}
	result.Columns = strings.Split(header, fieldSeparator)

	for d.maxRows <= 0 || len(result.Rows) < d.maxRows {
		line, ok, err := d.readLine()
		if err != nil {
			return Result{}, fmt.Errorf("read row %d: %w", len(result.Rows)+1, err)
		}
		if !ok {
			return result, nil
		}

		result.Rows = append(result.Rows, strings.Split(line, fieldSeparator))
	}

	// only look at what is already buffered; peeking further would wait on the network
	d.truncated = d.reader.Buffered() > 0

	return result, nil
}

// Truncated reports whether Decode stopped at the row cap with unread
// data already buffered. It is a hint for logs and metrics: data the
// database had not sent yet is not detected.
func (d *Decoder) Truncated() bool {
	return d.truncated
}

// readLine returns the next record without its terminator. ok is false
// once the stream is exhausted.
func (d *Decoder) readLine() (line string, ok bool, err error) {
	line, err = d.reader.ReadString(recordSeparator)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
		if line == "" {
			return "", false, nil
		}
	}

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	return line, true, nil
}

// Decode is a shorthand for NewDecoder(r, maxRows).Decode().
func Decode(r io.Reader, maxRows int) (Result, error) {
	return NewDecoder(r, maxRows).Decode()
}
