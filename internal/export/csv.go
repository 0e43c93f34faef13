package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Table is a header plus rows ready to be written as CSV
type Table struct {
	Name   string // used for the download file name
	Header []string
	Rows   [][]string
}

// Append adds one row; it must match the header width
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

// FileName returns "<name>-<yyyymmdd>.csv"
func (t *Table) FileName(now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", t.Name, now.Format("20060102"))
}

// WriteCSV writes the header and rows, prefixed with a UTF-8 BOM so spreadsheet
// tools detect the encoding.
func WriteCSV(w io.Writer, t *Table) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("row %d has %d columns, header has %d", i+1, len(row), len(t.Header))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Money formats an amount with two decimals
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Date formats a date as YYYY-MM-DD, empty for nil
func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// Bool renders yes/no
func Bool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
