package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"vis2table/internal/domain"
)

// ToCSV renders t in the legacy dialect: every cell wrapped in double quotes,
// cells joined by "," and rows by a newline. Embedded quotes and commas are
// not escaped; use WriteCSV for data that may contain them.
func ToCSV(t *domain.Table) string {
	lines := make([]string, 0, len(t.Rows)+1)
	for _, row := range Matrix(t) {
		lines = append(lines, `"`+strings.Join(row, `","`)+`"`)
	}
	return strings.Join(lines, "\n")
}

// WriteCSV writes t as RFC 4180 CSV.
func WriteCSV(w io.Writer, t *domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Matrix(t)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// CSVDialect selects how a table is exported as CSV.
type CSVDialect string

// Supported dialects.
const (
	DialectRFC4180 CSVDialect = "rfc4180"
	DialectLegacy  CSVDialect = "legacy"
)

// ParseCSVDialect validates a dialect name; empty selects RFC 4180.
func ParseCSVDialect(s string) (CSVDialect, error) {
	switch CSVDialect(strings.ToLower(strings.TrimSpace(s))) {
	case "", DialectRFC4180:
		return DialectRFC4180, nil
	case DialectLegacy:
		return DialectLegacy, nil
	default:
		return "", domain.ErrValidation("unknown csv dialect %q (want rfc4180 or legacy)", s)
	}
}

// Export writes t in the given dialect. The legacy dialect gets a trailing
// newline so consecutive tables stay on separate lines.
func Export(w io.Writer, t *domain.Table, dialect CSVDialect) error {
	if dialect == DialectLegacy {
		_, err := io.WriteString(w, ToCSV(t)+"\n")
		return err
	}
	return WriteCSV(w, t)
}
