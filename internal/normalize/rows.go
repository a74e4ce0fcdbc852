// Package normalize cleans an engine's materialized rows into the fields a
// chart specification actually encodes, and rewrites temporal values into
// human-readable labels.
package normalize

import (
	"strings"

	"vis2table/internal/classify"
	"vis2table/internal/domain"
)

// prefixRenames collapses aggregate and grouping prefixes to the bare field.
// An empty target keeps the remainder of the name.
var prefixRenames = []struct {
	prefix string
	target string
}{
	{"sum_", ""},
	{"median_", ""},
	{"month_", "month"},
	{"mean_", ""},
	{"average_", ""},
	{"count_", ""},
	{"min_", ""},
	{"max_", ""},
	{"distinct_", ""},
}

type disposition int

const (
	keep disposition = iota
	drop
	rename
)

// Rows returns a cleaned copy of frame: synthetic, binning, unreferenced,
// pre-formatted and all-null columns are removed and aggregate names are
// reduced to their field. The input frame is not modified.
func Rows(frame *domain.Frame, spec *domain.ChartSpec) (*domain.Frame, error) {
	if frame.Len() == 0 {
		return nil, domain.ErrValidation("no rows to normalize")
	}
	if spec == nil {
		return nil, domain.ErrValidation("chart specification is required")
	}

	out := frame.Clone()
	encoding := classify.Identifier(spec.SerializedEncoding())

	toDelete := map[string]bool{}
	renames := map[string]string{}
	for _, col := range out.Columns {
		switch d, target := classifyColumn(col, out.Rows, encoding); d {
		case drop:
			toDelete[col] = true
		case rename:
			renames[col] = target
		}
	}

	// Deletions first: a deleted name is never a rename target.
	columns := make([]string, 0, len(out.Columns))
	for _, col := range out.Columns {
		if !toDelete[col] {
			columns = append(columns, col)
		}
	}
	for _, row := range out.Rows {
		for col := range toDelete {
			delete(row, col)
		}
	}

	for i, col := range columns {
		target, ok := renames[col]
		if !ok {
			continue
		}
		columns[i] = target
		for _, row := range out.Rows {
			if v, ok := row[col]; ok {
				row[target] = v
				delete(row, col)
			}
		}
	}
	out.Columns = dedupe(columns)
	return out, nil
}

// classifyColumn applies the disposition rules in order; the first match wins.
func classifyColumn(col string, rows []domain.Row, encoding string) (disposition, string) {
	if classify.IsSyntheticName(col) || classify.IsBinBoundary(col) {
		return drop, ""
	}
	if strings.HasSuffix(col, "_*") {
		return rename, col[:len(col)-2]
	}
	for _, p := range prefixRenames {
		if strings.HasPrefix(col, p.prefix) {
			if p.target != "" {
				return rename, p.target
			}
			return rename, col[len(p.prefix):]
		}
	}
	if !strings.Contains(encoding, classify.Identifier(`"`+col+`"`)) {
		return drop, ""
	}
	if allGroupedThousands(col, rows) || onlyNull(col, rows) {
		return drop, ""
	}
	return keep, ""
}

// allGroupedThousands reports whether every value of col is a formatted
// number such as "1,234.5", i.e. a display duplicate of a raw column.
func allGroupedThousands(col string, rows []domain.Row) bool {
	for _, row := range rows {
		if !classify.IsGroupedThousands(classify.String(row[col])) {
			return false
		}
	}
	return true
}

// onlyNull reports whether the only distinct value of col is null.
func onlyNull(col string, rows []domain.Row) bool {
	for _, row := range rows {
		if v, ok := row[col]; !ok || v != nil {
			return false
		}
	}
	return true
}

func dedupe(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := columns[:0]
	for _, c := range columns {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
