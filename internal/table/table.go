// Package table assembles a folded frame into an ordered table and renders
// it as CSV, HTML or terminal text.
package table

import (
	"vis2table/internal/classify"
	"vis2table/internal/domain"
)

type columnKind int

const (
	kindText columnKind = iota
	kindYear
	kindNumeric
)

// Assemble orders the frame's columns (text first, then year-like numbers,
// then other numbers, each group keeping its relative order) and lays the
// rows out against that header. Missing cells are nil.
func Assemble(frame *domain.Frame) *domain.Table {
	t := &domain.Table{Header: []string{}, Rows: [][]any{}}
	if frame == nil {
		return t
	}

	groups := make([][]string, kindNumeric+1)
	for _, col := range frame.Columns {
		k := kindOf(col, frame.Rows)
		groups[k] = append(groups[k], col)
	}
	for _, g := range groups {
		t.Header = append(t.Header, g...)
	}

	for _, row := range frame.Rows {
		cells := make([]any, len(t.Header))
		for i, col := range t.Header {
			cells[i] = row[col]
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// kindOf treats a column as numeric when no non-nil value fails the
// unsigned number pattern, so an all-null column counts as numeric.
func kindOf(col string, rows []domain.Row) columnKind {
	for _, row := range rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		if !classify.IsUnsignedNumber(classify.String(v)) {
			return kindText
		}
	}
	if classify.IsYearName(col) {
		return kindYear
	}
	return kindNumeric
}

// Matrix renders t as a header-prefixed string matrix; nil cells are empty.
func Matrix(t *domain.Table) [][]string {
	if t == nil {
		return nil
	}
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Header...))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = classify.String(v)
		}
		out = append(out, cells)
	}
	return out
}
