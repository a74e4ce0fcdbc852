// Package fold pivots long-format chart data (one row per category, series
// and value) back into a wide table with one row per category.
package fold

import (
	"sort"
	"strconv"

	"vis2table/internal/classify"
	"vis2table/internal/domain"
	"vis2table/internal/encoding"
)

// foldableColumns is the only shape folded: major category, minor category, value.
const foldableColumns = 3

// barMajorPriority lists the bar channels that can act as major axis, in order.
var barMajorPriority = []string{encoding.ColumnX, encoding.RowY, encoding.PositionX, encoding.PositionY}

// Axes describes how a frame was split for folding.
type Axes struct {
	Major string
	Minor string
	Data  string
}

// Fold pivots frame into wide format when it has exactly three columns and
// a major/minor split can be found. Otherwise the frame is returned as is.
// A bar or line chart lacking the channel that names its major axis is
// reported as *domain.MissingAxisMappingError alongside the unchanged frame.
func Fold(frame *domain.Frame, res *encoding.Result) (*domain.Frame, error) {
	out, _, err := FoldWithAxes(frame, res)
	return out, err
}

// FoldWithAxes is Fold that also reports the axes it used. A nil Axes means
// the frame was returned unchanged.
func FoldWithAxes(frame *domain.Frame, res *encoding.Result) (*domain.Frame, *Axes, error) {
	if frame == nil || len(frame.Columns) != foldableColumns || res == nil {
		return frame, nil, nil
	}

	major, err := majorAxis(res)
	if err != nil || major == "" {
		return frame, nil, err
	}
	if !frame.HasColumn(major) {
		return frame, nil, domain.ErrMissingAxis(res.Mark, "major axis field %q is not among the columns %v", major, frame.Columns)
	}

	axes, ok := splitAxes(frame, major)
	if !ok {
		return frame, nil, nil
	}
	return pivot(frame, axes), axes, nil
}

// majorAxis picks the field whose values become output rows.
func majorAxis(res *encoding.Result) (string, error) {
	switch res.Mark {
	case domain.MarkBar:
		for _, ch := range barMajorPriority {
			if f, ok := res.Field(ch); ok {
				return f, nil
			}
		}
		return "", domain.ErrMissingAxis(res.Mark, "no column, row or position channel to fold on")
	case domain.MarkLine:
		if f, ok := res.Field(encoding.Color); ok {
			return f, nil
		}
		return "", domain.ErrMissingAxis(res.Mark, "no color channel to fold on")
	default:
		return "", nil
	}
}

// splitAxes finds the minor axis: the non-major column whose distinct values
// fit within the largest group of rows sharing one major value. The other
// column carries the data. Exactly one column must qualify.
func splitAxes(frame *domain.Frame, major string) (*Axes, bool) {
	majorCounts := map[string]int{}
	distinct := map[string]map[any]struct{}{}
	for _, row := range frame.Rows {
		majorCounts[classify.String(row[major])]++
		for _, col := range frame.Columns {
			if col == major {
				continue
			}
			if distinct[col] == nil {
				distinct[col] = map[any]struct{}{}
			}
			distinct[col][valueKey(row[col])] = struct{}{}
		}
	}

	maxRepeat := 0
	for _, n := range majorCounts {
		if n > maxRepeat {
			maxRepeat = n
		}
	}

	var minors, others []string
	for _, col := range frame.Columns {
		if col == major {
			continue
		}
		if len(distinct[col]) <= maxRepeat {
			minors = append(minors, col)
		} else {
			others = append(others, col)
		}
	}
	if len(minors) != 1 || len(others) != 1 {
		return nil, false
	}
	return &Axes{Major: major, Minor: minors[0], Data: others[0]}, true
}

// pivot builds one row per distinct major value (string-compared, first-seen
// order). Later rows with a repeated minor value overwrite earlier ones.
// Minor columns follow orderMinorColumns.
func pivot(frame *domain.Frame, axes *Axes) *domain.Frame {
	out := &domain.Frame{Columns: []string{axes.Major}}
	index := map[string]int{}
	seenColumn := map[string]bool{axes.Major: true}

	for _, row := range frame.Rows {
		key := classify.String(row[axes.Major])
		i, ok := index[key]
		if !ok {
			i = len(out.Rows)
			index[key] = i
			out.Rows = append(out.Rows, domain.Row{axes.Major: row[axes.Major]})
		}
		minor := classify.String(row[axes.Minor])
		out.Rows[i][minor] = row[axes.Data]
		if !seenColumn[minor] {
			seenColumn[minor] = true
			out.Columns = append(out.Columns, minor)
		}
	}
	orderMinorColumns(out.Columns[1:])
	return out
}

// orderMinorColumns puts integer-like names such as years first, ascending,
// and keeps the rest in first-seen order after them.
func orderMinorColumns(cols []string) {
	sort.SliceStable(cols, func(i, j int) bool {
		a, b := classify.IsIndexKey(cols[i]), classify.IsIndexKey(cols[j])
		if a && b {
			x, _ := strconv.ParseUint(cols[i], 10, 64)
			y, _ := strconv.ParseUint(cols[j], 10, 64)
			return x < y
		}
		return a && !b
	})
}

// valueKey makes a cell usable as a set member; values of distinct types stay distinct.
func valueKey(v any) any {
	switch v.(type) {
	case nil, string, float64, float32, int, int64, int32, uint64, bool:
		return v
	default:
		return classify.String(v)
	}
}
