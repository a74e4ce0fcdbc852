package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"vis2table/internal/domain"
)

// Granularity is the coarsest calendar unit that distinguishes a field's values.
type Granularity string

// Granularities, coarsest first.
const (
	Years  Granularity = "years"
	Months Granularity = "months"
	Days   Granularity = "days"
)

// monthColumn is the column month_* aggregates are renamed to.
const monthColumn = "month"

// dateLayouts are tried in order when a temporal value is a string.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-01",
	"2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"01/02/2006",
}

// Temporal rewrites each temporal field of frame in place. A field bucketed
// by "month" becomes month names; a raw timestamp field is labeled at the
// coarsest granularity that loses no information. Calendar components are
// read in loc (UTC when nil).
func Temporal(frame *domain.Frame, temporals []domain.TemporalDescriptor, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	for _, td := range temporals {
		switch {
		case td.Unit == "month":
			relabelMonths(frame, td, loc)
		case td.Unit == "":
			relabelTimestamps(frame, td.Field, loc)
		}
	}
}

func relabelMonths(frame *domain.Frame, td domain.TemporalDescriptor, loc *time.Location) {
	col := monthColumn
	if !frame.HasColumn(col) {
		col = td.Field
	}
	for _, row := range frame.Rows {
		t, ok := ParseDate(row[col], loc)
		if !ok {
			continue
		}
		row[col] = t.Month().String()
	}
}

func relabelTimestamps(frame *domain.Frame, col string, loc *time.Location) {
	g, ok := InferGranularity(frame.Rows, col, loc)
	if !ok {
		return
	}
	for _, row := range frame.Rows {
		t, ok := ParseDate(row[col], loc)
		if !ok {
			continue
		}
		row[col] = FormatDate(t, g)
	}
}

// InferGranularity collects the distinct years, months and days of col. A
// shared day-of-month means month precision suffices; a shared month as well
// means year precision does. It reports false when no value parses.
func InferGranularity(rows []domain.Row, col string, loc *time.Location) (Granularity, bool) {
	if loc == nil {
		loc = time.UTC
	}
	months := map[time.Month]struct{}{}
	days := map[int]struct{}{}
	for _, row := range rows {
		t, ok := ParseDate(row[col], loc)
		if !ok {
			continue
		}
		months[t.Month()] = struct{}{}
		days[t.Day()] = struct{}{}
	}
	if len(days) == 0 {
		return "", false
	}
	if len(days) == 1 {
		if len(months) == 1 {
			return Years, true
		}
		return Months, true
	}
	return Days, true
}

// FormatDate labels t at granularity g: "2020", "January, 2020" or
// "January 15, 2020". At year granularity December 31 belongs to the
// following year, since year buckets shifted back by a time zone land there.
func FormatDate(t time.Time, g Granularity) string {
	switch g {
	case Years:
		year := t.Year()
		if t.Month() == time.December && t.Day() == 31 {
			year++
		}
		return strconv.Itoa(year)
	case Months:
		return t.Month().String() + ", " + strconv.Itoa(t.Year())
	default:
		return t.Month().String() + " " + strconv.Itoa(t.Day()) + ", " + strconv.Itoa(t.Year())
	}
}

// ParseDate interprets a cell as a point in time. Numbers are epoch
// milliseconds; strings are tried against the known layouts, with
// zone-less layouts read in loc.
func ParseDate(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch t := v.(type) {
	case time.Time:
		return t.In(loc), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)).In(loc), true
	case int64:
		return time.UnixMilli(t).In(loc), true
	case int:
		return time.UnixMilli(int64(t)).In(loc), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
				return parsed.In(loc), true
			}
		}
	}
	return time.Time{}, false
}
