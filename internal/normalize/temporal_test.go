package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vis2table/internal/domain"
)

func dateFrame(col string, values ...any) *domain.Frame {
	f := &domain.Frame{Columns: []string{col, "price"}}
	for i, v := range values {
		f.Rows = append(f.Rows, domain.Row{col: v, "price": float64(i)})
	}
	return f
}

func column(f *domain.Frame, col string) []any {
	out := make([]any, 0, len(f.Rows))
	for _, r := range f.Rows {
		out = append(out, r[col])
	}
	return out
}

func TestTemporal_InferredGranularity(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		wantG  Granularity
		want   []any
	}{
		{
			name:   "days",
			values: []any{"2020-01-15", "2020-03-20", "2020-07-02"},
			wantG:  Days,
			want:   []any{"January 15, 2020", "March 20, 2020", "July 2, 2020"},
		},
		{
			name:   "months",
			values: []any{"2020-01-01", "2020-02-01"},
			wantG:  Months,
			want:   []any{"January, 2020", "February, 2020"},
		},
		{
			name:   "years",
			values: []any{"2019-01-01", "2020-01-01", "2021-01-01"},
			wantG:  Years,
			want:   []any{"2019", "2020", "2021"},
		},
		{
			name:   "year end rolls forward",
			values: []any{"2019-12-31", "2020-12-31"},
			wantG:  Years,
			want:   []any{"2020", "2021"},
		},
		{
			name:   "epoch milliseconds",
			values: []any{float64(time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()), float64(time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())},
			wantG:  Years,
			want:   []any{"2005", "2006"},
		},
		{
			name:   "time values",
			values: []any{time.Date(2001, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2001, 6, 1, 0, 0, 0, 0, time.UTC)},
			wantG:  Months,
			want:   []any{"May, 2001", "June, 2001"},
		},
		{
			name:   "vega date strings",
			values: []any{"Jan 1 2000", "Feb 1 2000"},
			wantG:  Months,
			want:   []any{"January, 2000", "February, 2000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := dateFrame("date", tt.values...)

			g, ok := InferGranularity(f.Rows, "date", time.UTC)
			require.True(t, ok)
			assert.Equal(t, tt.wantG, g)

			Temporal(f, []domain.TemporalDescriptor{{Field: "date"}}, time.UTC)
			assert.Equal(t, tt.want, column(f, "date"))
		})
	}
}

func TestTemporal_MonthUnit(t *testing.T) {
	f := &domain.Frame{
		Columns: []string{"month", "rain"},
		Rows: []domain.Row{
			{"month": "2012-01-01T00:00:00", "rain": 1.0},
			{"month": "2012-11-01T00:00:00", "rain": 2.0},
		},
	}

	Temporal(f, []domain.TemporalDescriptor{{Field: "date", Unit: "month"}}, nil)
	assert.Equal(t, []any{"January", "November"}, column(f, "month"))
}

func TestTemporal_MonthUnitFallsBackToField(t *testing.T) {
	f := dateFrame("date", "2012-03-01", "2012-04-01")

	Temporal(f, []domain.TemporalDescriptor{{Field: "date", Unit: "month"}}, time.UTC)
	assert.Equal(t, []any{"March", "April"}, column(f, "date"))
}

func TestTemporal_OtherUnitsUntouched(t *testing.T) {
	f := dateFrame("date", "2012-03-01", "2012-04-01")

	Temporal(f, []domain.TemporalDescriptor{{Field: "date", Unit: "year"}}, time.UTC)
	assert.Equal(t, []any{"2012-03-01", "2012-04-01"}, column(f, "date"))
}

func TestTemporal_UnparseableLeftAlone(t *testing.T) {
	f := dateFrame("date", "2020-01-01", "not a date", "2020-02-01")

	Temporal(f, []domain.TemporalDescriptor{{Field: "date"}}, time.UTC)
	assert.Equal(t, []any{"January, 2020", "not a date", "February, 2020"}, column(f, "date"))
}

func TestTemporal_Location(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	ms := float64(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
	f := dateFrame("date", ms)

	Temporal(f, []domain.TemporalDescriptor{{Field: "date"}}, loc)
	// midnight UTC is Dec 31 in UTC-5; the year label still reads 2020
	assert.Equal(t, []any{"2020"}, column(f, "date"))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   any
		want time.Time
		ok   bool
	}{
		{"2020-01-15", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2020-01-15T10:30:00Z", time.Date(2020, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"2020-01-15 10:30:00", time.Date(2020, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"2020/01/15", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2020", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"January 15, 2020", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{nil, time.Time{}, false},
		{true, time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in, time.UTC)
		assert.Equal(t, tt.ok, ok, "input %v", tt.in)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "input %v: got %v", tt.in, got)
		}
	}
}
