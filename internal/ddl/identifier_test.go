package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "sales", want: `"sales"`},
		{name: "spaces_and_parens", input: "Body Mass (g)", want: `"Body Mass (g)"`},
		{name: "with_double_quote", input: `my"field`, want: `"my""field"`},
		{name: "multiple_quotes", input: `a"b"c`, want: `"a""b""c"`},
		{name: "empty", input: "", want: `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteIdentifier(tt.input))
		})
	}
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "month", want: `'month'`},
		{name: "with_single_quote", input: "it's", want: `'it''s'`},
		{name: "injection", input: "x'); DROP TABLE t; --", want: `'x''); DROP TABLE t; --'`},
		{name: "empty", input: "", want: `''`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteLiteral(tt.input))
		})
	}
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		declared string
		location string
		want     string
	}{
		{"", "data/weather.csv", FormatCSV},
		{"", "data/weather.TSV", FormatTSV},
		{"CSV", "data/weather.json", FormatCSV},
		{"", "data/cars.json", FormatJSON},
		{"topojson", "data/us.json", FormatJSON},
		{"", "https://example.com/data", FormatJSON},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeFormat(tt.declared, tt.location), "%q %q", tt.declared, tt.location)
	}
}

func TestReadRelation(t *testing.T) {
	assert.Equal(t, `read_csv_auto('/tmp/a.csv')`, ReadRelation(FormatCSV, "/tmp/a.csv"))
	assert.Equal(t, `read_csv_auto('/tmp/a.tsv', delim = '\t')`, ReadRelation(FormatTSV, "/tmp/a.tsv"))
	assert.Equal(t, `read_json_auto('/tmp/o''brien.json')`, ReadRelation(FormatJSON, "/tmp/o'brien.json"))
}
