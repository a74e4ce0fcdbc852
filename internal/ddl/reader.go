package ddl

import (
	"fmt"
	"path"
	"strings"
)

// File formats a staged dataset can be read from.
const (
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
	FormatJSON = "json"
)

// NormalizeFormat maps a declared format or file extension to one of the
// reader formats; anything unrecognized is read as JSON.
func NormalizeFormat(declared, location string) string {
	format := strings.ToLower(strings.TrimSpace(declared))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(path.Ext(location)), ".")
	}
	switch format {
	case FormatCSV, FormatTSV:
		return format
	default:
		return FormatJSON
	}
}

// ReadRelation returns the DuckDB table function reading the file at
// filePath in format.
func ReadRelation(format, filePath string) string {
	switch format {
	case FormatCSV:
		return fmt.Sprintf("read_csv_auto(%s)", QuoteLiteral(filePath))
	case FormatTSV:
		return fmt.Sprintf("read_csv_auto(%s, delim = '\\t')", QuoteLiteral(filePath))
	default:
		return fmt.Sprintf("read_json_auto(%s)", QuoteLiteral(filePath))
	}
}
