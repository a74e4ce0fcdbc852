// Package classify holds the string-pattern predicates used to classify
// column names and cell values during table reconstruction.
package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// groupedThousandsPattern matches pre-formatted display numbers such as "1,234.5".
	groupedThousandsPattern = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+(?:\.\d*)?$`)

	// unsignedNumberPattern matches unsigned integers and decimals such as "42" or "3.50".
	unsignedNumberPattern = regexp.MustCompile(`^\d+(?:\.\d*)?$`)

	// identifierStripPattern matches every character dropped from names before comparison.
	identifierStripPattern = regexp.MustCompile(`[^a-zA-Z0-9"]`)
)

// IsGroupedThousands reports whether s is a number rendered with thousands separators.
func IsGroupedThousands(s string) bool {
	return groupedThousandsPattern.MatchString(s)
}

// IsUnsignedNumber reports whether s is an unsigned integer or decimal.
func IsUnsignedNumber(s string) bool {
	return unsignedNumberPattern.MatchString(s)
}

// Identifier reduces a name to the characters used when matching columns
// against a specification: the first literal `\n` escape is removed, then
// everything except ASCII letters, digits and double quotes.
func Identifier(s string) string {
	s = strings.Replace(s, `\n`, "", 1)
	return identifierStripPattern.ReplaceAllString(s, "")
}

// IsSyntheticName reports whether a column name carries no identifying
// characters at all, which is how engines name their internal columns.
func IsSyntheticName(name string) bool {
	return Identifier(name) == ""
}

// IsBinBoundary reports whether a column holds the start or end of a bin.
func IsBinBoundary(name string) bool {
	return strings.HasSuffix(name, "_start") || strings.HasSuffix(name, "_end")
}

// IsYearName reports whether a column is named "year", ignoring case.
func IsYearName(name string) bool {
	return strings.EqualFold(name, "year")
}

// maxIndexKey bounds the names that order as integer keys.
const maxIndexKey = 1<<32 - 2

// IsIndexKey reports whether name is a canonical non-negative integer small
// enough to be ordered numerically ahead of other keys, as object keys in a
// chart runtime are: "2020" is, "02020" and "-1" are not.
func IsIndexKey(name string) bool {
	if name == "" || (len(name) > 1 && name[0] == '0') {
		return false
	}
	n, err := strconv.ParseUint(name, 10, 64)
	return err == nil && n <= maxIndexKey
}

// String renders a scalar cell the way it is displayed and matched: nil is
// empty, whole floats have no fraction, times use RFC 3339.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
