package engine

import (
	"fmt"
	"strings"

	"vis2table/internal/ddl"
	"vis2table/internal/domain"
)

// aggregateSQL maps chart aggregate operations to DuckDB expressions; %s is
// the quoted field. Numeric results are cast to DOUBLE so HUGEINT sums do
// not leak into rows.
var aggregateSQL = map[string]string{
	"sum":      "CAST(sum(%s) AS DOUBLE)",
	"mean":     "avg(%s)",
	"average":  "avg(%s)",
	"median":   "CAST(median(%s) AS DOUBLE)",
	"min":      "min(%s)",
	"max":      "max(%s)",
	"count":    "count(%s)",
	"valid":    "count(%s)",
	"distinct": "count(DISTINCT %s)",
	"stdev":    "stddev_samp(%s)",
	"variance": "var_samp(%s)",
	"q1":       "quantile_cont(%s, 0.25)",
	"q3":       "quantile_cont(%s, 0.75)",
}

// timeUnitParts are the components a chart time unit can be composed of,
// longest first where one name prefixes another.
var timeUnitParts = []string{
	"year", "quarter", "month", "week", "dayofyear", "date", "day",
	"hours", "minutes", "seconds", "milliseconds",
}

// splitTimeUnit breaks a compound unit such as "yearmonthdate" into its
// parts. It reports false for names it cannot fully consume.
func splitTimeUnit(unit string) (map[string]bool, bool) {
	parts := map[string]bool{}
	for unit != "" {
		matched := false
		for _, p := range timeUnitParts {
			if strings.HasPrefix(unit, p) {
				parts[p] = true
				unit = unit[len(p):]
				matched = true
				break
			}
		}
		if !matched {
			return nil, false
		}
	}
	return parts, len(parts) > 0
}

// anchorYear is the leap year a unit without a year component lands in.
const anchorYear = "2012"

type selectItem struct {
	expr      string
	alias     string
	aggregate bool
}

// BuildQuery builds the aggregation query for spec over relation, a DuckDB
// table function call. Output columns follow the encoding's channel order.
func BuildQuery(spec *domain.ChartSpec, relation string) (string, error) {
	var items []selectItem
	seen := map[string]bool{}
	add := func(it selectItem) {
		if !seen[it.alias] {
			seen[it.alias] = true
			items = append(items, it)
		}
	}

	for _, ch := range spec.ChannelNames() {
		fd := spec.Encoding[ch]
		switch {
		case fd.Aggregate != "":
			it, err := aggregateItem(fd)
			if err != nil {
				return "", err
			}
			add(it)
		case fd.Field == "":
		case fd.TimeUnit != "":
			add(timeUnitItem(fd))
		default:
			add(selectItem{expr: ddl.QuoteIdentifier(fd.Field), alias: fd.Field})
		}
	}

	source := fmt.Sprintf("SELECT *, row_number() OVER () AS %s FROM %s", ddl.QuoteIdentifier(rowOrderColumn), relation)
	if len(items) == 0 {
		return fmt.Sprintf("SELECT * EXCLUDE (%s) FROM (%s) ORDER BY %s", ddl.QuoteIdentifier(rowOrderColumn), source, ddl.QuoteIdentifier(rowOrderColumn)), nil
	}

	exprs := make([]string, 0, len(items))
	grouped, aggregated := false, false
	for _, it := range items {
		exprs = append(exprs, it.expr+" AS "+ddl.QuoteIdentifier(it.alias))
		if it.aggregate {
			aggregated = true
		} else {
			grouped = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM (%s)", strings.Join(exprs, ", "), source)
	switch {
	case aggregated && grouped:
		fmt.Fprintf(&b, " GROUP BY ALL ORDER BY min(%s)", ddl.QuoteIdentifier(rowOrderColumn))
	case !aggregated:
		fmt.Fprintf(&b, " ORDER BY %s", ddl.QuoteIdentifier(rowOrderColumn))
	}
	return b.String(), nil
}

func aggregateItem(fd domain.FieldDef) (selectItem, error) {
	op := strings.ToLower(fd.Aggregate)
	tmpl, ok := aggregateSQL[op]
	if !ok {
		return selectItem{}, domain.ErrValidation("unsupported aggregate %q", fd.Aggregate)
	}
	if fd.Field == "" {
		if op != "count" {
			return selectItem{}, domain.ErrValidation("aggregate %q needs a field", fd.Aggregate)
		}
		return selectItem{expr: "count(*)", alias: "count_*", aggregate: true}, nil
	}
	return selectItem{
		expr:      fmt.Sprintf(tmpl, ddl.QuoteIdentifier(fd.Field)),
		alias:     op + "_" + fd.Field,
		aggregate: true,
	}, nil
}

// timeUnitItem buckets a temporal field. Components the unit names are
// kept and the rest are reset, so "month" groups every January together in
// anchorYear. Month buckets are named month_<field>; other units keep the
// field name so the column survives normalization.
func timeUnitItem(fd domain.FieldDef) selectItem {
	unit := strings.TrimPrefix(strings.ToLower(fd.TimeUnit), "utc")
	raw := selectItem{expr: ddl.QuoteIdentifier(fd.Field), alias: fd.Field}
	parts, ok := splitTimeUnit(unit)
	if !ok || parts["dayofyear"] {
		return raw
	}
	alias := fd.Field
	if unit == "month" {
		alias = "month_" + fd.Field
	}
	ts := fmt.Sprintf("CAST(%s AS TIMESTAMP)", ddl.QuoteIdentifier(fd.Field))
	if parts["week"] {
		return selectItem{expr: fmt.Sprintf("date_trunc('week', %s)", ts), alias: alias}
	}

	component := func(part, fn, fallback string) string {
		if parts[part] {
			return fn + "(" + ts + ")"
		}
		return fallback
	}
	year := component("year", "year", anchorYear)
	month := component("month", "month", "1")
	if !parts["month"] && parts["quarter"] {
		month = "(quarter(" + ts + ") - 1) * 3 + 1"
	}
	day := component("date", "day", "1")
	if !parts["date"] && parts["day"] {
		day = "1 + dayofweek(" + ts + ")"
	}
	hour := component("hours", "hour", "0")
	minute := component("minutes", "minute", "0")
	second := component("seconds", "second", "0")
	switch {
	case parts["milliseconds"] && parts["seconds"]:
		second = "millisecond(" + ts + ") / 1000.0"
	case parts["milliseconds"]:
		second = "(millisecond(" + ts + ") % 1000) / 1000.0"
	}
	return selectItem{
		expr:  fmt.Sprintf("make_timestamp(%s, %s, %s, %s, %s, %s)", year, month, day, hour, minute, second),
		alias: alias,
	}
}
