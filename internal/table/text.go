package table

import (
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"vis2table/internal/domain"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// RenderText draws t as a bordered terminal table. A width of zero or less
// lets the table size itself to its content. A nil table renders as "".
func RenderText(t *domain.Table, width int) string {
	if t == nil {
		return ""
	}
	m := Matrix(t)
	tbl := lgtable.New().
		Border(lipgloss.NormalBorder()).
		Headers(m[0]...).
		Rows(m[1:]...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if width > 0 {
		tbl = tbl.Width(width)
	}
	return tbl.String()
}
