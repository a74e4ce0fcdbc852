package table

import (
	"context"
	"fmt"
	"io"
	"sync"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"vis2table/internal/classify"
	"vis2table/internal/domain"
)

// RenderHTML builds a <table> element for t.
func RenderHTML(t *domain.Table) gomponents.Node {
	headers := make([]gomponents.Node, 0, len(t.Header))
	for _, h := range t.Header {
		headers = append(headers, html.Th(gomponents.Text(h)))
	}
	rows := make([]gomponents.Node, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]gomponents.Node, 0, len(row))
		for _, v := range row {
			cells = append(cells, html.Td(gomponents.Text(classify.String(v))))
		}
		rows = append(rows, html.Tr(cells...))
	}
	return html.Table(
		html.Class("reconstructed-table"),
		html.THead(html.Tr(headers...)),
		html.TBody(gomponents.Group(rows)),
	)
}

// HTMLPage wraps one or more tables in a standalone document.
func HTMLPage(title string, tables ...*domain.Table) gomponents.Node {
	body := []gomponents.Node{html.H1(gomponents.Text(title))}
	for _, t := range tables {
		body = append(body, RenderHTML(t))
	}
	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.TitleEl(gomponents.Text(title)),
			),
			html.Body(gomponents.Group(body)),
		),
	)
}

// HTMLSink appends each table it receives to w as a <table> element.
type HTMLSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewHTMLSink creates a sink writing to w.
func NewHTMLSink(w io.Writer) *HTMLSink {
	return &HTMLSink{w: w}
}

// AppendTable implements domain.TableSink.
func (s *HTMLSink) AppendTable(_ context.Context, t *domain.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := RenderHTML(t).Render(s.w); err != nil {
		return fmt.Errorf("render html table: %w", err)
	}
	return nil
}

// Collector keeps every table appended to it, in order.
type Collector struct {
	mu     sync.Mutex
	tables []*domain.Table
}

// AppendTable implements domain.TableSink.
func (c *Collector) AppendTable(_ context.Context, t *domain.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = append(c.tables, t)
	return nil
}

// Tables returns the collected tables.
func (c *Collector) Tables() []*domain.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*domain.Table(nil), c.tables...)
}
