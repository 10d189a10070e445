package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/listical/ga4-realtime/internal/client"
	"github.com/listical/ga4-realtime/internal/format"
	"github.com/listical/ga4-realtime/internal/model"
)

// RowsTableModel renders the per-dimension breakdown of the current report.
// Columns follow the response: dimensions, then metrics, then the share of
// the first metric's total.
type RowsTableModel struct {
	tableModel
	dims  []string
	cols  []rowColumn
	rows  []client.Row
	total float64 // first metric total, the share denominator
}

// NewRowsTable creates an empty RowsTableModel.
func NewRowsTable() RowsTableModel {
	return RowsTableModel{tableModel: newTableModel(nil)}
}

// SetData replaces the rows and rebuilds the columns when the headers change.
// Sort, page and search survive a refresh.
func (m *RowsTableModel) SetData(resp *model.RealtimeResponse) {
	if resp == nil {
		m.rows = nil
		return
	}

	cols := make([]rowColumn, 0, len(resp.DimensionHeaders)+len(resp.MetricHeaders)+1)
	defs := make([]columnDef, 0, cap(cols))
	for _, d := range resp.DimensionHeaders {
		cols = append(cols, rowColumn{name: d, kind: kindDimension})
		defs = append(defs, columnDef{Title: d, Width: 24})
	}
	for i, h := range resp.MetricHeaders {
		cols = append(cols, rowColumn{name: h.Name, kind: kindMetric})
		defs = append(defs, columnDef{Title: h.Name, Width: 14, Numeric: true, Color: metricColor(i)})
	}
	m.total = 0
	if len(resp.MetricHeaders) > 0 {
		first := resp.MetricHeaders[0].Name
		cols = append(cols, rowColumn{kind: kindShare, share: first})
		defs = append(defs, columnDef{Title: "Share", Width: 8, Numeric: true})
		m.total = resp.Totals[first]
	}

	if !sameColumns(m.cols, cols) {
		m.sortCol = -1
		m.sortDesc = false
		m.page = 0
	}
	m.dims = resp.DimensionHeaders
	m.cols = cols
	m.columns = defs
	m.rows = resp.Rows
}

func sameColumns(a, b []rowColumn) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Update forwards keys to the embedded table.
func (m RowsTableModel) Update(msg tea.Msg) (RowsTableModel, tea.Cmd) {
	var cmd tea.Cmd
	m.tableModel, cmd = m.tableModel.Update(msg)
	return m, cmd
}

// visibleRows applies search and sort.
func (m *RowsTableModel) visibleRows() []client.Row {
	return sortRows(filterRows(m.rows, m.dims, m.search), m.cols, m.sortCol, m.sortDesc)
}

// cells formats one row for display.
func (m *RowsTableModel) cells(row client.Row) []string {
	out := make([]string, len(m.cols))
	for i, c := range m.cols {
		switch c.kind {
		case kindDimension:
			v := sanitize(row.Dimensions[c.name])
			if v == "" {
				v = "(not set)"
			}
			out[i] = v
		case kindMetric:
			out[i] = format.FormatMetric(row.Metrics[c.name])
		case kindShare:
			if m.total > 0 {
				out[i] = format.FormatPercent(row.Metrics[c.share] / m.total * 100)
			} else {
				out[i] = "---"
			}
		}
	}
	return out
}

// renderTable renders the title bar and the current page at width cells.
func (m *RowsTableModel) renderTable(width int) string {
	if len(m.cols) == 0 {
		return ""
	}
	rows := m.visibleRows()
	m.clampPage(len(rows))

	title := m.titleBar(fmt.Sprintf("Breakdown (%d rows)", len(rows)), len(rows))
	if len(rows) == 0 {
		msg := "No rows in the current window"
		if m.search != "" {
			msg = fmt.Sprintf("No rows match %q", m.search)
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, StyleDim.Render(msg))
	}

	start, end := pageBounds(len(rows), m.page, m.pageSize)
	cells := make([][]string, 0, end-start)
	for _, r := range rows[start:end] {
		cells = append(cells, m.cells(r))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.render(cells, width))
}

// legend maps the sort keys to column titles for the help footer.
func (m *RowsTableModel) legend() string {
	if len(m.columns) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.columns))
	for i, c := range m.columns {
		if i >= 9 {
			break
		}
		parts = append(parts, fmt.Sprintf("%d: %s", i+1, c.Title))
	}
	return "sort by  " + strings.Join(parts, "  ")
}
