package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

// columnDef describes a single column in a table.
type columnDef struct {
	Title   string
	Width   int  // preferred width in cells
	Numeric bool // right-aligned, sorted numerically, descending first
	Color   lipgloss.Color
}

// tableModel is the generic base for sortable, paginated, searchable tables.
type tableModel struct {
	columns   []columnDef
	sortCol   int // -1 = unsorted
	sortDesc  bool
	page      int // 0-indexed
	pageSize  int
	search    string
	searching bool
	input     textinput.Model
}

// newTableModel initialises a tableModel with sensible defaults.
func newTableModel(cols []columnDef) tableModel {
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.CharLimit = 80
	return tableModel{
		columns:  cols,
		sortCol:  -1,
		pageSize: 10,
		input:    ti,
	}
}

// Update handles keyboard input for sorting, pagination, and search.
func (t tableModel) Update(msg tea.Msg) (tableModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	if t.searching {
		switch {
		case key.Matches(km, keys.Escape):
			t.searching = false
			t.input.Blur()
			if t.input.Value() == "" {
				t.search = ""
			}
			return t, nil
		case km.String() == "enter":
			t.search = t.input.Value()
			t.searching = false
			t.input.Blur()
			t.page = 0
			return t, nil
		default:
			var cmd tea.Cmd
			t.input, cmd = t.input.Update(km)
			return t, cmd
		}
	}

	switch {
	case key.Matches(km, keys.Search):
		t.searching = true
		t.input.SetValue(t.search)
		t.input.Focus()
		return t, textinput.Blink
	case key.Matches(km, keys.Escape):
		t.search = ""
		t.input.SetValue("")
		t.page = 0
	case key.Matches(km, keys.PrevPage):
		if t.page > 0 {
			t.page--
		}
	case key.Matches(km, keys.NextPage):
		t.page++
	default:
		col := digitToCol(km.String())
		if col < 0 || col >= len(t.columns) {
			return t, nil
		}
		if col == t.sortCol {
			t.sortDesc = !t.sortDesc
		} else {
			t.sortCol = col
			// numbers read best largest first, names alphabetically
			t.sortDesc = t.columns[col].Numeric
		}
		t.page = 0
	}
	return t, nil
}

// digitToCol converts a "1"–"9" key string to a 0-indexed column number.
// Returns -1 for any other string.
func digitToCol(s string) int {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '1')
	}
	return -1
}

// pageCount returns the total number of pages for totalRows rows at pageSize rows per page.
// Always at least 1.
func pageCount(totalRows, pageSize int) int {
	if totalRows == 0 || pageSize <= 0 {
		return 1
	}
	return (totalRows + pageSize - 1) / pageSize
}

// pageBounds returns the [start, end) row range visible on page.
func pageBounds(totalRows, page, pageSize int) (int, int) {
	if pageSize <= 0 {
		return 0, totalRows
	}
	start := page * pageSize
	if start >= totalRows {
		start = 0
	}
	return start, min(start+pageSize, totalRows)
}

// clampPage ensures the page index stays within valid bounds given the total
// number of rows and the configured pageSize.
func (t *tableModel) clampPage(totalRows int) {
	pc := pageCount(totalRows, t.pageSize)
	if t.page >= pc {
		t.page = pc - 1
	}
	if t.page < 0 {
		t.page = 0
	}
}

// columnWidths fits the preferred widths into available cells by shrinking
// the widest columns first. Zero available returns the preferred widths.
func columnWidths(available int, defs []columnDef) []int {
	widths := make([]int, len(defs))
	total := 0
	for i, d := range defs {
		widths[i] = d.Width
		total += d.Width
	}
	if available <= 0 {
		return widths
	}
	const minWidth = 4
	for total > available {
		widest := -1
		for i, w := range widths {
			if w > minWidth && (widest < 0 || w > widths[widest]) {
				widest = i
			}
		}
		if widest < 0 {
			break
		}
		widths[widest]--
		total--
	}
	return widths
}

// titleBar renders the title line with search, sort and page hints. While
// searching, the live text input replaces the hints.
func (t *tableModel) titleBar(title string, totalRows int) string {
	pageInfo := fmt.Sprintf("Page %d/%d", t.page+1, pageCount(totalRows, t.pageSize))

	var right string
	switch {
	case t.searching:
		right = "Search: " + t.input.View()
	case t.search != "":
		right = fmt.Sprintf("filter=%q  %s", t.search, pageInfo)
	default:
		right = fmt.Sprintf("[/: search]  [1-9: sort]  [←→: page]  %s", pageInfo)
	}
	return StyleDim.Render(title + "  " + right)
}

// render draws cells for the current page with a header row showing the
// sort arrow. width 0 leaves the natural width.
func (t *tableModel) render(cells [][]string, width int) string {
	headers := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.Title
		if i == t.sortCol {
			if t.sortDesc {
				headers[i] += "↓"
			} else {
				headers[i] += "↑"
			}
		}
	}

	widths := columnWidths(width, t.columns)
	cols := t.columns
	sortCol := t.sortCol
	tbl := ltable.New().
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				if col == sortCol {
					return lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
				}
				return lipgloss.NewStyle().Bold(true).Foreground(colorGray)
			}
			base := lipgloss.NewStyle().Foreground(colorWhite)
			if row%2 == 0 {
				base = base.Background(colorAlt)
			}
			if col < len(cols) {
				if cols[col].Color != "" {
					base = base.Foreground(cols[col].Color)
				}
				if cols[col].Numeric {
					base = base.Align(lipgloss.Right)
				}
			}
			return base
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)

	if width > 0 {
		tbl = tbl.Width(width)
	}
	for _, row := range cells {
		out := make([]string, len(row))
		for i, cell := range row {
			if i < len(widths) {
				cell = truncateName(cell, widths[i])
			}
			out[i] = cell
		}
		tbl = tbl.Row(out...)
	}
	return tbl.String()
}
