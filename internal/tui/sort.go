package tui

import (
	"slices"
	"strings"

	"github.com/listical/ga4-realtime/internal/client"
)

// rowColumn identifies what a rows-table column reads from a report row.
type rowColumn struct {
	name  string // dimension or metric name; empty for the share column
	kind  columnKind
	share string // metric the share column is computed from
}

type columnKind int

const (
	kindDimension columnKind = iota
	kindMetric
	kindShare
)

// value returns the numeric value of c for row; dimensions report 0.
func (c rowColumn) value(row client.Row) float64 {
	switch c.kind {
	case kindMetric:
		return row.Metrics[c.name]
	case kindShare:
		return row.Metrics[c.share]
	}
	return 0
}

// sortRows returns a sorted copy of rows ordered by column col. Ties keep
// the provider's order. An out-of-range col returns the copy unsorted.
func sortRows(rows []client.Row, cols []rowColumn, col int, desc bool) []client.Row {
	out := slices.Clone(rows)
	if col < 0 || col >= len(cols) {
		return out
	}
	c := cols[col]
	slices.SortStableFunc(out, func(a, b client.Row) int {
		var cmp int
		if c.kind == kindDimension {
			cmp = strings.Compare(strings.ToLower(a.Dimensions[c.name]), strings.ToLower(b.Dimensions[c.name]))
		} else {
			va, vb := c.value(a), c.value(b)
			switch {
			case va < vb:
				cmp = -1
			case va > vb:
				cmp = 1
			}
		}
		if desc {
			return -cmp
		}
		return cmp
	})
	return out
}

// filterRows keeps rows where any dimension value contains search,
// case-insensitively. An empty search returns rows unchanged.
func filterRows(rows []client.Row, dims []string, search string) []client.Row {
	if search == "" {
		return rows
	}
	needle := strings.ToLower(search)
	out := make([]client.Row, 0, len(rows))
	for _, r := range rows {
		for _, d := range dims {
			if strings.Contains(strings.ToLower(r.Dimensions[d]), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
