package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/listical/ga4-realtime/internal/format"
)

// renderMetricCard renders a single metric card with title, value, and sparkline.
//
// Layout (3 rows inside a rounded border):
//
//	╭──────────────────╮
//	│ Title            │
//	│ 1,204            │   ← bold, metric color
//	│ ▁▂▃▅▇█▇▅▃▂       │   ← colored sparkline
//	╰──────────────────╯
func renderMetricCard(title, value string, sparkValues []float64, cardWidth int, color lipgloss.Color) string {
	const minCardWidth = 8
	if cardWidth < minCardWidth {
		cardWidth = minCardWidth
	}

	// Inner width = card width minus border (2) and padding (2).
	innerWidth := cardWidth - 6
	if innerWidth < 1 {
		innerWidth = 1
	}

	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(color)

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGray).
		Padding(0, 1).
		Width(cardWidth - 4)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		StyleDim.Render(truncateName(title, innerWidth)),
		valueStyle.Render(value),
		RenderSparkline(sparkValues, innerWidth, color),
	))
}

// trendSeries are the history series drawn as sparkline cards.
var trendSeries = []struct {
	title  string
	metric string
	field  string
	color  lipgloss.Color
}{
	{"Active Users", metricActiveUsers, "activeUsers", colorGreen},
	{"Page Views", metricPageViews, "pageViews", colorCyan},
	{"Events", metricEvents, "eventCount", colorPurple},
}

// renderMetricsRow renders one sparkline card per trend series under a
// "Trend" label.
// Wide terminals (>= 80 cols): one horizontal row.
// Narrow terminals (< 80 cols): cards stacked vertically.
// Returns empty string when no data is available.
func renderMetricsRow(app *App) string {
	if app.current == nil {
		return ""
	}

	label := StyleDim.Render(fmt.Sprintf("Trend (last %d snapshots)", app.history.Len()))

	cards := make([]string, 0, len(trendSeries))
	narrow := app.width > 0 && app.width < 80

	// Each card renders at (cardWidth-2) chars wide; n cards fill the width
	// when n*(cardWidth-2) = width.
	cardWidth := (app.width + 2*len(trendSeries)) / len(trendSeries)
	if narrow {
		cardWidth = app.width + 2
	}
	if cardWidth < 20 {
		cardWidth = 20
	}

	for _, s := range trendSeries {
		value := "---"
		if v, ok := app.current.Totals[s.metric]; ok {
			value = format.FormatMetric(v)
		}
		cards = append(cards, renderMetricCard(s.title, value, app.history.Values(s.field), cardWidth, s.color))
	}

	if narrow {
		return lipgloss.JoinVertical(lipgloss.Left, append([]string{label}, cards...)...)
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	return lipgloss.JoinVertical(lipgloss.Left, label, row)
}
