package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/listical/ga4-realtime/internal/format"
)

// Metric names shown on the overview cards and sparklines.
const (
	metricActiveUsers = "activeUsers"
	metricPageViews   = "screenPageViews"
	metricEvents      = "eventCount"
)

// overviewCard is one headline number.
type overviewCard struct {
	label string
	value string
	color lipgloss.Color
}

// overviewCards returns the headline cards for the current response.
// Metrics the service was not configured to fetch show "---".
func overviewCards(app *App) []overviewCard {
	totals := app.current.Totals
	metric := func(name string) string {
		v, ok := totals[name]
		if !ok {
			return "---"
		}
		return format.FormatCompact(v)
	}

	visitors := "---"
	if app.current.TotalVisitors != nil {
		visitors = format.FormatCompact(float64(*app.current.TotalVisitors))
	}

	return []overviewCard{
		{label: "Active Users", value: metric(metricActiveUsers), color: colorGreen},
		{label: "Page Views", value: metric(metricPageViews), color: colorCyan},
		{label: "Events", value: metric(metricEvents), color: colorPurple},
		{label: "Total Visitors", value: visitors, color: colorOrange},
	}
}

// renderOverview renders the headline cards.
// Wide terminals (>= 80 cols): all cards in a single horizontal row.
// Narrow terminals (< 80 cols): a 2x2 grid.
// Returns empty string if no snapshot is available yet.
func renderOverview(app *App) string {
	if app.current == nil {
		return ""
	}

	width := app.width
	if width <= 0 {
		width = 80
	}

	cards := overviewCards(app)
	narrowMode := width < 80

	perRow := len(cards)
	if narrowMode {
		perRow = 2
	}
	cardWidth := width / perRow
	if cardWidth < 10 {
		cardWidth = 10
	}

	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = StyleOverviewCard.
			Foreground(c.color).
			Width(cardWidth).
			Render(lipgloss.NewStyle().Bold(true).Render(c.value) + "\n" + c.label)
	}

	if narrowMode {
		top := lipgloss.JoinHorizontal(lipgloss.Top, rendered[0], rendered[1])
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, rendered[2], rendered[3])
		return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
