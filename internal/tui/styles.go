package tui

import "github.com/charmbracelet/lipgloss"

// Color constants for the dashboard palette.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorCyan   = lipgloss.Color("#06b6d4")
	colorPurple = lipgloss.Color("#8b5cf6")
	colorOrange = lipgloss.Color("#f97316")
	colorWhite  = lipgloss.Color("#f8fafc")
	colorDark   = lipgloss.Color("#1e293b")
	colorAlt    = lipgloss.Color("#0f172a")
)

// Connection state indicators in the header.
var (
	StyleLive    = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	StyleWarming = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

// StyleHeader is the full-width dark header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// StyleOverviewCard frames one headline number.
var StyleOverviewCard = lipgloss.NewStyle().
	Background(colorAlt).
	Foreground(colorWhite).
	Padding(0, 1).
	Margin(0).
	Align(lipgloss.Center)

// Utility styles.
var (
	StyleError = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim   = lipgloss.NewStyle().Foreground(colorGray)
)

// metricColors cycles through colors for metric columns and cards.
var metricColors = []lipgloss.Color{colorGreen, colorCyan, colorPurple, colorOrange, colorBlue}

func metricColor(i int) lipgloss.Color {
	return metricColors[i%len(metricColors)]
}
