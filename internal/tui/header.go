package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/listical/ga4-realtime/internal/feed"
	"github.com/listical/ga4-realtime/internal/format"
)

// renderHeader renders the top header bar.
//
// Layout:
//
//	left:   "ga4rt <service URL>"
//	center: "● LIVE", "● WARMING UP" or "● DISCONNECTED  <reason>"
//	right:  "Data: <age>  Poll: Ns", or the retry countdown when offline
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	baseURL := ""
	if app.feed != nil {
		baseURL = sanitize(app.feed.BaseURL())
	}
	left := "ga4rt " + baseURL

	var center, right string
	switch app.connState {
	case stateConnected:
		center = StyleLive.Render("● LIVE")
		right = StyleDim.Render(fmt.Sprintf("Data: %s  Poll: %s",
			format.FormatAge(app.lastUpdated, app.clock()), formatDuration(app.pollInterval)))
	case stateWarming:
		center = StyleWarming.Render("● WARMING UP")
		right = StyleDim.Render("waiting for first snapshot")
	default:
		if app.lastError == nil {
			left = "Connecting to " + baseURL + "..."
			break
		}
		center = StyleError.Render("● DISCONNECTED  " + classifyError(app.lastError))
		right = StyleError.Render(retryCountdown(app.nextRetryAt))
	}

	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	// The left part gives way first so the row never wraps.
	innerWidth := width - 2
	if innerWidth < 0 {
		innerWidth = 0
	}
	centerVW := lipgloss.Width(center)
	rightVW := lipgloss.Width(right)
	if room := innerWidth - centerVW - rightVW - 2; room < lipgloss.Width(left) {
		if room < 0 {
			room = 0
		}
		left = truncateName(left, room)
	}
	if lipgloss.Width(left)+centerVW+rightVW > innerWidth {
		right = ""
		rightVW = 0
	}
	if lipgloss.Width(left)+centerVW > innerWidth {
		center = ""
		centerVW = 0
	}
	leftVW := lipgloss.Width(left)

	spacing := innerWidth - leftVW - centerVW - rightVW
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).MaxWidth(width).Render(row)
}

// formatDuration formats a poll interval as a compact string, e.g. "10s" or "2m".
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// classifyError maps a poll error to a short human-readable reason.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, feed.ErrNotReady) {
		return "No data yet"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Connection refused"
	case strings.Contains(msg, "no such host"):
		return "Unknown host"
	case strings.Contains(msg, "status 401"), strings.Contains(msg, "unauthorized"):
		return "Authentication failed (401)"
	case strings.Contains(msg, "status 403"), strings.Contains(msg, "forbidden"):
		return "Authentication failed (403)"
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timeout"):
		return "Timeout"
	case isTLSError(err):
		return "TLS error"
	}
	return truncateName(sanitize(err.Error()), 40)
}

// isTLSError reports whether err looks like a certificate or handshake failure.
func isTLSError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "x509") || strings.Contains(msg, "tls") || strings.Contains(msg, "certificate")
}

// retryCountdown describes when the next automatic retry happens.
func retryCountdown(at time.Time) string {
	if at.IsZero() {
		return "Press r to retry"
	}
	remaining := time.Until(at)
	if remaining <= 0 {
		return "Retrying..."
	}
	return fmt.Sprintf("Retrying in %ds  r: retry now", int(remaining.Round(time.Second).Seconds()))
}
