package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/listical/ga4-realtime/internal/feed"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"not ready", fmt.Errorf("poll: %w", feed.ErrNotReady), "No data yet"},
		{"connection refused", errors.New("do request: dial tcp 127.0.0.1:8080: connect: connection refused"), "Connection refused"},
		{"unknown host", errors.New("dial tcp: lookup ga4rt.internal: no such host"), "Unknown host"},
		{"401", errors.New("unexpected status 401: "), "Authentication failed (401)"},
		{"403", errors.New("unexpected status 403: forbidden"), "Authentication failed (403)"},
		{"deadline", errors.New("context deadline exceeded"), "Timeout"},
		{"certificate", errors.New("x509: certificate signed by unknown authority"), "TLS error"},
		{"short unknown", errors.New("decode response: bad json"), "decode response: bad json"},
		{"long unknown", errors.New(strings.Repeat("a", 52)), strings.Repeat("a", 37) + "..."},
		{"escape codes stripped", errors.New("bad \x1b[31mred\x1b[0m body"), "bad red body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyError(tc.err))
		})
	}
}

func TestIsTLSError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("connection refused"), false},
		{"handshake", errors.New("remote error: tls: handshake failure"), true},
		{"x509", errors.New("x509: certificate has expired"), true},
		{"uppercase", errors.New("TLS certificate error"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isTLSError(tc.err))
		})
	}
}

func TestRetryCountdown(t *testing.T) {
	assert.Equal(t, "Press r to retry", retryCountdown(time.Time{}))
	assert.Equal(t, "Retrying...", retryCountdown(time.Now().Add(-time.Second)))

	msg := retryCountdown(time.Now().Add(15 * time.Second))
	assert.Contains(t, msg, "Retrying in")
	assert.Contains(t, msg, "r: retry now")
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "/pricing?plan=pro", "/pricing?plan=pro"},
		{"unicode kept", "Zürich / 東京", "Zürich / 東京"},
		{"CSI stripped", "\x1b[2J\x1b[Hhome", "home"},
		{"OSC with BEL", "\x1b]0;owned\x07title", "title"},
		{"OSC with ST", "\x1b]8;;http://x\x1b\\link", "link"},
		{"two-char escape", "a\x1bcb", "ab"},
		{"lone ESC", "end\x1b", "end"},
		{"C1 control", "a\u0085b", "ab"},
		{"newline and tab", "a\nb\tc", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitize(tc.input))
		})
	}
}

// headerLineCount returns the number of lines in a rendered header string.
func headerLineCount(rendered string) int {
	return strings.Count(stripANSI(rendered), "\n") + 1
}

func TestRenderHeader_FitsWidth(t *testing.T) {
	cases := []struct {
		name  string
		width int
		setup func(*App)
	}{
		{"connected wide", 120, func(a *App) {
			a.connState = stateConnected
			a.lastUpdated = fixtureTime.Add(-3 * time.Second)
		}},
		{"connected narrow", 30, func(a *App) {
			a.connState = stateConnected
			a.lastUpdated = fixtureTime.Add(-3 * time.Second)
		}},
		{"warming", 60, func(a *App) {
			a.connState = stateWarming
			a.lastError = feed.ErrNotReady
		}},
		{"disconnected", 60, func(a *App) {
			a.connState = stateDisconnected
			a.lastError = errors.New("connection refused")
			a.nextRetryAt = time.Now().Add(15 * time.Second)
		}},
		{"connecting", 40, func(a *App) {}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp()
			app.width = tc.width
			tc.setup(app)

			result := renderHeader(app)
			assert.Equal(t, 1, headerLineCount(result))
			assert.Equal(t, tc.width, lipgloss.Width(result))
		})
	}
}

func TestRenderHeader_Connected(t *testing.T) {
	app := newTestApp()
	app.width = 120
	app.connState = stateConnected
	app.lastUpdated = fixtureTime.Add(-3 * time.Second)

	out := stripANSI(renderHeader(app))
	assert.Contains(t, out, "ga4rt http://localhost:8080")
	assert.Contains(t, out, "● LIVE")
	assert.Contains(t, out, "3 seconds ago")
	assert.Contains(t, out, "Poll: 10s")
}

func TestRenderHeader_Disconnected(t *testing.T) {
	app := newTestApp()
	app.width = 120
	app.lastError = errors.New("connection refused")

	out := stripANSI(renderHeader(app))
	assert.Contains(t, out, "DISCONNECTED  Connection refused")
	assert.Contains(t, out, "Press r to retry")
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		input time.Duration
		want  string
	}{
		{5 * time.Second, "5s"},
		{59 * time.Second, "59s"},
		{time.Minute, "1m"},
		{150 * time.Second, "2m"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatDuration(tc.input), "input=%s", tc.input)
	}
}
