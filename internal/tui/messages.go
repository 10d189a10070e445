package tui

import (
	"time"

	"github.com/listical/ga4-realtime/internal/model"
)

// SnapshotMsg delivers a successful poll result to the TUI.
type SnapshotMsg struct {
	Response   *model.RealtimeResponse
	ReceivedAt time.Time
}

// FetchErrorMsg signals a poll failure, including the service having no
// data yet.
type FetchErrorMsg struct{ Err error }

// TickMsg triggers the next scheduled poll.
type TickMsg time.Time
