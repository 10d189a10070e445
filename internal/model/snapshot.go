package model

import (
	"time"

	"github.com/listical/ga4-realtime/internal/client"
)

// Snapshot holds the result of one successful realtime poll. Once published
// it is never modified; a newer poll replaces it wholesale.
type Snapshot struct {
	Report    client.Report
	FetchedAt time.Time
}

// TotalVisitors is the cumulative visitor count and when it was fetched.
// It refreshes on its own schedule, independently of Snapshot.
type TotalVisitors struct {
	Value     int64
	UpdatedAt time.Time
}
