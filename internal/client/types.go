package client

import (
	"fmt"
	"regexp"
)

// Window is the time range a query covers. Exactly one form is set: a
// calendar date range (aggregate reports) or a rolling minute range
// (realtime reports).
type Window struct {
	StartDate string
	EndDate   string

	StartMinutesAgo int64
	EndMinutesAgo   int64
}

// DateRange returns a Window spanning startDate..endDate. Dates use the
// provider's syntax: YYYY-MM-DD, "today", "yesterday" or "NdaysAgo".
func DateRange(startDate, endDate string) Window {
	return Window{StartDate: startDate, EndDate: endDate}
}

// LastMinutes returns a rolling Window covering the last n minutes.
func LastMinutes(n int64) Window {
	return Window{StartMinutesAgo: n, EndMinutesAgo: 0}
}

// IsMinuteRange reports whether w is a rolling minute window.
func (w Window) IsMinuteRange() bool {
	return w.StartDate == "" && w.EndDate == ""
}

// Name is the label sent with minute ranges, e.g. "last_5_min".
func (w Window) Name() string {
	if w.IsMinuteRange() {
		return fmt.Sprintf("last_%d_min", w.StartMinutesAgo-w.EndMinutesAgo)
	}
	return w.StartDate + "_" + w.EndDate
}

var dateExpr = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|today|yesterday|\d+daysAgo)$`)

// Validate checks that exactly one form of the window is well formed.
func (w Window) Validate() error {
	if w.IsMinuteRange() {
		if w.StartMinutesAgo <= 0 || w.StartMinutesAgo > 60 {
			return fmt.Errorf("startMinutesAgo must be between 1 and 60, got %d", w.StartMinutesAgo)
		}
		if w.EndMinutesAgo < 0 || w.EndMinutesAgo >= w.StartMinutesAgo {
			return fmt.Errorf("endMinutesAgo must be in [0, %d), got %d", w.StartMinutesAgo, w.EndMinutesAgo)
		}
		return nil
	}
	if w.StartMinutesAgo != 0 || w.EndMinutesAgo != 0 {
		return fmt.Errorf("window mixes a date range with a minute range")
	}
	if !dateExpr.MatchString(w.StartDate) {
		return fmt.Errorf("invalid start date %q", w.StartDate)
	}
	if !dateExpr.MatchString(w.EndDate) {
		return fmt.Errorf("invalid end date %q", w.EndDate)
	}
	return nil
}

// Query holds the fixed parameters of one report request.
type Query struct {
	Property   string
	Metrics    []string
	Dimensions []string
	Window     Window
	Limit      int64
}

// Validate checks the query. Callers run it once at startup.
func (q Query) Validate() error {
	if _, err := NormalizePropertyID(q.Property); err != nil {
		return err
	}
	if len(q.Metrics) == 0 {
		return fmt.Errorf("at least one metric is required")
	}
	for _, m := range q.Metrics {
		if m == "" {
			return fmt.Errorf("metric names must not be empty")
		}
	}
	for _, d := range q.Dimensions {
		if d == "" {
			return fmt.Errorf("dimension names must not be empty")
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", q.Limit)
	}
	if err := q.Window.Validate(); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

// MetricHeader names one metric column and its provider type
// (e.g. "TYPE_INTEGER").
type MetricHeader struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Row is one report row keyed by dimension and metric name.
type Row struct {
	Dimensions map[string]string  `json:"dimensions"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Quota is the remaining property quota reported with a response. Negative
// values mean the provider did not report that bucket.
type Quota struct {
	TokensPerHourRemaining int64 `json:"tokensPerHourRemaining"`
	TokensPerDayRemaining  int64 `json:"tokensPerDayRemaining"`
}

// Report is the provider response converted to plain Go values.
type Report struct {
	DimensionHeaders []string           `json:"dimensionHeaders"`
	MetricHeaders    []MetricHeader     `json:"metricHeaders"`
	Rows             []Row              `json:"rows"`
	Totals           map[string]float64 `json:"totals"`
	RowCount         int64              `json:"rowCount"`
	Quota            *Quota             `json:"quota,omitempty"`
}
