package model

import (
	"encoding/json"
	"time"

	"github.com/listical/ga4-realtime/internal/client"
)

// RealtimeResponse is the body served by GET /api/realtime.
type RealtimeResponse struct {
	DimensionHeaders         []string              `json:"dimensionHeaders"`
	MetricHeaders            []client.MetricHeader `json:"metricHeaders"`
	Rows                     []client.Row          `json:"rows"`
	RowCount                 int64                 `json:"rowCount"`
	Totals                   map[string]float64    `json:"totals"`
	FetchedAt                time.Time             `json:"fetchedAt"`
	TotalVisitors            *int64                `json:"totalVisitors,omitempty"`
	TotalVisitorsLastUpdated *time.Time            `json:"totalVisitorsLastUpdated"`
}

// ErrorResponse is the body served with non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewRealtimeResponse projects a snapshot and an optional total into the
// wire shape. snap must not be nil.
func NewRealtimeResponse(snap *Snapshot, total *TotalVisitors) RealtimeResponse {
	resp := RealtimeResponse{
		DimensionHeaders: snap.Report.DimensionHeaders,
		MetricHeaders:    snap.Report.MetricHeaders,
		Rows:             snap.Report.Rows,
		RowCount:         snap.Report.RowCount,
		Totals:           snap.Report.Totals,
		FetchedAt:        snap.FetchedAt,
	}
	if resp.DimensionHeaders == nil {
		resp.DimensionHeaders = []string{}
	}
	if resp.MetricHeaders == nil {
		resp.MetricHeaders = []client.MetricHeader{}
	}
	if resp.Rows == nil {
		resp.Rows = []client.Row{}
	}
	if resp.Totals == nil {
		resp.Totals = map[string]float64{}
	}
	if total != nil {
		v, at := total.Value, total.UpdatedAt
		resp.TotalVisitors = &v
		resp.TotalVisitorsLastUpdated = &at
	}
	return resp
}

// MarshalJSON emits the struct fields plus every total at the top level
// ("activeUsers": 5), so simple clients can read the headline numbers
// without walking rows. Struct fields win on a name collision.
func (r RealtimeResponse) MarshalJSON() ([]byte, error) {
	type plain RealtimeResponse
	base, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	if len(r.Totals) == 0 {
		return base, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for name, v := range r.Totals {
		if _, taken := fields[name]; taken {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fields[name] = raw
	}
	return json.Marshal(fields)
}
