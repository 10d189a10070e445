package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/listical/ga4-realtime/internal/client"
	"github.com/listical/ga4-realtime/internal/model"
)

// ErrEmptyReport is returned when an aggregate report has no rows to read a
// value from. It is not an upstream fault; the previous value stays.
var ErrEmptyReport = errors.New("report has no rows")

// FetchRealtime runs one realtime report and wraps it as a Snapshot stamped
// with the time the call returned.
func FetchRealtime(ctx context.Context, c client.AnalyticsClient, q client.Query) (*model.Snapshot, error) {
	report, err := c.RunRealtimeReport(ctx, q)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("FetchRealtime: incomplete response (unexpected nil)")
	}
	return &model.Snapshot{Report: *report, FetchedAt: time.Now()}, nil
}

// FetchTotalVisitors runs one aggregate report and reads the first metric of
// the first row as an integer count.
func FetchTotalVisitors(ctx context.Context, c client.AnalyticsClient, q client.Query) (model.TotalVisitors, *client.Quota, error) {
	if len(q.Metrics) == 0 {
		return model.TotalVisitors{}, nil, fmt.Errorf("FetchTotalVisitors: query has no metric")
	}
	report, err := c.RunReport(ctx, q)
	if err != nil {
		return model.TotalVisitors{}, nil, err
	}
	if report == nil || len(report.Rows) == 0 {
		var quota *client.Quota
		if report != nil {
			quota = report.Quota
		}
		return model.TotalVisitors{}, quota, ErrEmptyReport
	}

	v, ok := report.Rows[0].Metrics[q.Metrics[0]]
	if !ok {
		return model.TotalVisitors{}, report.Quota, fmt.Errorf("FetchTotalVisitors: metric %s missing from first row", q.Metrics[0])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return model.TotalVisitors{}, report.Quota, fmt.Errorf("FetchTotalVisitors: metric %s has invalid value %v", q.Metrics[0], v)
	}
	return model.TotalVisitors{Value: int64(v), UpdatedAt: time.Now()}, report.Quota, nil
}
