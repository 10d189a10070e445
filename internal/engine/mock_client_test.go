package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/listical/ga4-realtime/internal/client"
)

// MockAnalyticsClient implements client.AnalyticsClient for testing.
type MockAnalyticsClient struct {
	RealtimeFn func(ctx context.Context, q client.Query) (*client.Report, error)
	ReportFn   func(ctx context.Context, q client.Query) (*client.Report, error)

	realtimeCalls atomic.Int64
	reportCalls   atomic.Int64
}

func (m *MockAnalyticsClient) RunRealtimeReport(ctx context.Context, q client.Query) (*client.Report, error) {
	m.realtimeCalls.Add(1)
	if m.RealtimeFn != nil {
		return m.RealtimeFn(ctx, q)
	}
	return activeUsersReport(5), nil
}

func (m *MockAnalyticsClient) RunReport(ctx context.Context, q client.Query) (*client.Report, error) {
	m.reportCalls.Add(1)
	if m.ReportFn != nil {
		return m.ReportFn(ctx, q)
	}
	return &client.Report{
		MetricHeaders: []client.MetricHeader{{Name: "totalUsers"}},
		Rows:          []client.Row{{Metrics: map[string]float64{"totalUsers": 1234}}},
		Totals:        map[string]float64{"totalUsers": 1234},
		RowCount:      1,
	}, nil
}

func activeUsersReport(n float64) *client.Report {
	return &client.Report{
		DimensionHeaders: []string{"country"},
		MetricHeaders:    []client.MetricHeader{{Name: "activeUsers", Type: "TYPE_INTEGER"}},
		Rows: []client.Row{{
			Dimensions: map[string]string{"country": "Norway"},
			Metrics:    map[string]float64{"activeUsers": n},
		}},
		Totals:   map[string]float64{"activeUsers": n},
		RowCount: 1,
	}
}

var (
	realtimeQuery = client.Query{
		Property: "properties/1",
		Metrics:  []string{"activeUsers"},
		Window:   client.LastMinutes(5),
	}
	totalsQuery = client.Query{
		Property: "properties/1",
		Metrics:  []string{"totalUsers"},
		Window:   client.DateRange("2020-01-01", "today"),
	}
)

var errMockFailure = errors.New("mock failure")

func rateLimitErr() error {
	return &client.Error{Op: "RunRealtimeReport", Kind: client.KindRateLimit, Err: errors.New("429")}
}

func networkErr() error {
	return &client.Error{Op: "RunRealtimeReport", Kind: client.KindNetwork, Err: errors.New("connection refused")}
}
