package client

import (
	"context"
	"fmt"
	"math"
	"strconv"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
)

// aggregationTotal asks the provider for a totals row alongside the data rows.
const aggregationTotal = "TOTAL"

// RunRealtimeReport runs a realtime report over a rolling minute window.
func (c *DefaultClient) RunRealtimeReport(ctx context.Context, q Query) (*Report, error) {
	const op = "RunRealtimeReport"

	property, err := NormalizePropertyID(q.Property)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUpstream, Err: err}
	}
	if !q.Window.IsMinuteRange() {
		return nil, &Error{Op: op, Kind: KindUpstream, Err: fmt.Errorf("realtime reports need a minute range")}
	}

	req := &analyticsdata.RunRealtimeReportRequest{
		Metrics:    metricsOf(q.Metrics),
		Dimensions: dimensionsOf(q.Dimensions),
		MinuteRanges: []*analyticsdata.MinuteRange{{
			Name:            q.Window.Name(),
			StartMinutesAgo: q.Window.StartMinutesAgo,
			EndMinutesAgo:   q.Window.EndMinutesAgo,
			ForceSendFields: []string{"StartMinutesAgo", "EndMinutesAgo"},
		}},
		MetricAggregations:  []string{aggregationTotal},
		ReturnPropertyQuota: true,
		Limit:               q.Limit,
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.svc.Properties.RunRealtimeReport(property, req).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(op, err)
	}

	report, err := convertReport(resp.DimensionHeaders, resp.MetricHeaders, resp.Rows, resp.Totals, resp.RowCount)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUpstream, Err: err}
	}
	report.Quota = convertQuota(resp.PropertyQuota)
	return report, nil
}

// RunReport runs an aggregate report over a calendar date range.
func (c *DefaultClient) RunReport(ctx context.Context, q Query) (*Report, error) {
	const op = "RunReport"

	property, err := NormalizePropertyID(q.Property)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUpstream, Err: err}
	}
	if q.Window.IsMinuteRange() {
		return nil, &Error{Op: op, Kind: KindUpstream, Err: fmt.Errorf("aggregate reports need a date range")}
	}

	req := &analyticsdata.RunReportRequest{
		Metrics:    metricsOf(q.Metrics),
		Dimensions: dimensionsOf(q.Dimensions),
		DateRanges: []*analyticsdata.DateRange{{
			StartDate: q.Window.StartDate,
			EndDate:   q.Window.EndDate,
		}},
		ReturnPropertyQuota: true,
		Limit:               q.Limit,
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.svc.Properties.RunReport(property, req).Context(ctx).Do()
	if err != nil {
		return nil, wrapError(op, err)
	}

	report, err := convertReport(resp.DimensionHeaders, resp.MetricHeaders, resp.Rows, resp.Totals, resp.RowCount)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUpstream, Err: err}
	}
	report.Quota = convertQuota(resp.PropertyQuota)
	return report, nil
}

func metricsOf(names []string) []*analyticsdata.Metric {
	out := make([]*analyticsdata.Metric, len(names))
	for i, n := range names {
		out[i] = &analyticsdata.Metric{Name: n}
	}
	return out
}

func dimensionsOf(names []string) []*analyticsdata.Dimension {
	if len(names) == 0 {
		return nil
	}
	out := make([]*analyticsdata.Dimension, len(names))
	for i, n := range names {
		out[i] = &analyticsdata.Dimension{Name: n}
	}
	return out
}

// convertReport turns the provider's positional rows into name-keyed rows.
// When the provider sends no totals row, totals are the column sums.
func convertReport(
	dimHeaders []*analyticsdata.DimensionHeader,
	metHeaders []*analyticsdata.MetricHeader,
	rows []*analyticsdata.Row,
	totals []*analyticsdata.Row,
	rowCount int64,
) (*Report, error) {
	report := &Report{
		DimensionHeaders: make([]string, len(dimHeaders)),
		MetricHeaders:    make([]MetricHeader, len(metHeaders)),
		Rows:             make([]Row, 0, len(rows)),
		Totals:           make(map[string]float64, len(metHeaders)),
		RowCount:         rowCount,
	}
	for i, h := range dimHeaders {
		report.DimensionHeaders[i] = h.Name
	}
	for i, h := range metHeaders {
		report.MetricHeaders[i] = MetricHeader{Name: h.Name, Type: h.Type}
	}

	for i, r := range rows {
		row := Row{
			Dimensions: make(map[string]string, len(dimHeaders)),
			Metrics:    make(map[string]float64, len(metHeaders)),
		}
		for j, dv := range r.DimensionValues {
			if j < len(report.DimensionHeaders) && dv != nil {
				row.Dimensions[report.DimensionHeaders[j]] = dv.Value
			}
		}
		metrics, err := metricValues(report.MetricHeaders, r.MetricValues)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		row.Metrics = metrics
		report.Rows = append(report.Rows, row)
	}

	if len(totals) > 0 && totals[0] != nil {
		t, err := metricValues(report.MetricHeaders, totals[0].MetricValues)
		if err != nil {
			return nil, fmt.Errorf("totals: %w", err)
		}
		report.Totals = t
	} else {
		for _, h := range report.MetricHeaders {
			var sum float64
			for _, row := range report.Rows {
				sum += row.Metrics[h.Name]
			}
			report.Totals[h.Name] = sum
		}
	}

	if report.RowCount == 0 {
		report.RowCount = int64(len(report.Rows))
	}
	return report, nil
}

func metricValues(headers []MetricHeader, values []*analyticsdata.MetricValue) (map[string]float64, error) {
	out := make(map[string]float64, len(headers))
	for j, mv := range values {
		if j >= len(headers) || mv == nil {
			continue
		}
		if mv.Value == "" {
			out[headers[j].Name] = 0
			continue
		}
		v, err := strconv.ParseFloat(mv.Value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("metric %s: invalid value %q", headers[j].Name, mv.Value)
		}
		out[headers[j].Name] = v
	}
	return out, nil
}

func convertQuota(q *analyticsdata.PropertyQuota) *Quota {
	if q == nil {
		return nil
	}
	out := &Quota{TokensPerHourRemaining: -1, TokensPerDayRemaining: -1}
	if q.TokensPerHour != nil {
		out.TokensPerHourRemaining = q.TokensPerHour.Remaining
	}
	if q.TokensPerDay != nil {
		out.TokensPerDayRemaining = q.TokensPerDay.Remaining
	}
	return out
}
