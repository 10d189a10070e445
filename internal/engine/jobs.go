package engine

import (
	"context"

	"github.com/listical/ga4-realtime/internal/client"
	"github.com/listical/ga4-realtime/internal/store"
)

// Result describes a finished job for logging and metrics.
type Result struct {
	Rows  int
	Quota *client.Quota
}

// Job performs one fetch-and-publish cycle. A job publishes only when it
// returns a nil error.
type Job func(ctx context.Context) (Result, error)

// RealtimeJob fetches the realtime report and publishes it as the snapshot.
func RealtimeJob(c client.AnalyticsClient, q client.Query, st *store.Store) Job {
	return func(ctx context.Context) (Result, error) {
		snap, err := FetchRealtime(ctx, c, q)
		if err != nil {
			return Result{}, err
		}
		st.Publish(snap)
		return Result{Rows: len(snap.Report.Rows), Quota: snap.Report.Quota}, nil
	}
}

// TotalVisitorsJob fetches the cumulative visitor count and publishes it.
func TotalVisitorsJob(c client.AnalyticsClient, q client.Query, st *store.Store) Job {
	return func(ctx context.Context) (Result, error) {
		total, quota, err := FetchTotalVisitors(ctx, c, q)
		if err != nil {
			return Result{Quota: quota}, err
		}
		st.PublishTotal(total)
		return Result{Rows: 1, Quota: quota}, nil
	}
}

