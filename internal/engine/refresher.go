package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/listical/ga4-realtime/internal/client"
	"github.com/listical/ga4-realtime/internal/metrics"
)

// RefresherConfig holds configuration for a Refresher.
type RefresherConfig struct {
	Name     string
	Interval time.Duration
	// Timeout bounds each tick's upstream call.
	Timeout time.Duration
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Status is a point-in-time view of a refresher's counters.
type Status struct {
	Name        string
	Interval    time.Duration
	Fetching    bool
	Successes   uint64
	Failures    uint64
	RateLimited uint64
	LastSuccess time.Time
	LastError   string
}

// Refresher runs a Job once immediately and then on every interval tick.
// Each tick runs in its own goroutine so a slow upstream call never delays
// the schedule; overlapping ticks publish in completion order.
type Refresher struct {
	cfg    RefresherConfig
	job    Job
	logger zerolog.Logger

	mu       sync.Mutex
	inFlight int
	status   Status
}

// NewRefresher creates a Refresher. Interval and Timeout default to 10s.
func NewRefresher(cfg RefresherConfig, job Job) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Refresher{
		cfg:    cfg,
		job:    job,
		logger: cfg.Logger.With().Str("refresher", cfg.Name).Logger(),
		status: Status{Name: cfg.Name, Interval: cfg.Interval},
	}
}

// Name returns the refresher's name.
func (r *Refresher) Name() string { return r.cfg.Name }

// Run ticks until ctx is done, then waits for in-flight ticks and returns nil.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.cfg.Interval).Msg("refresher started")

	var wg sync.WaitGroup
	spawn := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Tick(ctx)
		}()
	}

	spawn()
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			r.logger.Info().Msg("refresher stopped")
			return nil
		case <-ticker.C:
			spawn()
		}
	}
}

// Tick runs the job once, synchronously, under the per-call timeout.
func (r *Refresher) Tick(ctx context.Context) {
	r.begin()
	start := time.Now()

	tickCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	res, err := r.job(tickCtx)
	cancel()

	took := time.Since(start)
	result := resultOf(err)
	r.finish(err, result)

	if res.Quota != nil {
		r.cfg.Metrics.ObserveQuota(res.Quota.TokensPerHourRemaining, res.Quota.TokensPerDayRemaining)
	}
	r.cfg.Metrics.ObserveRefresh(r.cfg.Name, result, took, time.Now())

	switch {
	case err == nil:
		r.logger.Debug().Int("rows", res.Rows).Dur("took", took).Msg("refresh published")
	case ctx.Err() != nil:
		// shutting down
		r.logger.Debug().Err(err).Msg("refresh abandoned")
	case result == resultRateLimited, result == resultEmpty:
		r.logger.Warn().Err(err).Str("kind", result).Dur("took", took).Msg("refresh skipped")
	default:
		r.logger.Error().Err(err).Str("kind", result).Dur("took", took).Msg("refresh failed")
	}
}

// Status returns a copy of the current counters.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.status
	s.Fetching = r.inFlight > 0
	return s
}

func (r *Refresher) begin() {
	r.mu.Lock()
	r.inFlight++
	r.mu.Unlock()
}

func (r *Refresher) finish(err error, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	if err == nil {
		r.status.Successes++
		r.status.LastSuccess = time.Now()
		return
	}
	r.status.Failures++
	if result == resultRateLimited {
		r.status.RateLimited++
	}
	r.status.LastError = err.Error()
}

const (
	resultSuccess     = "success"
	resultEmpty       = "empty"
	resultRateLimited = "rate_limited"
)

// resultOf maps a job error to the label used in logs and metrics.
func resultOf(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case errors.Is(err, ErrEmptyReport):
		return resultEmpty
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		var ce *client.Error
		if !errors.As(err, &ce) {
			return client.KindNetwork.String()
		}
	}
	return client.KindOf(err).String()
}
