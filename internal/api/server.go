// Package api serves the cached analytics snapshot over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/listical/ga4-realtime/internal/engine"
	"github.com/listical/ga4-realtime/internal/metrics"
	"github.com/listical/ga4-realtime/internal/model"
	"github.com/listical/ga4-realtime/internal/store"
)

// StatusSource reports the state of one background refresher.
type StatusSource interface {
	Status() engine.Status
}

// ServerConfig holds configuration for Server.
type ServerConfig struct {
	Addr string
	// CORSOrigin enables CORS for that origin. Empty disables CORS.
	CORSOrigin string
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

// Server implements the read-only HTTP API.
type Server struct {
	cfg        ServerConfig
	store      *store.Store
	refreshers []StatusSource
	handler    http.Handler
	server     *http.Server
}

// NewServer creates a Server reading from st. Handlers never trigger a
// refresh; they only read what the refreshers last published.
func NewServer(cfg ServerConfig, st *store.Store, refreshers ...StatusSource) *Server {
	s := &Server{
		cfg:        cfg,
		store:      st,
		refreshers: refreshers,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/realtime", s.handleRealtime)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", cfg.Metrics.Handler())

	s.handler = s.middleware(mux)
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// middleware wraps h with access logging, CORS and compression, outermost
// first.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = gzhttp.GzipHandler(h)

	if s.cfg.CORSOrigin != "" {
		h = cors.New(cors.Options{
			AllowedOrigins: []string{s.cfg.CORSOrigin},
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		}).Handler(h)
	}

	h = hlog.AccessHandler(func(r *http.Request, status, size int, took time.Duration) {
		s.cfg.Metrics.ObserveRequest(status)
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("took", took).
			Msg("request")
	})(h)
	h = hlog.RemoteAddrHandler("remote")(h)
	return hlog.NewHandler(s.cfg.Logger)(h)
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address. It returns nil after Stop.
func (s *Server) Start() error {
	s.cfg.Logger.Info().Str("addr", s.cfg.Addr).Msg("listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	st := s.store.Read()
	if st.Snapshot == nil {
		writeJSON(w, r, http.StatusServiceUnavailable, model.ErrorResponse{Error: "Data not yet available"})
		return
	}
	writeJSON(w, r, http.StatusOK, model.NewRealtimeResponse(st.Snapshot, st.Total))
}

type refresherHealth struct {
	Name        string     `json:"name"`
	Interval    string     `json:"interval"`
	Fetching    bool       `json:"fetching"`
	Successes   uint64     `json:"successes"`
	Failures    uint64     `json:"failures"`
	RateLimited uint64     `json:"rateLimited"`
	LastSuccess *time.Time `json:"lastSuccess"`
	LastError   string     `json:"lastError,omitempty"`
}

type healthResponse struct {
	Status     string            `json:"status"`
	Snapshot   bool              `json:"snapshot"`
	Refreshers []refresherHealth `json:"refreshers"`
}

// handleHealth is a liveness probe: it always answers 200 and reports
// whether data is available yet.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	resp := healthResponse{
		Status:     "warming_up",
		Snapshot:   s.store.Read().Snapshot != nil,
		Refreshers: make([]refresherHealth, 0, len(s.refreshers)),
	}
	if resp.Snapshot {
		resp.Status = "ok"
	}
	for _, src := range s.refreshers {
		st := src.Status()
		h := refresherHealth{
			Name:        st.Name,
			Interval:    st.Interval.String(),
			Fetching:    st.Fetching,
			Successes:   st.Successes,
			Failures:    st.Failures,
			RateLimited: st.RateLimited,
			LastError:   st.LastError,
		}
		if !st.LastSuccess.IsZero() {
			at := st.LastSuccess
			h.LastSuccess = &at
		}
		resp.Refreshers = append(resp.Refreshers, h)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encode response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
