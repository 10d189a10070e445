// Package feed reads the realtime snapshot from a running service.
package feed

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/listical/ga4-realtime/internal/model"
)

const endpointRealtime = "/api/realtime"

// ErrNotReady is returned while the service has no snapshot to serve yet.
var ErrNotReady = errors.New("service has no data yet")

// Fetcher defines the interface the dashboard polls.
type Fetcher interface {
	Fetch(ctx context.Context) (*model.RealtimeResponse, error)
	BaseURL() string
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	BaseURL            string
	Username           string
	Password           string
	InsecureSkipVerify bool
	RequestTimeout     time.Duration
}

// DefaultClient implements Fetcher using the standard net/http package.
type DefaultClient struct {
	http   *http.Client
	config ClientConfig
}

// NewDefaultClient constructs a DefaultClient from the given config.
// Returns an error if BaseURL is empty.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	return &DefaultClient{
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		config: cfg,
	}, nil
}

// BaseURL returns the configured service URL.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// Fetch returns the service's current snapshot.
func (c *DefaultClient) Fetch(ctx context.Context) (*model.RealtimeResponse, error) {
	status, body, err := c.doGet(ctx, endpointRealtime)
	if err != nil {
		return nil, err
	}
	if status == http.StatusServiceUnavailable {
		return nil, ErrNotReady
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", status, truncate(body, 200))
	}

	var resp model.RealtimeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// doGet performs a GET request to the given path (relative to BaseURL).
// It sets Accept: application/json and Basic Auth if credentials are configured.
func (c *DefaultClient) doGet(ctx context.Context, path string) (int, []byte, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if c.config.Username != "" || c.config.Password != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	const maxResponseBytes = 16 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
