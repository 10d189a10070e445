package client

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
)

// AnalyticsClient defines the interface for querying the analytics provider.
// Implementations make exactly one outbound call per method invocation and
// never retry.
type AnalyticsClient interface {
	RunRealtimeReport(ctx context.Context, q Query) (*Report, error)
	RunReport(ctx context.Context, q Query) (*Report, error)
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	ClientEmail    string
	PrivateKey     string
	RequestTimeout time.Duration

	// Endpoint overrides the provider base URL.
	Endpoint string
	// HTTPClient replaces the service-account transport entirely; the
	// credentials above are ignored when it is set.
	HTTPClient *http.Client
}

// DefaultClient implements AnalyticsClient on top of the GA4 Data API.
type DefaultClient struct {
	svc    *analyticsdata.Service
	config ClientConfig
}

// NewDefaultClient constructs a DefaultClient from the given config.
// Credentials are required unless an HTTPClient is supplied.
func NewDefaultClient(ctx context.Context, cfg ClientConfig) (*DefaultClient, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.ClientEmail == "" || cfg.PrivateKey == "" {
			return nil, fmt.Errorf("service account email and private key are required")
		}
		if err := validatePrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		jwtCfg := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{analyticsdata.AnalyticsReadonlyScope},
			TokenURL:   google.JWTTokenURL,
		}
		// The token exchange runs on this client rather than the request
		// context, so it needs its own bound.
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: cfg.RequestTimeout})
		httpClient = jwtCfg.Client(tokenCtx)
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create analytics data service: %w", err)
	}
	return &DefaultClient{svc: svc, config: cfg}, nil
}

// withTimeout bounds a single call by the configured request timeout unless
// the caller already set a tighter deadline.
func (c *DefaultClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= c.config.RequestTimeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.RequestTimeout)
}

// validatePrivateKey rejects keys the JWT signer would fail on, so a bad
// credential surfaces at startup instead of on every poll.
func validatePrivateKey(key string) error {
	block, _ := pem.Decode([]byte(key))
	if block == nil {
		return fmt.Errorf("private key is not PEM encoded (were newlines escaped?)")
	}
	if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return nil
	}
	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}
	return nil
}
