// Package config loads service configuration from the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/listical/ga4-realtime/internal/client"
)

// Config holds the service configuration. Keys match the environment
// variable names, lowercased.
type Config struct {
	ClientEmail string `mapstructure:"google_service_account_client_email"`
	PrivateKey  string `mapstructure:"google_service_account_private_key"`
	PropertyID  string `mapstructure:"ga4_property_id"`

	Port       int    `mapstructure:"port"`
	CORSOrigin string `mapstructure:"cors_origin"`

	RealtimeInterval      time.Duration `mapstructure:"realtime_interval"`
	RealtimeWindowMinutes int64         `mapstructure:"realtime_window_minutes"`
	RealtimeMetrics       []string      `mapstructure:"realtime_metrics"`
	RealtimeDimensions    []string      `mapstructure:"realtime_dimensions"`
	RealtimeRowLimit      int64         `mapstructure:"realtime_row_limit"`

	TotalsEnabled   bool          `mapstructure:"totals_enabled"`
	TotalsInterval  time.Duration `mapstructure:"totals_interval"`
	TotalsMetric    string        `mapstructure:"totals_metric"`
	TotalsStartDate string        `mapstructure:"totals_start_date"`
	TotalsEndDate   string        `mapstructure:"totals_end_date"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"google_service_account_client_email": "",
	"google_service_account_private_key":  "",
	"ga4_property_id":                     "",
	"port":                                3001,
	"cors_origin":                         "",
	"realtime_interval":                   "10s",
	"realtime_window_minutes":             5,
	"realtime_metrics":                    []string{"activeUsers", "screenPageViews", "eventCount"},
	"realtime_dimensions":                 []string{"unifiedScreenName", "deviceCategory", "country", "city"},
	"realtime_row_limit":                  0,
	"totals_enabled":                      true,
	"totals_interval":                     "1m",
	"totals_metric":                       "totalUsers",
	"totals_start_date":                   "2020-01-01",
	"totals_end_date":                     "today",
	"request_timeout":                     "10s",
	"log_level":                           "info",
	"log_format":                          "json",
}

// dotEnvFile is read from the working directory when no config path is given.
const dotEnvFile = ".env"

// Load reads configuration. Environment variables take precedence over the
// file at configPath, or over ./.env when configPath is empty and the file
// exists. The result is validated; every problem found is reported.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if configPath == "" {
		if _, err := os.Stat(dotEnvFile); err == nil {
			configPath = dotEnvFile
		}
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if strings.HasSuffix(configPath, ".env") {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize trims list entries and restores newlines in a private key that
// was stored on one line with literal \n sequences.
func (c *Config) normalize() {
	c.ClientEmail = strings.TrimSpace(c.ClientEmail)
	c.PropertyID = strings.TrimSpace(c.PropertyID)
	c.CORSOrigin = strings.TrimSpace(c.CORSOrigin)
	c.PrivateKey = strings.ReplaceAll(c.PrivateKey, `\n`, "\n")
	c.RealtimeMetrics = splitList(c.RealtimeMetrics)
	c.RealtimeDimensions = splitList(c.RealtimeDimensions)
	c.TotalsMetric = strings.TrimSpace(c.TotalsMetric)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// splitList flattens comma-separated entries and drops blanks. Values from a
// file arrive as a list while values from the environment arrive as one
// comma-separated string.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate checks every field and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	if c.ClientEmail == "" {
		errs = append(errs, errors.New("GOOGLE_SERVICE_ACCOUNT_CLIENT_EMAIL is required"))
	}
	if c.PrivateKey == "" {
		errs = append(errs, errors.New("GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY is required"))
	}
	if c.PropertyID == "" {
		errs = append(errs, errors.New("GA4_PROPERTY_ID is required"))
	} else if _, err := client.NormalizePropertyID(c.PropertyID); err != nil {
		errs = append(errs, fmt.Errorf("GA4_PROPERTY_ID: %w", err))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.RealtimeInterval <= 0 {
		errs = append(errs, fmt.Errorf("REALTIME_INTERVAL must be positive, got %s", c.RealtimeInterval))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if c.PropertyID != "" {
		if err := c.RealtimeQuery().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("realtime query: %w", err))
		}
	}
	if c.TotalsEnabled {
		if c.TotalsInterval <= 0 {
			errs = append(errs, fmt.Errorf("TOTALS_INTERVAL must be positive, got %s", c.TotalsInterval))
		}
		if c.PropertyID != "" {
			if err := c.TotalsQuery().Validate(); err != nil {
				errs = append(errs, fmt.Errorf("totals query: %w", err))
			}
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not a valid level", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// RealtimeQuery returns the fixed parameters of every realtime poll.
func (c *Config) RealtimeQuery() client.Query {
	return client.Query{
		Property:   c.PropertyID,
		Metrics:    c.RealtimeMetrics,
		Dimensions: c.RealtimeDimensions,
		Window:     client.LastMinutes(c.RealtimeWindowMinutes),
		Limit:      c.RealtimeRowLimit,
	}
}

// TotalsQuery returns the fixed parameters of every total-visitors poll.
func (c *Config) TotalsQuery() client.Query {
	var metrics []string
	if c.TotalsMetric != "" {
		metrics = []string{c.TotalsMetric}
	}
	return client.Query{
		Property: c.PropertyID,
		Metrics:  metrics,
		Window:   client.DateRange(c.TotalsStartDate, c.TotalsEndDate),
	}
}

// ClientConfig returns the upstream client configuration.
func (c *Config) ClientConfig() client.ClientConfig {
	return client.ClientConfig{
		ClientEmail:    c.ClientEmail,
		PrivateKey:     c.PrivateKey,
		RequestTimeout: c.RequestTimeout,
	}
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
