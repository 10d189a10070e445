package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// ErrorKind classifies upstream failures so callers can treat them
// differently (a rate limit is expected under aggressive polling, a network
// failure is not).
type ErrorKind int

const (
	KindUpstream ErrorKind = iota
	KindNetwork
	KindAuth
	KindRateLimit
)

// String returns the label used in logs and metrics.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limited"
	default:
		return "upstream"
	}
}

// Error is returned by every AnalyticsClient call that fails.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain. Errors that
// did not come from this package report KindUpstream.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUpstream
}

// IsRateLimited reports whether err is a quota or rate-limit failure.
func IsRateLimited(err error) bool {
	return err != nil && KindOf(err) == KindRateLimit
}

// quotaReasons are googleapi.ErrorItem reasons that mean the caller ran out
// of budget rather than permission.
var quotaReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"RESOURCE_EXHAUSTED":    true,
}

// wrapError classifies err and wraps it as *Error for operation op.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}

	// Token exchange failures surface wrapped in *url.Error, so check them
	// before the generic transport cases.
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode == http.StatusTooManyRequests {
			return KindRateLimit
		}
		return KindAuth
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUpstream
}

func classifyAPIError(e *googleapi.Error) ErrorKind {
	if e.Code == http.StatusTooManyRequests {
		return KindRateLimit
	}
	for _, item := range e.Errors {
		if quotaReasons[item.Reason] {
			return KindRateLimit
		}
	}
	if strings.Contains(e.Message, "RESOURCE_EXHAUSTED") || strings.Contains(strings.ToLower(e.Message), "exhausted property tokens") {
		return KindRateLimit
	}
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	}
	return KindUpstream
}
