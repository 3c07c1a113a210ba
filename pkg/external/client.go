// Package external contains the HTTP clients for the remote diagnosis
// backend: one client per diagnosis collection plus the statistics
// endpoints, the circuit breakers around them and the Redis stats cache.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// Source names used in errors, logs and metrics.
const (
	SourceBrainTumor   = "brain_tumor"
	SourceBreastCancer = "breast_cancer"
	SourceStroke       = "stroke"
	SourceStatistics   = "statistics"
)

// ErrSourceUnavailable is wrapped into a SourceFetchError when a source's
// circuit breaker refuses the call.
var ErrSourceUnavailable = errors.New("diagnosis source unavailable")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
}

// IsClientError reports whether the backend rejected the request itself
// rather than failing to serve it.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

type bearerTokenKey struct{}

// WithBearerToken returns a context whose backend calls authenticate with token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

// BearerToken returns the token stored by WithBearerToken, or "".
func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	return token
}

// ClientConfig configures the shared backend client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // requests per second per source, 0 = unlimited
}

// ClientConfigFrom adapts the backend section of the application config.
func ClientConfigFrom(cfg domain.BackendConfig) ClientConfig {
	return ClientConfig{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	}
}

// Client is the resty client shared by every collection. Each source gets
// its own limiter so one busy collection cannot starve the others.
type Client struct {
	http   *resty.Client
	config ClientConfig
	logger *logrus.Logger
}

// NewClient creates the shared backend client.
func NewClient(config ClientConfig, logger *logrus.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		config: config,
		logger: logger,
	}
}

func (c *Client) newLimiter() *rate.Limiter {
	if c.config.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.config.RateLimit), 1)
}

// request prepares a resty request bound to ctx after waiting on limiter.
func (c *Client) request(ctx context.Context, limiter *rate.Limiter) (*resty.Request, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := c.http.R().SetContext(ctx)
	if token := BearerToken(ctx); token != "" {
		req.SetAuthToken(token)
	}
	return req, nil
}

// decode checks the status and unmarshals a successful body into out.
func decode(resp *resty.Response, out any) error {
	if resp.IsError() {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", resp.Request.URL, err)
	}
	return nil
}

// newAPIError extracts the backend's {"detail": ...} message when present.
func newAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode()}

	body := bytes.TrimSpace(resp.Body())
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			apiErr.Detail = detail
		} else {
			apiErr.Detail = string(payload.Detail)
		}
	}
	if apiErr.Detail == "" {
		if len(body) > 0 {
			apiErr.Detail = string(body)
		} else {
			apiErr.Detail = http.StatusText(resp.StatusCode())
		}
	}
	return apiErr
}
