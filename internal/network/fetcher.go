// Package network performs service status checks.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/resilience"
)

// Fetcher resolves a URL to the HTTP status code it answers with.
type Fetcher interface {
	FetchStatusCode(ctx context.Context, rawURL string) (int, error)
}

// HTTPFetcherConfig holds configuration for HTTPFetcher.
type HTTPFetcherConfig struct {
	// Client performs the request. Defaults to a status check client.
	Client *resilience.Client

	// Registry receives per-endpoint outcomes. Optional.
	Registry *resilience.Registry

	// Metrics records check duration and totals. Optional.
	Metrics *CheckMetrics

	// Timeout is used when Client is nil.
	// Default: 10 seconds
	Timeout time.Duration

	// UserAgent is sent with every check.
	UserAgent string

	Logger zerolog.Logger
}

// HTTPFetcher checks services with a single GET request.
type HTTPFetcher struct {
	client    *resilience.Client
	registry  *resilience.Registry
	metrics   *CheckMetrics
	userAgent string
	logger    zerolog.Logger
}

// NewHTTPFetcher creates a new HTTPFetcher.
func NewHTTPFetcher(cfg HTTPFetcherConfig) *HTTPFetcher {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		client = resilience.NewClient(resilience.StatusCheckClientConfig("statuscheck", timeout))
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "statusboard"
	}

	return &HTTPFetcher{
		client:    client,
		registry:  cfg.Registry,
		metrics:   cfg.Metrics,
		userAgent: userAgent,
		logger:    cfg.Logger,
	}
}

// FetchStatusCode issues one GET against rawURL and returns the response status code.
// Any HTTP answer, including 5xx, is a status code; only transport failures are errors,
// always of type *TransportError.
func (f *HTTPFetcher) FetchStatusCode(ctx context.Context, rawURL string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return 0, &TransportError{URL: rawURL, Err: ErrInvalidURL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return 0, &TransportError{URL: rawURL, Err: fmt.Errorf("%w: %s", ErrInvalidURL, err.Error())}
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.DoWithContext(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		f.metrics.Record(u.Host, 0, elapsed, err)
		// A superseded check says nothing about the host's health.
		if f.registry != nil && !resilience.IsCancellation(err) {
			f.registry.RecordFailure(u.Host, err)
		}
		f.logger.Debug().
			Err(err).
			Str("url", rawURL).
			Dur("elapsed", elapsed).
			Msg("status check failed")
		return 0, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	f.metrics.Record(u.Host, resp.StatusCode, elapsed, nil)
	if f.registry != nil {
		f.registry.RecordSuccess(u.Host, elapsed)
	}
	f.logger.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("status check completed")

	return resp.StatusCode, nil
}

// Ensure HTTPFetcher implements Fetcher.
var _ Fetcher = (*HTTPFetcher)(nil)
