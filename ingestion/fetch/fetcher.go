// Package fetch downloads external image payloads with a bounded timeout
// and an explicit, configurable retry policy.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// defaultTimeout bounds each individual download attempt.
const defaultTimeout = 10 * time.Second

// Option configures the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(f *Fetcher) { f.policy = policy }
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fetcher downloads image payloads. Failures are transient by default and
// retried per the configured policy; exhaustion surfaces the last error.
type Fetcher struct {
	client *http.Client
	policy RetryPolicy
	logger *slog.Logger
}

// NewFetcher creates a Fetcher with a 10-second per-attempt timeout and
// the default retry policy.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: defaultTimeout},
		policy: DefaultRetryPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the payload at url, retrying transport and status
// failures per the retry policy.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request for %s: %w", url, err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			f.logger.Debug("image fetch attempt failed", "url", url, "attempt", attempt, "error", err)
			return fmt.Errorf("fetch %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			f.logger.Debug("image fetch attempt failed", "url", url, "attempt", attempt, "status", resp.Status)
			return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body of %s: %w", url, err)
		}
		return nil
	}
	if err := f.policy.Retry(ctx, op); err != nil {
		return nil, err
	}
	return data, nil
}
