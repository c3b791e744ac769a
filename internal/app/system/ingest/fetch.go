// internal/app/system/ingest/fetch.go
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/cwcconnect/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const userAgent = "CWC-Connect-App"

// FetchConfig describes the roster API endpoint.
type FetchConfig struct {
	URL        string
	Username   string
	Password   string
	Timeout    time.Duration // per attempt
	Retries    int           // additional attempts after the first
	RetryDelay time.Duration // fixed pause between attempts
}

// Configured reports whether the endpoint and both credentials are present.
func (c FetchConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != "" &&
		strings.TrimSpace(c.Username) != "" &&
		strings.TrimSpace(c.Password) != ""
}

// Fetcher issues authenticated GETs against the roster API with a fixed
// number of retries and a fixed delay. Backoff is linear on purpose: the
// cycle runs a few times a day and the endpoint is a single internal host.
type Fetcher struct {
	cfg    FetchConfig
	client *http.Client
	log    *zap.Logger

	// Sleep waits between attempts. Tests replace it to avoid real timers.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher builds a Fetcher. A nil client uses http.DefaultClient and a
// zero Timeout uses timeouts.Fetch().
func NewFetcher(cfg FetchConfig, client *http.Client, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.Fetch()
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{cfg: cfg, client: client, log: logger, Sleep: sleepCtx}
}

// Endpoint returns the configured URL.
func (f *Fetcher) Endpoint() string { return f.cfg.URL }

// Fetch returns the decoded JSON payload. Transport failures and non-2xx
// responses are retried; a body that is not JSON is returned immediately
// since retrying would not change it. After the last attempt the error is a
// *FetchError.
func (f *Fetcher) Fetch(ctx context.Context) (any, error) {
	attempts := 1 + f.cfg.Retries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		payload, err := f.attempt(ctx)
		if err == nil {
			return payload, nil
		}
		var perr *payloadError
		if errors.As(err, &perr) {
			return nil, &FetchError{Endpoint: f.cfg.URL, Attempts: attempt, Err: err}
		}
		lastErr = err
		f.log.Warn("roster api attempt failed",
			zap.String("endpoint", f.cfg.URL),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt < attempts {
			if err := f.Sleep(ctx, f.cfg.RetryDelay); err != nil {
				return nil, &FetchError{Endpoint: f.cfg.URL, Attempts: attempt, Err: err}
			}
		}
	}
	return nil, &FetchError{Endpoint: f.cfg.URL, Attempts: attempts, Err: lastErr}
}

type payloadError struct{ err error }

func (e *payloadError) Error() string { return "invalid json payload: " + e.err.Error() }
func (e *payloadError) Unwrap() error { return e.err }

func (f *Fetcher) attempt(parent context.Context) (any, error) {
	ctx, cancel := context.WithTimeout(parent, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, &payloadError{err: err}
	}
	req.SetBasicAuth(f.cfg.Username, f.cfg.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := readAndClose(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, &payloadError{err: fmt.Errorf("%w body=%s", err, snippet(body, 300))}
	}
	return payload, nil
}

func readAndClose(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
