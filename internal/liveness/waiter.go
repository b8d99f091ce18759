// Package liveness waits for an audit target to answer HTTP requests.
package liveness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RequestTimeout time.Duration
}

type Waiter struct {
	httpClient     *http.Client
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Waiter {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Waiter{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "liveness"),
	}
}

// WaitUntilUp polls rawURL with GET until it answers 2xx or timeout elapses.
// Credentials in the URL are sent as basic auth.
func (w *Waiter) WaitUntilUp(ctx context.Context, rawURL string, timeout time.Duration) error {
	target, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	user := target.User
	target.User = nil

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// lastErr is the last failure not caused by the wait deadline itself.
	var lastErr error
	for attempt := 1; ; attempt++ {
		err = w.probe(ctx, target.String(), user)
		if err == nil {
			w.logger.Debug("target is up", "url", target.String(), "attempts", attempt)
			return nil
		}
		if ctx.Err() == nil || lastErr == nil {
			lastErr = err
		}

		backoff := w.calculateBackoff(attempt)
		w.logger.Debug("target not up, retrying",
			"url", target.String(),
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not up after %d attempts within %s: %w (last error: %v)",
				target.String(), attempt, timeout, ctx.Err(), lastErr)
		case <-time.After(backoff):
		}
	}
}

func (w *Waiter) probe(ctx context.Context, target string, user *url.Userinfo) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if user != nil {
		password, _ := user.Password()
		req.SetBasicAuth(user.Username(), password)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func (w *Waiter) calculateBackoff(attempt int) time.Duration {
	backoff := w.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > w.maxBackoff {
			break
		}
	}
	if backoff > w.maxBackoff {
		backoff = w.maxBackoff
	}
	return backoff
}
