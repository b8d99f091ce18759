package liveness

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWaiter() *Waiter {
	return New(Config{
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
		RequestTimeout: time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWaitUntilUp_Immediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newTestWaiter().WaitUntilUp(context.Background(), srv.URL, time.Second)
	assert.NoError(t, err)
}

func TestWaitUntilUp_RetriesUntilUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestWaiter().WaitUntilUp(context.Background(), srv.URL, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitUntilUp_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	start := time.Now()
	err := newTestWaiter().WaitUntilUp(context.Background(), srv.URL, 100*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "unexpected status: 500")
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitUntilUp_TimeoutKeepsStatusCause(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		// Later requests stall until the waiter gives up.
		<-r.Context().Done()
	}))
	defer srv.Close()

	err := newTestWaiter().WaitUntilUp(context.Background(), srv.URL, 100*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "unexpected status: 502")
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestWaitUntilUp_BasicAuthFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != "admin" || password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	authURL := strings.Replace(srv.URL, "http://", "http://admin:s3cret@", 1)

	err := newTestWaiter().WaitUntilUp(context.Background(), authURL, time.Second)
	assert.NoError(t, err)

	err = newTestWaiter().WaitUntilUp(context.Background(), srv.URL, 50*time.Millisecond)
	assert.Error(t, err)
}

func TestWaitUntilUp_InvalidURL(t *testing.T) {
	err := newTestWaiter().WaitUntilUp(context.Background(), "http://[::1", time.Second)
	assert.Error(t, err)
}

func TestCalculateBackoff(t *testing.T) {
	w := newTestWaiter()

	assert.Equal(t, 5*time.Millisecond, w.calculateBackoff(1))
	assert.Equal(t, 10*time.Millisecond, w.calculateBackoff(2))
	assert.Equal(t, 20*time.Millisecond, w.calculateBackoff(3))
	assert.Equal(t, 20*time.Millisecond, w.calculateBackoff(50))
}
