package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// countingPacer satisfies corpus.Pacer and records how often the pacing
// gate was passed.
type countingPacer struct {
	waits atomic.Int64
}

func (p *countingPacer) Wait(_ context.Context) error {
	p.waits.Add(1)
	return nil
}

func newTestFetcher(t *testing.T, maxRetries int) (*Fetcher, *countingPacer) {
	t.Helper()
	pacer := &countingPacer{}
	f := New(Config{
		UserAgent:      "lexcrawl-test/0.1",
		Timeout:        5 * time.Second,
		MaxRetries:     maxRetries,
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
	}, pacer, zaptest.NewLogger(t))
	return f, pacer
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f, pacer := newTestFetcher(t, 2)
	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.Contains(t, string(result.Body), "ok")
	require.Contains(t, result.ContentType, "text/html")
	require.NotEmpty(t, result.FinalURL)
	require.EqualValues(t, 1, pacer.waits.Load())
}

func TestFetchErrorStatusPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, 2)
	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err, "HTTP error statuses are values, not errors")
	require.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestFetchRetryBoundOnServerError(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	const maxRetries = 3
	f, pacer := newTestFetcher(t, maxRetries)
	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err, "exhausted retries on an HTTP status return the last response")
	require.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
	require.EqualValues(t, maxRetries+1, attempts.Load(), "exactly maxRetries+1 attempts")
	require.EqualValues(t, maxRetries+1, pacer.waits.Load(), "every attempt passes the pacing gate")
}

func TestFetchRecoversAfterThrottle(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("content"))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, 2)
	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.EqualValues(t, 2, attempts.Load())
}

func TestFetchNetworkFailureReturnsError(t *testing.T) {
	// A server that is immediately closed leaves a port nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	f, pacer := newTestFetcher(t, 1)
	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err, "network-level failure surfaces after retries are exhausted")
	require.EqualValues(t, 2, pacer.waits.Load())
}

func TestFetchCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	f := &Fetcher{cfg: Config{
		BackoffInitial: 2 * time.Second,
		BackoffMax:     7 * time.Second,
	}}
	require.Equal(t, 2*time.Second, f.backoff(0))
	require.Equal(t, 4*time.Second, f.backoff(1))
	require.Equal(t, 7*time.Second, f.backoff(2), "delay is capped")
	require.Equal(t, 7*time.Second, f.backoff(3))
}
