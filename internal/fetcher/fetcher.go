// Package fetcher implements the rate-limited document fetcher using gocolly.
package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/lexcorpus/crawler/internal/corpus"
	"github.com/lexcorpus/crawler/internal/metrics"
)

// Config controls fetcher behavior.
type Config struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Fetcher issues single GET requests with global pacing, status
// pass-through and bounded retry. HTTP error statuses are returned as
// values; an error is returned only when retries are exhausted on a
// network-level failure.
type Fetcher struct {
	cfg           Config
	pacer         corpus.Pacer
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher. The pacer is shared with the owning pipeline so
// every request in the run goes through the same pacing gate.
func New(cfg Config, pacer corpus.Pacer, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = 2 * time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 30 * time.Second
	}

	// Synchronous collection relies on the collector's Async default
	// (false): colly v2.1.0's Async option ignores its argument and
	// always enables async mode, so Async(false) must not be passed.
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	c.SetRequestTimeout(cfg.Timeout)
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		pacer:         pacer,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch retrieves url, retrying on 429/5xx statuses and network errors
// with a doubling backoff. When retries are exhausted on an HTTP error
// status the last response is returned as-is so the caller can decide to
// fall back; an exhausted network failure returns the error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (corpus.FetchResult, error) {
	var (
		last    corpus.FetchResult
		lastErr error
	)

	attempts := f.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			metrics.ObserveRetry()
			if err := f.pause(ctx, f.backoff(attempt-1)); err != nil {
				return corpus.FetchResult{}, err
			}
		}
		if err := f.pacer.Wait(ctx); err != nil {
			return corpus.FetchResult{}, fmt.Errorf("pacing wait: %w", err)
		}

		result, err := f.fetchOnce(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return corpus.FetchResult{}, err
			}
			metrics.ObserveFetchError()
			f.logger.Warn("fetch attempt failed",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		metrics.ObserveFetchAttempt(result.StatusCode)
		last = result
		lastErr = nil
		if !retryableStatus(result.StatusCode) {
			return result, nil
		}
		f.logger.Warn("fetch attempt throttled or failed upstream",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Int("status", result.StatusCode),
		)
	}

	if lastErr != nil {
		return corpus.FetchResult{}, fmt.Errorf("fetch %s: %w", url, lastErr)
	}
	return last, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (corpus.FetchResult, error) {
	collector := f.baseCollector.Clone()

	var (
		result   corpus.FetchResult
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		result = corpus.FetchResult{
			StatusCode:  r.StatusCode,
			Body:        append([]byte(nil), r.Body...),
			ContentType: r.Headers.Get("Content-Type"),
			FinalURL:    r.Request.URL.String(),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return corpus.FetchResult{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return corpus.FetchResult{}, fmt.Errorf("visit %s: %w", url, err)
		}
		if fetchErr != nil {
			return corpus.FetchResult{}, fmt.Errorf("request %s: %w", url, fetchErr)
		}
		return result, nil
	}
}

// backoff returns the delay before retry n (0-based): initial, doubled
// each retry, capped at BackoffMax.
func (f *Fetcher) backoff(n int) time.Duration {
	delay := f.cfg.BackoffInitial << uint(n)
	if delay > f.cfg.BackoffMax || delay <= 0 {
		delay = f.cfg.BackoffMax
	}
	return delay
}

func (f *Fetcher) pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
