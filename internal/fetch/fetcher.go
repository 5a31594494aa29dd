package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/nba-boxscores/internal/logger"
)

// DefaultRequestsPerMinute is the source's published request ceiling
const DefaultRequestsPerMinute = 20

// Fetcher is the sole point of contact with the remote source. Calls are
// meant to be serialized: the backoff delays and the shared limiter only hold
// the request rate down when one request is in flight at a time.
type Fetcher struct {
	transport Transport
	policy    RetryPolicy
	clock     Clock
	limiter   *rate.Limiter
	log       *logger.Logger
	metrics   *logger.Metrics
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithPolicy sets the retry policy
func WithPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithClock sets the clock used for backoff waits
func WithClock(c Clock) Option {
	return func(f *Fetcher) { f.clock = c }
}

// WithLimiter sets the limiter shared by every request
func WithLimiter(l *rate.Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// WithMetrics sets the metrics tracker
func WithMetrics(m *logger.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// NewLimiter returns a limiter admitting perMinute requests per minute with
// no burst. perMinute <= 0 disables limiting.
func NewLimiter(perMinute float64) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perMinute/60), 1)
}

// New creates a Fetcher over transport
func New(transport Transport, opts ...Option) *Fetcher {
	f := &Fetcher{
		transport: transport,
		policy:    DefaultRetryPolicy(),
		clock:     RealClock(),
		limiter:   NewLimiter(DefaultRequestsPerMinute),
		log:       logger.Default(),
		metrics:   logger.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With(logger.Fields{"component": "fetch"})
	return f
}

// Fetch returns the inner HTML of selector on the page at url. ok is false
// when every attempt failed; the caller must treat the region as unfetched.
func (f *Fetcher) Fetch(ctx context.Context, url, selector string) (html string, ok bool) {
	schedule := f.policy.NewBackOff()

	for attempt := 1; ; attempt++ {
		delay := schedule.NextBackOff()
		if delay == backoff.Stop {
			break
		}
		if err := f.clock.Sleep(ctx, delay); err != nil {
			f.log.Warn("fetch cancelled", logger.Fields{"url": url, "attempt": attempt})
			break
		}
		if err := f.limiter.Wait(ctx); err != nil {
			f.log.Warn("fetch cancelled", logger.Fields{"url": url, "attempt": attempt})
			break
		}

		f.metrics.IncrCounter(logger.MetricFetchAttempts)
		start := time.Now()
		html, err := f.transport.Retrieve(ctx, url, selector)
		f.metrics.RecordTiming(logger.MetricFetchLatency, time.Since(start))
		if err == nil {
			f.log.Debug("fetched region", logger.Fields{"url": url, "selector": selector, "attempt": attempt})
			return html, true
		}

		f.metrics.IncrCounter(logger.MetricFetchFailures)
		f.log.Warn("fetch attempt failed", logger.Fields{
			"url":      url,
			"selector": selector,
			"attempt":  attempt,
			"error":    err.Error(),
		})

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) || ctx.Err() != nil {
			break
		}
	}

	f.metrics.IncrCounter(logger.MetricFetchUnavailable)
	f.log.Warn("page unavailable", logger.Fields{"url": url, "selector": selector})
	return "", false
}
