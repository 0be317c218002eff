// Package poll implements the consumer-side reconciliation loop. Every
// dashboard surface owns one Loop: a timer re-fetches the full scoped job
// list and replaces the local snapshot wholesale, and push notifications
// only pull the next fetch forward. The loop is the actual consistency
// guarantee; the push channel merely shortens staleness.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Fetch retrieves the full scoped job list from the authoritative read
// endpoint.
type Fetch func(ctx context.Context) ([]models.JobView, error)

// Loop periodically reconciles a local job snapshot against the server.
type Loop struct {
	fetch    Fetch
	interval time.Duration
	logger   *zap.Logger

	// onReplace, when set, observes every successful wholesale replace.
	onReplace func([]models.JobView)

	// hints is buffered with capacity one: any number of hints arriving
	// before the next fetch collapse into a single extra fetch.
	hints chan struct{}

	maxRetries uint64

	mu       sync.RWMutex
	jobs     []models.JobView
	lastSync time.Time
}

type Option func(*Loop)

// WithReplaceCallback observes every successful snapshot replace.
func WithReplaceCallback(fn func([]models.JobView)) Option {
	return func(l *Loop) { l.onReplace = fn }
}

// WithMaxRetries caps the per-refresh backoff retries.
func WithMaxRetries(n uint64) Option {
	return func(l *Loop) { l.maxRetries = n }
}

// NewLoop builds a reconciliation loop. Worker surfaces run at ~10s,
// owner/admin surfaces at 15-30s.
func NewLoop(fetch Fetch, interval time.Duration, logger *zap.Logger, opts ...Option) *Loop {
	l := &Loop{
		fetch:      fetch,
		interval:   interval,
		logger:     logger.Named("poll"),
		hints:      make(chan struct{}, 1),
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Hint requests an out-of-cycle refresh. Non-blocking; hints issued
// while a fetch is pending coalesce into one.
func (l *Loop) Hint() {
	select {
	case l.hints <- struct{}{}:
	default:
	}
}

// Snapshot returns the last successfully fetched job list.
func (l *Loop) Snapshot() []models.JobView {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.JobView, len(l.jobs))
	copy(out, l.jobs)
	return out
}

// LastSync reports when the snapshot was last replaced.
func (l *Loop) LastSync() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastSync
}

// Refresh performs one authoritative fetch, retrying transient failures
// with exponential backoff, and replaces the snapshot wholesale on
// success. A failed refresh leaves the previous snapshot untouched; the
// next cycle will try again.
func (l *Loop) Refresh(ctx context.Context) error {
	var jobs []models.JobView
	operation := func() error {
		var err error
		jobs, err = l.fetch(ctx)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), l.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return err
	}

	l.mu.Lock()
	l.jobs = jobs
	l.lastSync = time.Now()
	l.mu.Unlock()

	if l.onReplace != nil {
		l.onReplace(jobs)
	}
	return nil
}

// Run drives the loop until ctx is cancelled: an immediate refresh, then
// one per interval tick or hint, whichever comes first. Refresh failures
// are logged and absorbed; the loop never stops on its own.
func (l *Loop) Run(ctx context.Context) {
	if err := l.Refresh(ctx); err != nil {
		l.logger.Warn("initial refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-l.hints:
		}
		if err := l.Refresh(ctx); err != nil {
			l.logger.Warn("refresh failed, keeping previous snapshot", zap.Error(err))
		}
	}
}
