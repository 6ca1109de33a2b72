// Package scheduler drives periodic status reconciliation.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Refresh interval bounds
const (
	MinInterval     = 10 * time.Second
	MaxInterval     = 300 * time.Second
	DefaultInterval = 30 * time.Second
)

// RefreshAller reconciles all tracked jobs
type RefreshAller interface {
	RefreshAll(ctx context.Context) (int, error)
}

// ClampInterval maps d into [MinInterval, MaxInterval]; zero means DefaultInterval
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultInterval
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	default:
		return d
	}
}

// Refresher calls RefreshAll on a fixed interval. A tick that arrives while the
// previous run is still going is skipped.
type Refresher struct {
	target   RefreshAller
	interval time.Duration
	logger   *slog.Logger
	running  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	ticker   func(time.Duration) (<-chan time.Time, func())
}

// NewRefresher creates a Refresher; interval is clamped to the allowed range
func NewRefresher(target RefreshAller, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		target:   target,
		interval: ClampInterval(interval),
		logger:   logger,
		stopChan: make(chan struct{}),
		ticker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Interval returns the effective interval
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Start runs the loop in the background until ctx is done or Stop is called
func (r *Refresher) Start(ctx context.Context) {
	ticks, stop := r.ticker(r.interval)

	r.logger.Info("Auto refresh started", slog.Duration("interval", r.interval))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer stop()

		for {
			select {
			case <-ctx.Done():
				r.logger.Info("Auto refresh stopping - context canceled")
				return
			case <-r.stopChan:
				r.logger.Info("Auto refresh stopping")
				return
			case <-ticks:
				r.wg.Add(1)
				go func() {
					defer r.wg.Done()
					r.Tick(ctx)
				}()
			}
		}
	}()
}

// Tick performs one refresh unless another is in flight; it reports whether it ran
func (r *Refresher) Tick(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Debug("Refresh still running, skipping tick")
		return false
	}
	defer r.running.Store(false)

	updated, err := r.target.RefreshAll(ctx)
	if err != nil {
		r.logger.Warn("Auto refresh interrupted", slog.String("error", err.Error()))
		return true
	}
	if updated > 0 {
		r.logger.Info("Auto refresh updated jobs", slog.Int("updated", updated))
	}
	return true
}

// Stop ends the loop and waits for an in-flight refresh
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
}
