package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingTarget struct {
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
}

func newBlockingTarget() *blockingTarget {
	return &blockingTarget{
		release: make(chan struct{}),
		started: make(chan struct{}, 16),
	}
}

func (b *blockingTarget) RefreshAll(ctx context.Context) (int, error) {
	b.calls.Add(1)
	b.started <- struct{}{}
	select {
	case <-b.release:
		return 1, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestClampInterval(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{in: 0, want: DefaultInterval},
		{in: -time.Second, want: DefaultInterval},
		{in: time.Second, want: MinInterval},
		{in: 10 * time.Second, want: 10 * time.Second},
		{in: 45 * time.Second, want: 45 * time.Second},
		{in: 300 * time.Second, want: 300 * time.Second},
		{in: time.Hour, want: MaxInterval},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ClampInterval(tt.in))
		})
	}
}

func TestRefresher_TickSkipsWhileRunning(t *testing.T) {
	target := newBlockingTarget()
	r := NewRefresher(target, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan bool)
	go func() { done <- r.Tick(context.Background()) }()
	<-target.started

	assert.False(t, r.Tick(context.Background()))

	close(target.release)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), target.calls.Load())

	// free again once the first run finished
	assert.True(t, r.Tick(context.Background()))
	assert.Equal(t, int32(2), target.calls.Load())
}

func TestRefresher_RunsOnTicksAndStops(t *testing.T) {
	target := newBlockingTarget()
	close(target.release)

	ticks := make(chan time.Time)
	stopped := make(chan struct{})
	r := NewRefresher(target, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, MinInterval, r.Interval())
	r.ticker = func(d time.Duration) (<-chan time.Time, func()) {
		assert.Equal(t, MinInterval, d)
		return ticks, func() { close(stopped) }
	}

	r.Start(context.Background())
	ticks <- time.Now()
	<-target.started
	require.Eventually(t, func() bool { return !r.running.Load() }, time.Second, time.Millisecond)
	ticks <- time.Now()
	<-target.started

	r.Stop()
	r.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		require.Fail(t, "ticker not stopped")
	}
	assert.Equal(t, int32(2), target.calls.Load())
}

func TestRefresher_StopsOnContextCancel(t *testing.T) {
	target := newBlockingTarget()
	ticks := make(chan time.Time)
	r := NewRefresher(target, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.ticker = func(time.Duration) (<-chan time.Time, func()) { return ticks, func() {} }

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	ticks <- time.Now()
	<-target.started

	// the in-flight refresh sees the same ctx and returns
	cancel()
	r.Stop()
	assert.Equal(t, int32(1), target.calls.Load())
}
