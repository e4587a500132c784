package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingStore struct {
	calls  int32
	lastMu chan time.Time
}

func (s *countingStore) DeactivateIdleTerminalSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	atomic.AddInt32(&s.calls, 1)
	select {
	case s.lastMu <- cutoff:
	default:
	}
	return 1, nil
}

func TestSweeperDeactivatesOnEachTick(t *testing.T) {
	store := &countingStore{lastMu: make(chan time.Time, 1)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := NewTerminalSweeper(store, 5*time.Millisecond, time.Hour, logger)
	sweeper.Start(ctx)

	var cutoff time.Time
	select {
	case cutoff = <-store.lastMu:
	case <-time.After(time.Second):
		t.Fatal("sweeper never ran")
	}

	// Cutoff sits roughly maxIdle in the past.
	assert.WithinDuration(t, time.Now().Add(-time.Hour), cutoff, time.Minute)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&store.calls) >= 2
	}, time.Second, time.Millisecond, "sweeper should keep ticking")
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
	store := &countingStore{lastMu: make(chan time.Time, 1)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	sweeper := NewTerminalSweeper(store, time.Millisecond, time.Hour, logger)
	sweeper.Start(ctx)

	<-store.lastMu
	cancel()
	time.Sleep(20 * time.Millisecond)

	before := atomic.LoadInt32(&store.calls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, atomic.LoadInt32(&store.calls), "no sweeps after cancellation")
}
