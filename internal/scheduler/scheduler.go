package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// TerminalStore is the slice of the query layer the sweeper needs.
type TerminalStore interface {
	DeactivateIdleTerminalSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// TerminalSweeper periodically deactivates terminal sessions that have been
// idle longer than the configured threshold. Finished executions refresh a
// terminal's last activity through the broker consumer, so terminals in use
// are not reclaimed.
type TerminalSweeper struct {
	store    TerminalStore
	interval time.Duration
	maxIdle  time.Duration
	logger   *slog.Logger
}

// NewTerminalSweeper creates a new TerminalSweeper instance.
func NewTerminalSweeper(store TerminalStore, interval, maxIdle time.Duration, logger *slog.Logger) *TerminalSweeper {
	return &TerminalSweeper{
		store:    store,
		interval: interval,
		maxIdle:  maxIdle,
		logger:   logger,
	}
}

// Start runs the sweep loop in a background goroutine until ctx is cancelled.
func (s *TerminalSweeper) Start(ctx context.Context) {
	s.logger.Info("Terminal sweeper started",
		"interval", s.interval,
		"max_idle", s.maxIdle)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Terminal sweeper stopping")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *TerminalSweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.maxIdle)
	reclaimed, err := s.store.DeactivateIdleTerminalSessions(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to deactivate idle terminal sessions", "error", err)
		return
	}

	if reclaimed > 0 {
		s.logger.Info("Deactivated idle terminal sessions",
			"count", reclaimed,
			"idle_since", cutoff)
	}
}
