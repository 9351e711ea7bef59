package sweeper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chatwire/push-bridge/internal/store"
)

// Sweeper periodically deletes notification requests older than the
// retention horizon. It shares nothing with the dispatch path beyond the
// store handle.
type Sweeper struct {
	store     store.Store
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	onDeleted func(count int)
}

// New constructs a sweeper. onDeleted is optional (nil = no-op).
func New(
	st store.Store,
	retention time.Duration,
	interval time.Duration,
	logger *zap.Logger,
	onDeleted func(int),
) *Sweeper {
	if onDeleted == nil {
		onDeleted = func(int) {}
	}
	return &Sweeper{
		store:     st,
		retention: retention,
		interval:  interval,
		logger:    logger,
		onDeleted: onDeleted,
	}
}

// Run ticks every interval and runs a sweep.
// Stops cleanly when ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("retention", s.retention),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopping")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep error", zap.Error(err))
			}
		}
	}
}

// Sweep deletes all requests created before now minus the retention horizon
// as one batch and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.retention)

	ids, err := s.store.FindStaleRequests(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stale requests: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Debug("no old notification requests to delete")
		return 0, nil
	}

	if err := s.store.DeleteRequests(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete stale requests: %w", err)
	}

	s.onDeleted(len(ids))
	s.logger.Info("deleted old notification requests", zap.Int("count", len(ids)))
	return len(ids), nil
}
