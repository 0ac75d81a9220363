// Package scheduler runs the periodic hold-expiry sweep.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Esraa-27/flash-sale-api/internal/app"
)

// HoldSweeper is the minimal interface the scheduler needs from
// app.HoldService.
type HoldSweeper interface {
	ExpirySweep(ctx context.Context) (app.SweepResult, error)
}

// Sweeper runs holds:process-expired on a fixed interval, skipping a tick
// if the previous run is still in flight rather than letting them overlap.
type Sweeper struct {
	svc      HoldSweeper
	log      *zap.Logger
	interval time.Duration
	running  atomic.Bool
	stopCh   chan struct{}
}

func NewSweeper(svc HoldSweeper, log *zap.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		svc:      svc,
		log:      log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("holds:process-expired overlap detected, skipping tick")
		return
	}
	defer s.running.Store(false)

	result, err := s.svc.ExpirySweep(ctx)
	if err != nil {
		s.log.Error("holds:process-expired failed", zap.Error(err))
		return
	}

	s.log.Info("holds:process-expired",
		zap.Int("count", result.Count),
		zap.Strings("product_ids", result.ProductIDs),
	)
}
