// Package scheduler is the single clock that drives every live timer.
package scheduler

import (
	"context"
	"time"

	"campus/companion/internal/logging"
)

type Ticker interface {
	TickAll() int
}

type Scheduler struct {
	target   Ticker
	interval time.Duration
	log      *logging.Logger
}

func New(target Ticker, interval time.Duration, log *logging.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{target: target, interval: interval, log: log}
}

// Run ticks the target once per interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	return s.RunWith(ctx, ticker.C)
}

// RunWith ticks the target once per value received from ticks. Ticks are
// handled one at a time, so the target never sees concurrent calls from here.
func (s *Scheduler) RunWith(ctx context.Context, ticks <-chan time.Time) error {
	s.log.Info("scheduler started", map[string]any{"interval": s.interval.String()})
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			if n := s.target.TickAll(); n > 0 {
				s.log.Debug("tick", map[string]any{"running": n})
			}
		}
	}
}
