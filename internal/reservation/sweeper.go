package reservation

import (
	"context"
	"time"

	"github.com/leobar37/welllink-sub003/internal/logger"
)

// SlotExpirer retires open slots whose start time has passed.
type SlotExpirer interface {
	ExpireOverdueSlots(ctx context.Context) (int, error)
}

// Sweeper periodically expires overdue reservation requests and stale slots.
// Every sweep is idempotent, so overlapping instances (multiple app replicas)
// are safe; at worst they race on the same compare-and-set and one loses.
type Sweeper struct {
	reservations Service
	slots        SlotExpirer
	interval     time.Duration
}

func NewSweeper(reservations Service, slots SlotExpirer, interval time.Duration) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		slots:        slots,
		interval:     interval,
	}
}

// Start runs the sweep loop until ctx is cancelled. It performs one sweep
// immediately so a restart never leaves overdue requests pending for a full
// interval.
func (s *Sweeper) Start(ctx context.Context) {
	logger.Info("expiry sweeper started", "interval", s.interval.String())

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.reservations.ExpireDue(ctx); err != nil {
		logger.Error("reservation expiry sweep failed", "error", err)
	}

	if _, err := s.slots.ExpireOverdueSlots(ctx); err != nil {
		logger.Error("slot expiry sweep failed", "error", err)
	}
}
