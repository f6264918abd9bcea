package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/guide-delivery/internal/interfaces"
	"github.com/akylbek/payment-system/guide-delivery/internal/telemetry"
)

// DefaultSweepInterval matches the hourly cleanup of expired grants.
const DefaultSweepInterval = time.Hour

// Sweeper removes expired grants and orders on a fixed interval,
// independent of request traffic.
type Sweeper struct {
	grants   interfaces.GrantStore
	ledger   interfaces.OrderLedger
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(grants interfaces.GrantStore, ledger interfaces.OrderLedger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{grants: grants, ledger: ledger, interval: interval, now: time.Now}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	telemetry.Logger.Info("Expiry sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			telemetry.Logger.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass and returns how many grants and orders it removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (grants, orders int) {
	now := s.now()

	grants, err := s.grants.SweepExpired(ctx, now)
	if err != nil {
		telemetry.Logger.Error("Grant sweep failed", zap.Error(err))
	}
	orders, err = s.ledger.SweepExpired(ctx, now)
	if err != nil {
		telemetry.Logger.Error("Order sweep failed", zap.Error(err))
	}

	telemetry.SweptEntries.WithLabelValues("grants").Add(float64(grants))
	telemetry.SweptEntries.WithLabelValues("orders").Add(float64(orders))
	if grants > 0 || orders > 0 {
		telemetry.Logger.Info("Expired entries removed",
			zap.Int("grants", grants),
			zap.Int("orders", orders),
		)
	}
	return grants, orders
}
