package repository

import (
	"context"
	"sync"
	"time"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

type MemoryOrderLedger struct {
	mu     sync.RWMutex
	orders map[string]models.Order
	ttl    time.Duration
}

func NewMemoryOrderLedger(ttl time.Duration) *MemoryOrderLedger {
	return &MemoryOrderLedger{orders: make(map[string]models.Order), ttl: ttl}
}

func (l *MemoryOrderLedger) Record(ctx context.Context, order models.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders[order.ID] = order
	return nil
}

func (l *MemoryOrderLedger) Exists(ctx context.Context, orderID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.orders[orderID]
	return ok, nil
}

func (l *MemoryOrderLedger) Get(ctx context.Context, orderID string) (*models.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	order, ok := l.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return &order, nil
}

// SweepExpired drops orders older than the ledger TTL.
func (l *MemoryOrderLedger) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, order := range l.orders {
		if now.Sub(order.CreatedAt) > l.ttl {
			delete(l.orders, id)
			removed++
		}
	}
	return removed, nil
}
