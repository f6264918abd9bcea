package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

const orderKeyPrefix = "order:"

type RedisOrderLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisOrderLedger(client *redis.Client, ttl time.Duration) *RedisOrderLedger {
	return &RedisOrderLedger{client: client, ttl: ttl}
}

func (l *RedisOrderLedger) Record(ctx context.Context, order models.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return err
	}
	if err := l.client.Set(ctx, orderKeyPrefix+order.ID, payload, l.ttl).Err(); err != nil {
		return fmt.Errorf("record order: %w", err)
	}
	return nil
}

func (l *RedisOrderLedger) Exists(ctx context.Context, orderID string) (bool, error) {
	n, err := l.client.Exists(ctx, orderKeyPrefix+orderID).Result()
	if err != nil {
		return false, fmt.Errorf("lookup order: %w", err)
	}
	return n == 1, nil
}

func (l *RedisOrderLedger) Get(ctx context.Context, orderID string) (*models.Order, error) {
	payload, err := l.client.Get(ctx, orderKeyPrefix+orderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	var order models.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SweepExpired is a no-op: order keys carry the ledger TTL.
func (l *RedisOrderLedger) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
