package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	clock := newFakeClock()
	mr.SetTime(clock.Now())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client, clock
}

func newTestRedisStore(client *redis.Client, clock *fakeClock) *RedisGrantStore {
	s := NewRedisGrantStore(client, 24*time.Hour)
	s.now = clock.Now
	return s
}

func TestRedisGrantStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	_, client, clock := newTestRedis(t)
	s := newTestRedisStore(client, clock)

	g, created, err := s.Issue(ctx, "pay_1", "order_1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, g.Token, 64)
	assert.Equal(t, "pay_1", g.PaymentID)
	assert.Equal(t, "order_1", g.OrderID)
	assert.Equal(t, models.GrantIssued, g.State)
	assert.True(t, g.ExpiresAt.Equal(clock.Now().Add(24*time.Hour)))

	again, created, err := s.Issue(ctx, "pay_1", "order_1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, g.Token, again.Token)

	h, err := s.Redeem(ctx, g.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.Attempt)
	assert.Equal(t, "pay_1", h.PaymentID)

	_, err = s.Redeem(ctx, g.Token)
	assert.ErrorIs(t, err, models.ErrGrantInProgress)

	require.NoError(t, s.Finalize(ctx, h, models.OutcomeInterrupted))
	assert.ErrorIs(t, s.Finalize(ctx, h, models.OutcomeCompleted), models.ErrStaleHandle)

	retry, err := s.Redeem(ctx, g.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(2), retry.Attempt)
	require.NoError(t, s.Finalize(ctx, retry, models.OutcomeCompleted))

	_, err = s.Redeem(ctx, g.Token)
	assert.ErrorIs(t, err, models.ErrGrantAlreadyUsed)
	assert.NotErrorIs(t, err, models.ErrGrantInProgress)
}

func TestRedisGrantStore_AbandonedTransferFreedAfterLease(t *testing.T) {
	ctx := context.Background()
	_, client, clock := newTestRedis(t)
	// two instances sharing one Redis
	a := newTestRedisStore(client, clock)
	b := newTestRedisStore(client, clock)

	g, _, err := a.Issue(ctx, "pay_1", "order_1")
	require.NoError(t, err)

	abandoned, err := a.Redeem(ctx, g.Token)
	require.NoError(t, err)
	// instance a goes away without finalizing

	clock.Advance(time.Minute)
	_, err = b.Redeem(ctx, g.Token)
	assert.ErrorIs(t, err, models.ErrGrantInProgress)

	clock.Advance(DefaultTransferLease)
	takeover, err := b.Redeem(ctx, g.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(2), takeover.Attempt)

	assert.ErrorIs(t, a.Finalize(ctx, abandoned, models.OutcomeInterrupted), models.ErrStaleHandle)
	require.NoError(t, b.Finalize(ctx, takeover, models.OutcomeCompleted))

	_, err = b.Redeem(ctx, g.Token)
	assert.ErrorIs(t, err, models.ErrGrantAlreadyUsed)
	assert.NotErrorIs(t, err, models.ErrGrantInProgress)
}

func TestRedisGrantStore_Lookup(t *testing.T) {
	ctx := context.Background()
	_, client, clock := newTestRedis(t)
	s := newTestRedisStore(client, clock)

	_, err := s.Lookup(ctx, "pay_1")
	assert.ErrorIs(t, err, models.ErrGrantNotFound)

	g, _, err := s.Issue(ctx, "pay_1", "order_1")
	require.NoError(t, err)
	h, err := s.Redeem(ctx, g.Token)
	require.NoError(t, err)
	require.NoError(t, s.Finalize(ctx, h, models.OutcomeCompleted))

	found, err := s.Lookup(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, g.Token, found.Token)
	assert.Equal(t, "order_1", found.OrderID)
	assert.Equal(t, models.GrantRedeemed, found.State)
	assert.True(t, found.LeaseUntil.IsZero())

	clock.Advance(24*time.Hour + time.Second)
	_, err = s.Lookup(ctx, "pay_1")
	assert.ErrorIs(t, err, models.ErrGrantNotFound)
}

func TestRedisGrantStore_UnknownToken(t *testing.T) {
	ctx := context.Background()
	_, client, clock := newTestRedis(t)
	s := newTestRedisStore(client, clock)

	_, err := s.Redeem(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrGrantNotFound)
	assert.ErrorIs(t, s.Finalize(ctx, models.GrantHandle{Token: "nope", Attempt: 1}, models.OutcomeCompleted), models.ErrGrantNotFound)
}

func TestRedisGrantStore_ExpiredBeforeKeyEviction(t *testing.T) {
	ctx := context.Background()
	_, client, clock := newTestRedis(t)
	s := newTestRedisStore(client, clock)

	g, _, err := s.Issue(ctx, "pay_1", "order_1")
	require.NoError(t, err)

	clock.Advance(24*time.Hour + time.Second)
	_, err = s.Redeem(ctx, g.Token)
	assert.ErrorIs(t, err, models.ErrGrantExpired)

	_, err = s.Redeem(ctx, g.Token)
	assert.ErrorIs(t, err, models.ErrGrantNotFound)

	fresh, created, err := s.Issue(ctx, "pay_1", "order_1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, g.Token, fresh.Token)
}

func TestRedisGrantStore_KeysExpireAtDeadline(t *testing.T) {
	ctx := context.Background()
	mr, client, clock := newTestRedis(t)
	s := newTestRedisStore(client, clock)

	g, _, err := s.Issue(ctx, "pay_1", "order_1")
	require.NoError(t, err)

	mr.FastForward(24*time.Hour + time.Second)
	_, err = s.Redeem(ctx, g.Token)
	assert.ErrorIs(t, err, models.ErrGrantNotFound)

	removed, err := s.SweepExpired(ctx, clock.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRedisGrantStore_ConcurrentRedeemSingleWinner(t *testing.T) {
	ctx := context.Background()
	_, client, clock := newTestRedis(t)
	s := newTestRedisStore(client, clock)
	g, _, err := s.Issue(ctx, "pay_1", "order_1")
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Redeem(ctx, g.Token); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, models.ErrGrantAlreadyUsed)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestRedisOrderLedger(t *testing.T) {
	ctx := context.Background()
	mr, client, clock := newTestRedis(t)
	l := NewRedisOrderLedger(client, 24*time.Hour)

	order := models.Order{ID: "order_1", Amount: models.ProductAmount, Currency: "INR", Receipt: "order_abc", CreatedAt: clock.Now()}
	require.NoError(t, l.Record(ctx, order))

	ok, err := l.Exists(ctx, "order_1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := l.Get(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, order.Receipt, got.Receipt)
	assert.Equal(t, order.Amount, got.Amount)

	_, err = l.Get(ctx, "order_x")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	mr.FastForward(25 * time.Hour)
	ok, err = l.Exists(ctx, "order_1")
	require.NoError(t, err)
	assert.False(t, ok)
}
