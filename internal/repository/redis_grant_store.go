package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

const (
	grantKeyPrefix        = "grant:"
	grantPaymentKeyPrefix = "grant_payment:"
)

// Each transition runs as one script, so check-and-set is atomic on the server.
var (
	issueScript = redis.NewScript(`
local function load(gkey, token, created)
  local f = redis.call('HMGET', gkey, 'payment_id', 'order_id', 'state', 'attempt', 'created_at', 'expires_at')
  return {token, created, f[1], f[2], f[3], f[4], f[5], f[6]}
end
local existing = redis.call('GET', KEYS[1])
if existing then
  local gkey = ARGV[6] .. existing
  local exp = redis.call('HGET', gkey, 'expires_at')
  if exp and tonumber(exp) >= tonumber(ARGV[4]) then
    return load(gkey, existing, 0)
  end
  redis.call('DEL', gkey)
end
local gkey = ARGV[6] .. ARGV[1]
redis.call('HSET', gkey, 'payment_id', ARGV[2], 'order_id', ARGV[3], 'state', 'issued', 'attempt', '0', 'created_at', ARGV[4], 'expires_at', ARGV[5])
redis.call('PEXPIREAT', gkey, ARGV[5])
redis.call('SET', KEYS[1], ARGV[1])
redis.call('PEXPIREAT', KEYS[1], ARGV[5])
return load(gkey, ARGV[1], 1)
`)

	redeemScript = redis.NewScript(`
local f = redis.call('HMGET', KEYS[1], 'state', 'expires_at', 'attempt', 'payment_id', 'lease_until')
if not f[1] then
  return {'not_found'}
end
if tonumber(ARGV[1]) > tonumber(f[2]) then
  redis.call('DEL', KEYS[1])
  local pkey = ARGV[2] .. f[4]
  if redis.call('GET', pkey) == ARGV[3] then
    redis.call('DEL', pkey)
  end
  return {'expired'}
end
if f[1] == 'redeemed' then
  return {'already_used'}
end
if f[1] == 'in_flight' and tonumber(f[5] or '0') >= tonumber(ARGV[1]) then
  return {'in_progress'}
end
local attempt = redis.call('HINCRBY', KEYS[1], 'attempt', 1)
redis.call('HSET', KEYS[1], 'state', 'in_flight', 'lease_until', ARGV[4])
return {'ok', tostring(attempt), f[4]}
`)

	finalizeScript = redis.NewScript(`
local f = redis.call('HMGET', KEYS[1], 'state', 'attempt')
if not f[1] then
  return 'not_found'
end
if f[1] ~= 'in_flight' or f[2] ~= ARGV[1] then
  return 'stale'
end
redis.call('HSET', KEYS[1], 'state', ARGV[2], 'lease_until', '0')
return 'ok'
`)
)

// RedisGrantStore shares grants between instances. Keys expire at the grant
// deadline, so the server performs the sweep. An in-flight grant whose lease
// has passed is redeemable again, so a crashed instance cannot pin it.
type RedisGrantStore struct {
	client   *redis.Client
	ttl      time.Duration
	lease    time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

func NewRedisGrantStore(client *redis.Client, ttl time.Duration) *RedisGrantStore {
	return &RedisGrantStore{
		client:   client,
		ttl:      ttl,
		lease:    DefaultTransferLease,
		now:      time.Now,
		newToken: NewToken,
	}
}

// SetTransferLease sets how long a redeemed grant stays in flight before
// another redeem may take it over. Call before serving traffic.
func (s *RedisGrantStore) SetTransferLease(d time.Duration) {
	if d > 0 {
		s.lease = d
	}
}

func (s *RedisGrantStore) Issue(ctx context.Context, paymentID, orderID string) (models.Grant, bool, error) {
	token, err := s.newToken()
	if err != nil {
		return models.Grant{}, false, err
	}

	now := s.now()
	res, err := issueScript.Run(ctx, s.client,
		[]string{grantPaymentKeyPrefix + paymentID},
		token, paymentID, orderID, now.UnixMilli(), now.Add(s.ttl).UnixMilli(), grantKeyPrefix,
	).Slice()
	if err != nil {
		return models.Grant{}, false, fmt.Errorf("issue grant: %w", err)
	}
	if len(res) != 8 {
		return models.Grant{}, false, fmt.Errorf("issue grant: unexpected reply of %d elements", len(res))
	}

	g := models.Grant{
		Token:     str(res[0]),
		PaymentID: str(res[2]),
		OrderID:   str(res[3]),
		State:     models.GrantState(str(res[4])),
		Attempt:   num(res[5]),
		CreatedAt: time.UnixMilli(num(res[6])),
		ExpiresAt: time.UnixMilli(num(res[7])),
	}
	created, _ := res[1].(int64)
	return g, created == 1, nil
}

func (s *RedisGrantStore) Lookup(ctx context.Context, paymentID string) (models.Grant, error) {
	token, err := s.client.Get(ctx, grantPaymentKeyPrefix+paymentID).Result()
	if errors.Is(err, redis.Nil) {
		return models.Grant{}, models.ErrGrantNotFound
	}
	if err != nil {
		return models.Grant{}, fmt.Errorf("lookup grant: %w", err)
	}

	f, err := s.client.HGetAll(ctx, grantKeyPrefix+token).Result()
	if err != nil {
		return models.Grant{}, fmt.Errorf("lookup grant: %w", err)
	}
	if len(f) == 0 {
		return models.Grant{}, models.ErrGrantNotFound
	}

	g := models.Grant{
		Token:     token,
		PaymentID: f["payment_id"],
		OrderID:   f["order_id"],
		State:     models.GrantState(f["state"]),
		Attempt:   num(f["attempt"]),
		CreatedAt: time.UnixMilli(num(f["created_at"])),
		ExpiresAt: time.UnixMilli(num(f["expires_at"])),
	}
	if lease := num(f["lease_until"]); lease > 0 {
		g.LeaseUntil = time.UnixMilli(lease)
	}
	if g.Expired(s.now()) {
		return models.Grant{}, models.ErrGrantNotFound
	}
	return g, nil
}

func (s *RedisGrantStore) Redeem(ctx context.Context, token string) (models.GrantHandle, error) {
	now := s.now()
	res, err := redeemScript.Run(ctx, s.client,
		[]string{grantKeyPrefix + token},
		now.UnixMilli(), grantPaymentKeyPrefix, token, now.Add(s.lease).UnixMilli(),
	).Slice()
	if err != nil {
		return models.GrantHandle{}, fmt.Errorf("redeem grant: %w", err)
	}
	if len(res) == 0 {
		return models.GrantHandle{}, fmt.Errorf("redeem grant: empty reply")
	}

	switch str(res[0]) {
	case "not_found":
		return models.GrantHandle{}, models.ErrGrantNotFound
	case "expired":
		return models.GrantHandle{}, models.ErrGrantExpired
	case "already_used":
		return models.GrantHandle{}, models.ErrGrantAlreadyUsed
	case "in_progress":
		return models.GrantHandle{}, models.ErrGrantInProgress
	case "ok":
		if len(res) < 3 {
			return models.GrantHandle{}, fmt.Errorf("redeem grant: short reply")
		}
		return models.GrantHandle{Token: token, PaymentID: str(res[2]), Attempt: num(res[1])}, nil
	default:
		return models.GrantHandle{}, fmt.Errorf("redeem grant: unexpected reply %v", res[0])
	}
}

func (s *RedisGrantStore) Finalize(ctx context.Context, handle models.GrantHandle, outcome models.Outcome) error {
	state := models.GrantIssued
	if outcome == models.OutcomeCompleted {
		state = models.GrantRedeemed
	}

	res, err := finalizeScript.Run(ctx, s.client,
		[]string{grantKeyPrefix + handle.Token},
		strconv.FormatInt(handle.Attempt, 10), string(state),
	).Text()
	if err != nil {
		return fmt.Errorf("finalize grant: %w", err)
	}

	switch res {
	case "ok":
		return nil
	case "not_found":
		return models.ErrGrantNotFound
	case "stale":
		return models.ErrStaleHandle
	default:
		return fmt.Errorf("finalize grant: unexpected reply %q", res)
	}
}

// SweepExpired is a no-op: Redis expires grant keys at their deadline.
func (s *RedisGrantStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func num(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}
