package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/akylbek/payment-system/guide-delivery/internal/apperr"
)

const (
	limiterIdleTTL         = 30 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

type ipLimiter struct {
	limiter *rate.Limiter
	last    time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for
// limiterIdleTTL are dropped.
type IPRateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*ipLimiter
	rps         rate.Limit
	burst       int
	lastCleanup time.Time
	now         func() time.Time
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters:    make(map[string]*ipLimiter),
		rps:         rate.Limit(rps),
		burst:       burst,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) > limiterCleanupInterval {
		for key, il := range l.limiters {
			if now.Sub(il.last) > limiterIdleTTL {
				delete(l.limiters, key)
			}
		}
		l.lastCleanup = now
	}

	il, ok := l.limiters[ip]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = il
	}
	il.last = now
	return il.limiter.AllowN(now, 1)
}

func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			Fail(c, apperr.New(apperr.TooManyRequests, "Too many requests, please slow down", nil))
			return
		}
		c.Next()
	}
}
