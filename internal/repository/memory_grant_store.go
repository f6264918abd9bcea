package repository

import (
	"context"
	"sync"
	"time"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

// DefaultTransferLease caps how long one download may hold a grant in flight.
const DefaultTransferLease = 15 * time.Minute

// MemoryGrantStore keeps grants in process memory behind a single mutex.
// The lock is held only for the in-memory transition.
type MemoryGrantStore struct {
	mu        sync.Mutex
	grants    map[string]*models.Grant
	byPayment map[string]string
	ttl       time.Duration
	lease     time.Duration
	now       func() time.Time
	newToken  func() (string, error)
}

func NewMemoryGrantStore(ttl time.Duration) *MemoryGrantStore {
	return &MemoryGrantStore{
		grants:    make(map[string]*models.Grant),
		byPayment: make(map[string]string),
		ttl:       ttl,
		lease:     DefaultTransferLease,
		now:       time.Now,
		newToken:  NewToken,
	}
}

// SetTransferLease sets how long a redeemed grant stays in flight before
// another redeem may take it over.
func (s *MemoryGrantStore) SetTransferLease(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.lease = d
	}
}

func (s *MemoryGrantStore) Issue(ctx context.Context, paymentID, orderID string) (models.Grant, bool, error) {
	// Generate outside the lock; discarded if a live grant already exists.
	token, err := s.newToken()
	if err != nil {
		return models.Grant{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.byPayment[paymentID]; ok {
		if g, ok := s.grants[existing]; ok {
			if !g.Expired(now) {
				return *g, false, nil
			}
			delete(s.grants, existing)
		}
		delete(s.byPayment, paymentID)
	}

	g := &models.Grant{
		Token:     token,
		PaymentID: paymentID,
		OrderID:   orderID,
		State:     models.GrantIssued,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.grants[token] = g
	s.byPayment[paymentID] = token
	return *g, true, nil
}

func (s *MemoryGrantStore) Lookup(ctx context.Context, paymentID string) (models.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[s.byPayment[paymentID]]
	if !ok || g.Expired(s.now()) {
		return models.Grant{}, models.ErrGrantNotFound
	}
	return *g, nil
}

func (s *MemoryGrantStore) Redeem(ctx context.Context, token string) (models.GrantHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[token]
	if !ok {
		return models.GrantHandle{}, models.ErrGrantNotFound
	}
	now := s.now()
	if g.Expired(now) {
		s.evict(g)
		return models.GrantHandle{}, models.ErrGrantExpired
	}

	switch g.State {
	case models.GrantRedeemed:
		return models.GrantHandle{}, models.ErrGrantAlreadyUsed
	case models.GrantInFlight:
		if !now.After(g.LeaseUntil) {
			return models.GrantHandle{}, models.ErrGrantInProgress
		}
		// lease lapsed; the bumped attempt makes the old handle stale
	}

	g.State = models.GrantInFlight
	g.Attempt++
	g.LeaseUntil = now.Add(s.lease)
	return models.GrantHandle{Token: g.Token, PaymentID: g.PaymentID, Attempt: g.Attempt}, nil
}

func (s *MemoryGrantStore) Finalize(ctx context.Context, handle models.GrantHandle, outcome models.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[handle.Token]
	if !ok {
		return models.ErrGrantNotFound
	}
	if g.State != models.GrantInFlight || g.Attempt != handle.Attempt {
		return models.ErrStaleHandle
	}

	if outcome == models.OutcomeCompleted {
		g.State = models.GrantRedeemed
	} else {
		g.State = models.GrantIssued
	}
	g.LeaseUntil = time.Time{}
	return nil
}

func (s *MemoryGrantStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, g := range s.grants {
		if g.Expired(now) {
			s.evict(g)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of grants currently held.
func (s *MemoryGrantStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grants)
}

func (s *MemoryGrantStore) evict(g *models.Grant) {
	delete(s.grants, g.Token)
	if s.byPayment[g.PaymentID] == g.Token {
		delete(s.byPayment, g.PaymentID)
	}
}
