package models

import "time"

type GrantState string

const (
	GrantIssued   GrantState = "issued"
	GrantInFlight GrantState = "in_flight"
	GrantRedeemed GrantState = "redeemed"
)

// Outcome is how a redemption ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota + 1
	OutcomeInterrupted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Grant is the one-time right to download the artifact.
type Grant struct {
	Token     string
	PaymentID string
	OrderID   string
	State     GrantState
	Attempt   int64
	CreatedAt time.Time
	ExpiresAt time.Time
	// LeaseUntil bounds an in-flight transfer; once it passes, the grant can
	// be redeemed again even if the holder never finalized.
	LeaseUntil time.Time
}

// Expired reports whether the grant is past its deadline at now.
func (g *Grant) Expired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// GrantHandle is returned by a successful redeem and must be finalized.
type GrantHandle struct {
	Token     string
	PaymentID string
	Attempt   int64
}

// TokenPrefix returns a log-safe prefix of a grant token.
func TokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}

// Attachment describes the artifact being streamed to the client.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}
