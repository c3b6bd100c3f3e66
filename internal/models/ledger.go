package models

import "time"

// DonationEntry is one applied payment-to-premium credit. Entries are
// append-only; StripeSessionID is unique across the table and is the
// idempotency key for webhook redelivery.
type DonationEntry struct {
	ID              int       `json:"id" db:"id"`
	UserID          int       `json:"userId" db:"user_id"`
	Premium         int64     `json:"premium" db:"premium"`
	AmountCents     int64     `json:"amountCents" db:"amount_cents"`
	StripeSessionID string    `json:"stripeSessionId" db:"stripe_session_id"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}
