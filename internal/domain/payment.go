package domain

import "time"

// PaymentStatus is the outcome reported by a webhook delivery.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment is one reconciled webhook delivery. It is never updated after
// creation; idempotency_key is globally unique and is the hard
// safeguard against duplicate effects from retried webhooks.
type Payment struct {
	ID             string
	OrderID        string
	IdempotencyKey string
	Status         PaymentStatus
	CreatedAt      time.Time
}
