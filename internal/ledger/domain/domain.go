// Package domain holds the order ledger's core types. The ledger is the
// source of truth the engine reads from: customers and paid-order facts.
// Orders are insert-only; a canceled or unpaid order never reaches the ledger.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a buyer known to the operation.
type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}

// PaidOrder is an immutable paid-order fact from the checkout pipeline.
type PaidOrder struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	TotalCents int64
	Channel    string
	PaidAt     time.Time
	RecordedAt time.Time
}
