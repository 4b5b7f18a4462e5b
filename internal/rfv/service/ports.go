package service

import (
	"context"
	"time"

	"rfv_copilot_backend/internal/rfv/domain"

	"github.com/google/uuid"
)

// LedgerReader is the engine's read-only view of the order ledger. The
// ledger module implements it through an adapter; the engine never writes
// orders.
type LedgerReader interface {
	// PaidOrdersByCustomer returns every paid order grouped by customer.
	PaidOrdersByCustomer(ctx context.Context) (map[uuid.UUID][]domain.Order, error)
	// EarliestPaidOrderAfter returns the customer's earliest order paid
	// strictly after the given instant, or nil when none exists.
	EarliestPaidOrderAfter(ctx context.Context, customerID uuid.UUID, after time.Time) (*domain.Order, error)
	// CustomerNames returns display names keyed by customer ID.
	CustomerNames(ctx context.Context) (map[uuid.UUID]string, error)
}
