// Package adapters provides anti-corruption adapters for cross-module
// communication, so each module depends only on its own port interfaces.
package adapters

import (
	"context"
	"time"

	ledgerdomain "rfv_copilot_backend/internal/ledger/domain"
	ledgerrepo "rfv_copilot_backend/internal/ledger/repository"
	rfvdomain "rfv_copilot_backend/internal/rfv/domain"
	rfvservice "rfv_copilot_backend/internal/rfv/service"

	"github.com/google/uuid"
)

// LedgerReader adapts the ledger repository to the RFV engine's read port.
type LedgerReader struct {
	repo *ledgerrepo.Repository
}

// NewLedgerReader creates the adapter.
func NewLedgerReader(repo *ledgerrepo.Repository) *LedgerReader {
	return &LedgerReader{repo: repo}
}

var _ rfvservice.LedgerReader = (*LedgerReader)(nil)

// PaidOrdersByCustomer returns every paid order grouped by customer.
func (a *LedgerReader) PaidOrdersByCustomer(ctx context.Context) (map[uuid.UUID][]rfvdomain.Order, error) {
	grouped, err := a.repo.AllPaidOrdersGrouped(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID][]rfvdomain.Order, len(grouped))
	for customerID, orders := range grouped {
		converted := make([]rfvdomain.Order, 0, len(orders))
		for _, o := range orders {
			converted = append(converted, toEngineOrder(o))
		}
		result[customerID] = converted
	}
	return result, nil
}

// EarliestPaidOrderAfter returns the customer's earliest order paid strictly
// after the given instant.
func (a *LedgerReader) EarliestPaidOrderAfter(ctx context.Context, customerID uuid.UUID, after time.Time) (*rfvdomain.Order, error) {
	order, err := a.repo.EarliestPaidOrderAfter(ctx, customerID, after)
	if err != nil || order == nil {
		return nil, err
	}
	converted := toEngineOrder(*order)
	return &converted, nil
}

// CustomerNames returns display names keyed by customer ID.
func (a *LedgerReader) CustomerNames(ctx context.Context) (map[uuid.UUID]string, error) {
	customers, err := a.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	return names, nil
}

func toEngineOrder(o ledgerdomain.PaidOrder) rfvdomain.Order {
	return rfvdomain.Order{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		TotalCents: o.TotalCents,
		PaidAt:     o.PaidAt,
		Channel:    rfvdomain.Channel(o.Channel),
	}
}
