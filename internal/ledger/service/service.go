// Package service implements ledger use cases: customer registration and the
// paid-order webhook.
package service

import (
	"context"
	"time"

	"rfv_copilot_backend/internal/events"
	"rfv_copilot_backend/internal/ledger/domain"
	"rfv_copilot_backend/internal/ledger/repository"
	"rfv_copilot_backend/internal/ledger/transport"
	"rfv_copilot_backend/platform/apperr"
	"rfv_copilot_backend/platform/phone"

	"github.com/google/uuid"
)

// Service provides ledger operations.
type Service struct {
	repo        *repository.Repository
	bus         events.Bus
	phoneRegion string
}

// New creates a new ledger service.
func New(repo *repository.Repository, phoneRegion string) *Service {
	return &Service{repo: repo, phoneRegion: phoneRegion}
}

// SetEventBus wires the domain event bus.
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

// CreateCustomer registers a new customer. The phone number is normalized to
// E.164 so WhatsApp deep links work without per-request parsing.
func (s *Service) CreateCustomer(ctx context.Context, req transport.CreateCustomerRequest) (domain.Customer, error) {
	customer := domain.Customer{
		ID:        uuid.New(),
		Name:      req.Name,
		Phone:     phone.NormalizeE164(req.Phone, s.phoneRegion),
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateCustomer(ctx, customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

// GetCustomer returns one customer.
func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// ListCustomers returns all customers.
func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// RecordPaidOrder accepts a paid-order fact from the checkout pipeline.
// Webhook re-delivery with the same order ID is accepted and ignored; the
// returned bool reports whether the order was new.
func (s *Service) RecordPaidOrder(ctx context.Context, req transport.PaidOrderWebhookRequest) (bool, error) {
	if req.TotalCents <= 0 {
		return false, apperr.Validation("order total must be positive")
	}

	order := domain.PaidOrder{
		ID:         req.OrderID,
		CustomerID: req.CustomerID,
		TotalCents: req.TotalCents,
		Channel:    req.Channel,
		PaidAt:     req.PaidAt.UTC(),
		RecordedAt: time.Now().UTC(),
	}

	inserted, err := s.repo.InsertPaidOrder(ctx, order)
	if err != nil {
		return false, err
	}

	if inserted && s.bus != nil {
		s.bus.Publish(ctx, events.PaidOrderRecorded{
			BaseEvent:  events.NewBaseEvent(),
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			TotalCents: order.TotalCents,
			Channel:    order.Channel,
			PaidAt:     order.PaidAt,
		})
	}

	return inserted, nil
}

// ListCustomerOrders returns a customer's paid orders, oldest first.
func (s *Service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]domain.PaidOrder, error) {
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListPaidOrdersByCustomer(ctx, customerID)
}
