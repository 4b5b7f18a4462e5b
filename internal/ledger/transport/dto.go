// Package transport defines the ledger module's request and response shapes.
package transport

import (
	"time"

	"rfv_copilot_backend/internal/ledger/domain"

	"github.com/google/uuid"
)

// CreateCustomerRequest contains data for registering a new customer.
type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Phone string `json:"phone" validate:"required,min=8,max=32"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
}

// PaidOrderWebhookRequest is the paid-order fact posted by the checkout
// pipeline. order_id is the idempotency key across re-deliveries.
type PaidOrderWebhookRequest struct {
	OrderID    uuid.UUID `json:"orderId" validate:"required"`
	CustomerID uuid.UUID `json:"customerId" validate:"required"`
	TotalCents int64     `json:"totalCents" validate:"required"`
	Channel    string    `json:"channel" validate:"required,oneof=live site"`
	PaidAt     time.Time `json:"paidAt" validate:"required"`
}

// CustomerResponse represents a customer in API responses.
type CustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CustomerListResponse wraps a list of customers.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Total int                `json:"total"`
}

// PaidOrderResponse represents a paid order in API responses.
type PaidOrderResponse struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customerId"`
	TotalCents int64     `json:"totalCents"`
	Channel    string    `json:"channel"`
	PaidAt     time.Time `json:"paidAt"`
}

// OrderListResponse wraps a customer's paid orders.
type OrderListResponse struct {
	Items []PaidOrderResponse `json:"items"`
	Total int                 `json:"total"`
}

// WebhookResponse reports the outcome of a paid-order webhook delivery.
type WebhookResponse struct {
	Recorded bool `json:"recorded"`
}

// ToCustomerResponse converts a domain customer.
func ToCustomerResponse(c domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}

// ToPaidOrderResponse converts a domain paid order.
func ToPaidOrderResponse(o domain.PaidOrder) PaidOrderResponse {
	return PaidOrderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		TotalCents: o.TotalCents,
		Channel:    o.Channel,
		PaidAt:     o.PaidAt,
	}
}
