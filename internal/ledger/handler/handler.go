// Package handler exposes the ledger module over HTTP.
package handler

import (
	"net/http"

	"rfv_copilot_backend/internal/ledger/service"
	"rfv_copilot_backend/internal/ledger/transport"
	"rfv_copilot_backend/platform/httpkit"
	"rfv_copilot_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid customer ID"
)

// Handler handles HTTP requests for the order ledger.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new ledger handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the ledger routes.
func (h *Handler) RegisterRoutes(customers, orders *gin.RouterGroup) {
	customers.POST("", h.CreateCustomer)
	customers.GET("", h.ListCustomers)
	customers.GET("/:id", h.GetCustomer)
	customers.GET("/:id/orders", h.ListCustomerOrders)

	orders.POST("", h.RecordPaidOrder)
}

// CreateCustomer registers a new customer.
// POST /api/v1/customers
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req transport.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	customer, err := h.svc.CreateCustomer(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToCustomerResponse(customer))
}

// ListCustomers returns all customers.
// GET /api/v1/customers
func (h *Handler) ListCustomers(c *gin.Context) {
	customers, err := h.svc.ListCustomers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.CustomerResponse, 0, len(customers))
	for _, customer := range customers {
		items = append(items, transport.ToCustomerResponse(customer))
	}
	httpkit.OK(c, transport.CustomerListResponse{Items: items, Total: len(items)})
}

// GetCustomer returns one customer.
// GET /api/v1/customers/:id
func (h *Handler) GetCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	customer, err := h.svc.GetCustomer(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCustomerResponse(customer))
}

// ListCustomerOrders returns a customer's paid orders.
// GET /api/v1/customers/:id/orders
func (h *Handler) ListCustomerOrders(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	orders, err := h.svc.ListCustomerOrders(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.PaidOrderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, transport.ToPaidOrderResponse(o))
	}
	httpkit.OK(c, transport.OrderListResponse{Items: items, Total: len(items)})
}

// RecordPaidOrder accepts a paid-order fact from the checkout pipeline.
// POST /api/v1/orders
func (h *Handler) RecordPaidOrder(c *gin.Context) {
	var req transport.PaidOrderWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	recorded, err := h.svc.RecordPaidOrder(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.WebhookResponse{Recorded: recorded})
}
