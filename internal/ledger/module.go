// Package ledger provides the order ledger domain module: customers and
// immutable paid-order facts.
package ledger

import (
	apphttp "rfv_copilot_backend/internal/http"
	"rfv_copilot_backend/internal/ledger/handler"
	"rfv_copilot_backend/internal/ledger/repository"
	"rfv_copilot_backend/internal/ledger/service"
	"rfv_copilot_backend/platform/events"
	"rfv_copilot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the ledger domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new ledger module with all dependencies wired
func NewModule(pool *pgxpool.Pool, eventBus *events.InMemoryBus, val *validator.Validator, phoneRegion string) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, phoneRegion)
	if eventBus != nil {
		svc.SetEventBus(eventBus)
	}
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "ledger"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	customers := ctx.Protected.Group("/customers")
	orders := ctx.Protected.Group("/orders")
	m.handler.RegisterRoutes(customers, orders)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
