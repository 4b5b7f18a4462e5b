// Package rfv provides the customer recurrence engine module: metric
// snapshots, daily outreach tasks, and revenue attribution.
package rfv

import (
	"fmt"

	apphttp "rfv_copilot_backend/internal/http"
	"rfv_copilot_backend/internal/rfv/handler"
	"rfv_copilot_backend/internal/rfv/policy"
	"rfv_copilot_backend/internal/rfv/repository"
	"rfv_copilot_backend/internal/rfv/service"
	"rfv_copilot_backend/platform/config"
	"rfv_copilot_backend/platform/events"
	"rfv_copilot_backend/platform/logger"
	platformmetrics "rfv_copilot_backend/platform/metrics"
	"rfv_copilot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig combines the config interfaces the engine module needs.
type ModuleConfig interface {
	config.EngineConfig
	config.PhoneConfig
}

// Module represents the RFV engine domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new engine module with all dependencies wired.
// The ledger reader is injected by the composition root to keep this module
// decoupled from the ledger's internals.
func NewModule(pool *pgxpool.Pool, ledger service.LedgerReader, cfg ModuleConfig, eventBus *events.InMemoryBus, reg *platformmetrics.Registry, val *validator.Validator, log *logger.Logger) (*Module, error) {
	pol, err := policy.Load(cfg.GetPolicyPath())
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	svc := service.New(service.Config{
		PostPurchaseDays: cfg.GetPostPurchaseDays(),
		TaskExpiryDays:   cfg.GetTaskExpiryDays(),
		PhoneRegion:      cfg.GetDefaultPhoneRegion(),
		Policy:           pol,
	}, ledger, repository.NewSnapshots(pool), repository.NewTasks(pool), repository.NewTemplates(pool), log)

	if eventBus != nil {
		svc.SetEventBus(eventBus)
	}
	if reg != nil {
		svc.SetMetrics(reg)
	}

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "rfv"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rfvGroup := ctx.Protected.Group("/rfv")
	m.handler.RegisterRoutes(rfvGroup, ctx.TriggerRateLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
