// Package service orchestrates the RFV engine: the recalculation and
// attribution batch passes, the operator task feed, and the template store.
package service

import (
	"time"

	"rfv_copilot_backend/internal/events"
	"rfv_copilot_backend/internal/rfv/metrics"
	"rfv_copilot_backend/internal/rfv/policy"
	"rfv_copilot_backend/internal/rfv/repository"
	platformmetrics "rfv_copilot_backend/platform/metrics"

	"rfv_copilot_backend/platform/logger"
)

// Config carries the engine's tuning knobs.
type Config struct {
	// PostPurchaseDays is the D+N offset for pos_compra follow-ups.
	PostPurchaseDays int
	// TaskExpiryDays is how long a generated task stays actionable.
	TaskExpiryDays int
	// PhoneRegion is the default region for WhatsApp link normalization.
	PhoneRegion string
	// Policy is the segmentation and threshold policy table.
	Policy policy.Policy
}

// Service implements the engine use cases.
type Service struct {
	cfg        Config
	ledger     LedgerReader
	snapshots  repository.Snapshots
	tasks      repository.Tasks
	templates  repository.Templates
	calculator *metrics.Calculator
	log        *logger.Logger

	bus     events.Bus
	metrics *platformmetrics.Registry
	now     func() time.Time
}

// New creates a new engine service.
func New(cfg Config, ledger LedgerReader, snapshots repository.Snapshots, tasks repository.Tasks, templates repository.Templates, log *logger.Logger) *Service {
	return &Service{
		cfg:        cfg,
		ledger:     ledger,
		snapshots:  snapshots,
		tasks:      tasks,
		templates:  templates,
		calculator: metrics.NewCalculator(cfg.Policy),
		log:        log,
		now:        time.Now,
	}
}

// SetEventBus wires the domain event bus.
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

// SetMetrics wires the Prometheus registry.
func (s *Service) SetMetrics(reg *platformmetrics.Registry) {
	s.metrics = reg
}

// SetClock overrides the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
