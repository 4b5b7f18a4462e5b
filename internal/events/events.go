// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"rfv_copilot_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Ledger Domain Events
// =============================================================================

// PaidOrderRecorded is published when the ledger accepts a new paid order fact.
type PaidOrderRecorded struct {
	BaseEvent
	OrderID    uuid.UUID `json:"orderId"`
	CustomerID uuid.UUID `json:"customerId"`
	TotalCents int64     `json:"totalCents"`
	Channel    string    `json:"channel"`
	PaidAt     time.Time `json:"paidAt"`
}

func (e PaidOrderRecorded) EventName() string { return "ledger.order.recorded" }

// =============================================================================
// RFV Engine Events
// =============================================================================

// RecalculationCompleted is published after a full recalculation pass,
// successful or not. The notification module turns it into the operator
// digest.
type RecalculationCompleted struct {
	BaseEvent
	Snapshots       int            `json:"snapshots"`
	TasksGenerated  int            `json:"tasksGenerated"`
	TasksByPriority map[string]int `json:"tasksByPriority"`
	Duration        time.Duration  `json:"duration"`
}

func (e RecalculationCompleted) EventName() string { return "rfv.recalculation.completed" }

// TaskStatusChanged is published when an operator moves a task through the
// state machine.
type TaskStatusChanged struct {
	BaseEvent
	TaskID     uuid.UUID `json:"taskId"`
	CustomerID uuid.UUID `json:"customerId"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OperatorID uuid.UUID `json:"operatorId"`
}

func (e TaskStatusChanged) EventName() string { return "rfv.task.status_changed" }

// RevenueAttributed is published when the attribution pass binds a paid order
// to an executed task.
type RevenueAttributed struct {
	BaseEvent
	TaskID       uuid.UUID `json:"taskId"`
	CustomerID   uuid.UUID `json:"customerId"`
	OrderID      uuid.UUID `json:"orderId"`
	RevenueCents int64     `json:"revenueCents"`
}

func (e RevenueAttributed) EventName() string { return "rfv.revenue.attributed" }
