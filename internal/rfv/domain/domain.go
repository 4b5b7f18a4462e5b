// Package domain provides core business rules for the RFV bounded context:
// customer segmentation vocabulary, the outreach task state machine, and the
// typed reason codes behind generated tasks.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel is the sales channel a paid order came through.
type Channel string

const (
	ChannelLive Channel = "live"
	ChannelSite Channel = "site"
)

// ChannelContext is the collapsed channel preference used to pick a message
// template for a customer.
type ChannelContext string

const (
	ChannelContextLive    ChannelContext = "live"
	ChannelContextSite    ChannelContext = "site"
	ChannelContextHybrid  ChannelContext = "hybrid"
	ChannelContextGeneral ChannelContext = "general"
)

// Segment is the RFV segment assigned to a customer.
type Segment string

const (
	SegmentCampeao    Segment = "campeao"
	SegmentFiel       Segment = "fiel"
	SegmentPromissor  Segment = "promissor"
	SegmentAtencao    Segment = "atencao"
	SegmentHibernando Segment = "hibernando"
	SegmentRisco      Segment = "risco"
	SegmentNovo       Segment = "novo"
)

// ChurnRisk is a coarse churn risk band derived from recency and cycle deviation.
type ChurnRisk string

const (
	ChurnRiskLow    ChurnRisk = "baixo"
	ChurnRiskMedium ChurnRisk = "medio"
	ChurnRiskHigh   ChurnRisk = "alto"
)

// TaskType is the kind of outreach a generated task asks for.
type TaskType string

const (
	TaskTypePosCompra  TaskType = "pos_compra"
	TaskTypePreventivo TaskType = "preventivo"
	TaskTypeReativacao TaskType = "reativacao"
)

// Priority orders tasks in the operator feed.
type Priority string

const (
	PriorityOportunidade Priority = "oportunidade"
	PriorityImportante   Priority = "importante"
	PriorityCritico      Priority = "critico"
)

// Order is the engine's read-only view of a paid order from the ledger.
// Canceled and unpaid orders never reach the engine.
type Order struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	TotalCents int64
	PaidAt     time.Time
	Channel    Channel
}

// Snapshot is the per-customer RFV metric set, replaced in full on every
// recalculation run. Cycle fields are nil when the customer has fewer than
// two paid orders: a missing cadence is not a zero cadence.
type Snapshot struct {
	CustomerID             uuid.UUID
	RecencyDays            int
	Frequency              int
	MonetaryValueCents     int64
	AvgTicketCents         int64
	CycleAvgDays           *float64
	CycleStdDevDays        *float64
	CycleDeviationPercent  *float64
	RScore                 int
	FScore                 int
	VScore                 int
	Segment                Segment
	ChurnRisk              ChurnRisk
	PreferredChannel       ChannelContext
	RepurchaseProbability  int
	CalculatedAt           time.Time
}

// HasCycle reports whether the customer has an established purchase cadence.
func (s Snapshot) HasCycle() bool {
	return s.CycleAvgDays != nil && *s.CycleAvgDays > 0
}

// Task is an outreach task for one customer on one calendar day.
// (customer_id, task_date) is the idempotency key: however many times the
// daily pass runs, at most one row exists per pair.
type Task struct {
	ID                  uuid.UUID
	CustomerID          uuid.UUID
	TaskDate            time.Time
	Type                TaskType
	Priority            Priority
	Reason              Reason
	SuggestedMessage    string
	ChannelContext      ChannelContext
	EstimatedImpactCents int64
	Status              Status
	CreatedAt           time.Time
	ExecutedAt          *time.Time
	ExecutedBy          *string
	ExpiresAt           time.Time
	RevenueGeneratedCents int64
	ConvertedOrderID    *uuid.UUID
	ConversionTimestamp *time.Time
}

// Template is an operator-editable message body keyed by task type and
// channel context.
type Template struct {
	TaskType       TaskType
	ChannelContext ChannelContext
	Body           string
	UpdatedAt      time.Time
}
