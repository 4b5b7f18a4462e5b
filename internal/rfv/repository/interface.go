package repository

import (
	"context"
	"time"

	"rfv_copilot_backend/internal/rfv/domain"

	"github.com/google/uuid"
)

// TaskFilter narrows the operator task feed.
type TaskFilter struct {
	Status   *domain.Status
	Priority *domain.Priority
	TaskDate *time.Time
	Limit    int
	Offset   int
}

// TaskWithCustomer is a task row joined with the customer's display fields
// and current segment for the operator feed.
type TaskWithCustomer struct {
	Task          domain.Task
	CustomerName  string
	CustomerPhone string
	Segment       domain.Segment
}

// Snapshots persists per-customer metric snapshots, replace-on-write.
type Snapshots interface {
	// Replace upserts all snapshots; each customer's row is fully
	// overwritten. Last writer wins: snapshots are a pure function of
	// the ledger, so concurrent runs converge.
	Replace(ctx context.Context, snapshots []domain.Snapshot) error
	// Get returns the current snapshot for a customer.
	Get(ctx context.Context, customerID uuid.UUID) (domain.Snapshot, error)
	// SegmentSummary counts customers per segment.
	SegmentSummary(ctx context.Context) (map[domain.Segment]int, error)
}

// Tasks persists outreach tasks under the (customer_id, task_date)
// uniqueness rule.
type Tasks interface {
	// InsertIfAbsent inserts a task unless one already exists for the
	// customer and day. Returns false on the silent no-op path.
	InsertIfAbsent(ctx context.Context, task domain.Task) (bool, error)
	// Get returns one task joined with customer display fields.
	Get(ctx context.Context, id uuid.UUID) (TaskWithCustomer, error)
	// List returns the operator feed page plus the total row count.
	List(ctx context.Context, filter TaskFilter) ([]TaskWithCustomer, int, error)
	// UpdateStatus transitions a task only if it still is in the expected
	// status; returns false when the row moved concurrently.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.Status, executedAt *time.Time, executedBy *string) (bool, error)
	// ListAttributable returns acted-upon, unconverted tasks.
	ListAttributable(ctx context.Context) ([]domain.Task, error)
	// Convert closes a task as converteu, guarded by converted_order_id
	// IS NULL so attribution is written exactly once.
	Convert(ctx context.Context, taskID, orderID uuid.UUID, revenueCents int64, paidAt time.Time) (bool, error)
}

// Templates stores operator-editable message bodies.
type Templates interface {
	Get(ctx context.Context, taskType domain.TaskType, channel domain.ChannelContext) (domain.Template, error)
	Upsert(ctx context.Context, tpl domain.Template) error
	List(ctx context.Context) ([]domain.Template, error)
}
