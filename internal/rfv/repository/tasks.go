package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskNotFoundMessage = "task not found"

// TaskRepo implements Tasks with PostgreSQL.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTasks creates a new task repository.
func NewTasks(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

var _ Tasks = (*TaskRepo)(nil)

const taskColumns = `t.id, t.customer_id, t.task_date, t.task_type, t.priority,
	t.reason_code, t.reason_deviation, t.reason_escalation_pct, t.reason_days, t.reason,
	t.suggested_message, t.channel_context, t.estimated_impact_cents, t.status,
	t.created_at, t.executed_at, t.executed_by, t.expires_at,
	t.revenue_generated_cents, t.converted_order_id, t.conversion_timestamp`

// InsertIfAbsent inserts a task unless one already exists for the customer
// and calendar day. The unique index on (customer_id, task_date) makes the
// duplicate path a silent no-op, which is the expected idempotent outcome.
func (r *TaskRepo) InsertIfAbsent(ctx context.Context, task domain.Task) (bool, error) {
	query := `
		INSERT INTO rfv_tasks (
			id, customer_id, task_date, task_type, priority,
			reason_code, reason_deviation, reason_escalation_pct, reason_days, reason,
			suggested_message, channel_context, estimated_impact_cents, status,
			created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (customer_id, task_date) DO NOTHING`

	reason := task.Reason
	escalationPct := 0
	days := 0
	switch typed := reason.(type) {
	case domain.PostPurchaseReason:
		days = typed.Days
	case domain.CycleExceededReason:
		escalationPct = typed.EscalationPct
	}

	tag, err := r.pool.Exec(ctx, query,
		task.ID, task.CustomerID, task.TaskDate, task.Type, task.Priority,
		reason.Code(), reason.DeviationPercent(), escalationPct, days, reason.Render(),
		task.SuggestedMessage, task.ChannelContext, task.EstimatedImpactCents, task.Status,
		task.CreatedAt, task.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert task: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Get returns one task joined with customer display fields and the
// customer's current segment.
func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (TaskWithCustomer, error) {
	query := `
		SELECT ` + taskColumns + `, c.name, c.phone, COALESCE(m.segment, '')
		FROM rfv_tasks t
		JOIN customers c ON c.id = t.customer_id
		LEFT JOIN rfv_customer_metrics m ON m.customer_id = t.customer_id
		WHERE t.id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	item, err := scanTaskWithCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TaskWithCustomer{}, apperr.NotFound(taskNotFoundMessage)
		}
		return TaskWithCustomer{}, fmt.Errorf("get task: %w", err)
	}

	return item, nil
}

// List returns a page of the operator feed plus the total row count.
func (r *TaskRepo) List(ctx context.Context, filter TaskFilter) ([]TaskWithCustomer, int, error) {
	var statusParam, priorityParam, dateParam interface{}
	if filter.Status != nil {
		statusParam = *filter.Status
	}
	if filter.Priority != nil {
		priorityParam = *filter.Priority
	}
	if filter.TaskDate != nil {
		dateParam = *filter.TaskDate
	}

	countQuery := `
		SELECT COUNT(*)
		FROM rfv_tasks t
		WHERE ($1::text IS NULL OR t.status = $1)
			AND ($2::text IS NULL OR t.priority = $2)
			AND ($3::date IS NULL OR t.task_date = $3)`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, statusParam, priorityParam, dateParam).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	query := `
		SELECT ` + taskColumns + `, c.name, c.phone, COALESCE(m.segment, '')
		FROM rfv_tasks t
		JOIN customers c ON c.id = t.customer_id
		LEFT JOIN rfv_customer_metrics m ON m.customer_id = t.customer_id
		WHERE ($1::text IS NULL OR t.status = $1)
			AND ($2::text IS NULL OR t.priority = $2)
			AND ($3::date IS NULL OR t.task_date = $3)
		ORDER BY
			CASE t.priority
				WHEN 'critico' THEN 0
				WHEN 'importante' THEN 1
				ELSE 2
			END,
			t.task_date DESC,
			t.created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, statusParam, priorityParam, dateParam, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	items := make([]TaskWithCustomer, 0)
	for rows.Next() {
		item, err := scanTaskWithCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		items = append(items, item)
	}

	return items, total, rows.Err()
}

// UpdateStatus transitions a task, guarded by the expected current status so
// concurrent operators cannot both win the same transition.
func (r *TaskRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.Status, executedAt *time.Time, executedBy *string) (bool, error) {
	query := `
		UPDATE rfv_tasks
		SET status = $3, executed_at = $4, executed_by = $5
		WHERE id = $1 AND status = $2`

	tag, err := r.pool.Exec(ctx, query, id, expected, next, executedAt, executedBy)
	if err != nil {
		return false, fmt.Errorf("update task status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListAttributable returns acted-upon, non-terminal tasks that have no
// conversion bound yet.
func (r *TaskRepo) ListAttributable(ctx context.Context) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM rfv_tasks t
		WHERE t.status = ANY($1)
			AND t.executed_at IS NOT NULL
			AND t.converted_order_id IS NULL
		ORDER BY t.executed_at ASC`

	statuses := make([]string, 0)
	for _, s := range domain.AttributableStatuses() {
		statuses = append(statuses, string(s))
	}

	rows, err := r.pool.Query(ctx, query, statuses)
	if err != nil {
		return nil, fmt.Errorf("list attributable tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attributable task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// Convert closes a task as converteu. The converted_order_id IS NULL guard
// makes attribution a write-once operation: re-runs and concurrent passes
// cannot double-credit revenue.
func (r *TaskRepo) Convert(ctx context.Context, taskID, orderID uuid.UUID, revenueCents int64, paidAt time.Time) (bool, error) {
	query := `
		UPDATE rfv_tasks
		SET status = $2,
			revenue_generated_cents = $3,
			converted_order_id = $4,
			conversion_timestamp = $5
		WHERE id = $1 AND converted_order_id IS NULL`

	tag, err := r.pool.Exec(ctx, query, taskID, domain.StatusConverteu, revenueCents, orderID, paidAt)
	if err != nil {
		return false, fmt.Errorf("convert task: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var task domain.Task
	var reasonCode, reasonText string
	var reasonDeviation float64
	var reasonEscalation, reasonDays int

	err := row.Scan(
		&task.ID, &task.CustomerID, &task.TaskDate, &task.Type, &task.Priority,
		&reasonCode, &reasonDeviation, &reasonEscalation, &reasonDays, &reasonText,
		&task.SuggestedMessage, &task.ChannelContext, &task.EstimatedImpactCents, &task.Status,
		&task.CreatedAt, &task.ExecutedAt, &task.ExecutedBy, &task.ExpiresAt,
		&task.RevenueGeneratedCents, &task.ConvertedOrderID, &task.ConversionTimestamp,
	)
	if err != nil {
		return domain.Task{}, err
	}

	task.Reason = domain.ReasonFromRecord(reasonCode, reasonDeviation, reasonEscalation, reasonDays)
	return task, nil
}

func scanTaskWithCustomer(row rowScanner) (TaskWithCustomer, error) {
	var task domain.Task
	var item TaskWithCustomer
	var reasonCode, reasonText string
	var reasonDeviation float64
	var reasonEscalation, reasonDays int

	err := row.Scan(
		&task.ID, &task.CustomerID, &task.TaskDate, &task.Type, &task.Priority,
		&reasonCode, &reasonDeviation, &reasonEscalation, &reasonDays, &reasonText,
		&task.SuggestedMessage, &task.ChannelContext, &task.EstimatedImpactCents, &task.Status,
		&task.CreatedAt, &task.ExecutedAt, &task.ExecutedBy, &task.ExpiresAt,
		&task.RevenueGeneratedCents, &task.ConvertedOrderID, &task.ConversionTimestamp,
		&item.CustomerName, &item.CustomerPhone, &item.Segment,
	)
	if err != nil {
		return TaskWithCustomer{}, err
	}

	task.Reason = domain.ReasonFromRecord(reasonCode, reasonDeviation, reasonEscalation, reasonDays)
	item.Task = task
	return item, nil
}
