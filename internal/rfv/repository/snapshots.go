package repository

import (
	"context"
	"errors"
	"fmt"

	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotRepo implements Snapshots with PostgreSQL.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

// NewSnapshots creates a new snapshot repository.
func NewSnapshots(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

var _ Snapshots = (*SnapshotRepo)(nil)

const snapshotColumns = `customer_id, recency_days, frequency, monetary_value_cents, avg_ticket_cents,
	cycle_avg_days, cycle_std_dev_days, cycle_deviation_percent,
	r_score, f_score, v_score, segment, churn_risk, preferred_channel,
	repurchase_probability, calculated_at`

// Replace upserts all snapshots in one transaction so a failed run leaves no
// partially refreshed customer base behind.
func (r *SnapshotRepo) Replace(ctx context.Context, snapshots []domain.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot replace: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO rfv_customer_metrics (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (customer_id) DO UPDATE SET
			recency_days = EXCLUDED.recency_days,
			frequency = EXCLUDED.frequency,
			monetary_value_cents = EXCLUDED.monetary_value_cents,
			avg_ticket_cents = EXCLUDED.avg_ticket_cents,
			cycle_avg_days = EXCLUDED.cycle_avg_days,
			cycle_std_dev_days = EXCLUDED.cycle_std_dev_days,
			cycle_deviation_percent = EXCLUDED.cycle_deviation_percent,
			r_score = EXCLUDED.r_score,
			f_score = EXCLUDED.f_score,
			v_score = EXCLUDED.v_score,
			segment = EXCLUDED.segment,
			churn_risk = EXCLUDED.churn_risk,
			preferred_channel = EXCLUDED.preferred_channel,
			repurchase_probability = EXCLUDED.repurchase_probability,
			calculated_at = EXCLUDED.calculated_at`

	batch := &pgx.Batch{}
	for _, s := range snapshots {
		batch.Queue(query,
			s.CustomerID, s.RecencyDays, s.Frequency, s.MonetaryValueCents, s.AvgTicketCents,
			s.CycleAvgDays, s.CycleStdDevDays, s.CycleDeviationPercent,
			s.RScore, s.FScore, s.VScore, s.Segment, s.ChurnRisk, s.PreferredChannel,
			s.RepurchaseProbability, s.CalculatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range snapshots {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("upsert snapshot: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close snapshot batch: %w", err)
	}

	return tx.Commit(ctx)
}

// Get returns the current snapshot for a customer.
func (r *SnapshotRepo) Get(ctx context.Context, customerID uuid.UUID) (domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM rfv_customer_metrics WHERE customer_id = $1`

	var s domain.Snapshot
	err := r.pool.QueryRow(ctx, query, customerID).Scan(
		&s.CustomerID, &s.RecencyDays, &s.Frequency, &s.MonetaryValueCents, &s.AvgTicketCents,
		&s.CycleAvgDays, &s.CycleStdDevDays, &s.CycleDeviationPercent,
		&s.RScore, &s.FScore, &s.VScore, &s.Segment, &s.ChurnRisk, &s.PreferredChannel,
		&s.RepurchaseProbability, &s.CalculatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, apperr.NotFound("customer metrics not found")
		}
		return domain.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	return s, nil
}

// SegmentSummary counts customers per segment.
func (r *SnapshotRepo) SegmentSummary(ctx context.Context) (map[domain.Segment]int, error) {
	query := `SELECT segment, COUNT(*) FROM rfv_customer_metrics GROUP BY segment`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("segment summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[domain.Segment]int)
	for rows.Next() {
		var segment domain.Segment
		var count int
		if err := rows.Scan(&segment, &count); err != nil {
			return nil, fmt.Errorf("scan segment summary: %w", err)
		}
		summary[segment] = count
	}

	return summary, rows.Err()
}
