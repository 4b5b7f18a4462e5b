// Package repository persists the order ledger in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rfv_copilot_backend/internal/ledger/domain"
	"rfv_copilot_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fkViolationCode = "23503"

// Repository provides ledger persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new ledger repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateCustomer inserts a new customer.
func (r *Repository) CreateCustomer(ctx context.Context, customer domain.Customer) error {
	query := `
		INSERT INTO customers (id, name, phone, email, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.pool.Exec(ctx, query,
		customer.ID, customer.Name, customer.Phone, customer.Email, customer.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("customer already exists")
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// GetCustomer returns one customer by ID.
func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (domain.Customer, error) {
	query := `SELECT id, name, phone, email, created_at FROM customers WHERE id = $1`

	var c domain.Customer
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Customer{}, apperr.NotFound("customer not found")
		}
		return domain.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns all customers ordered by name.
func (r *Repository) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	query := `SELECT id, name, phone, email, created_at FROM customers ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// InsertPaidOrder records a paid-order fact. The primary key makes re-delivery
// of the same webhook a silent no-op; returns false on that path.
func (r *Repository) InsertPaidOrder(ctx context.Context, order domain.PaidOrder) (bool, error) {
	query := `
		INSERT INTO paid_orders (id, customer_id, total_cents, channel, paid_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		order.ID, order.CustomerID, order.TotalCents, order.Channel, order.PaidAt, order.RecordedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolationCode {
			return false, apperr.NotFound("customer not found")
		}
		return false, fmt.Errorf("insert paid order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListPaidOrdersByCustomer returns a customer's paid orders, oldest first.
func (r *Repository) ListPaidOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.PaidOrder, error) {
	query := `
		SELECT id, customer_id, total_cents, channel, paid_at, recorded_at
		FROM paid_orders
		WHERE customer_id = $1
		ORDER BY paid_at ASC`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list paid orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// AllPaidOrdersGrouped returns every paid order grouped by customer, for the
// recalculation pass.
func (r *Repository) AllPaidOrdersGrouped(ctx context.Context) (map[uuid.UUID][]domain.PaidOrder, error) {
	query := `
		SELECT id, customer_id, total_cents, channel, paid_at, recorded_at
		FROM paid_orders
		ORDER BY customer_id, paid_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load paid orders: %w", err)
	}
	defer rows.Close()

	grouped := make(map[uuid.UUID][]domain.PaidOrder)
	for rows.Next() {
		var o domain.PaidOrder
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalCents, &o.Channel, &o.PaidAt, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan paid order: %w", err)
		}
		grouped[o.CustomerID] = append(grouped[o.CustomerID], o)
	}
	return grouped, rows.Err()
}

// EarliestPaidOrderAfter returns the customer's earliest order paid strictly
// after the given instant, or nil when none exists.
func (r *Repository) EarliestPaidOrderAfter(ctx context.Context, customerID uuid.UUID, after time.Time) (*domain.PaidOrder, error) {
	query := `
		SELECT id, customer_id, total_cents, channel, paid_at, recorded_at
		FROM paid_orders
		WHERE customer_id = $1 AND paid_at > $2
		ORDER BY paid_at ASC
		LIMIT 1`

	var o domain.PaidOrder
	err := r.pool.QueryRow(ctx, query, customerID, after).Scan(
		&o.ID, &o.CustomerID, &o.TotalCents, &o.Channel, &o.PaidAt, &o.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("earliest paid order after: %w", err)
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]domain.PaidOrder, error) {
	orders := make([]domain.PaidOrder, 0)
	for rows.Next() {
		var o domain.PaidOrder
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalCents, &o.Channel, &o.PaidAt, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan paid order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
