// Package inapp persists in-app operator notifications.
package inapp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is one in-app notification row.
type Notification struct {
	ID        uuid.UUID
	Title     string
	Body      string
	CreatedAt time.Time
	ReadAt    *time.Time
}

// Repository provides notification persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new notification repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new notification.
func (r *Repository) Insert(ctx context.Context, n Notification) error {
	query := `
		INSERT INTO notifications (id, title, body, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, query, n.ID, n.Title, n.Body, n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListRecent returns the newest notifications first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, title, body, created_at, read_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead stamps a notification as read; already-read rows are untouched.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE notifications SET read_at = $2 WHERE id = $1 AND read_at IS NULL`

	if _, err := r.pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
