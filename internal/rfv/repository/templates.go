package repository

import (
	"context"
	"errors"
	"fmt"

	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TemplateRepo implements Templates with PostgreSQL.
type TemplateRepo struct {
	pool *pgxpool.Pool
}

// NewTemplates creates a new template repository.
func NewTemplates(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

var _ Templates = (*TemplateRepo)(nil)

func (r *TemplateRepo) Get(ctx context.Context, taskType domain.TaskType, channel domain.ChannelContext) (domain.Template, error) {
	query := `
		SELECT task_type, channel_context, body, updated_at
		FROM rfv_templates
		WHERE task_type = $1 AND channel_context = $2`

	var tpl domain.Template
	err := r.pool.QueryRow(ctx, query, taskType, channel).Scan(
		&tpl.TaskType, &tpl.ChannelContext, &tpl.Body, &tpl.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Template{}, apperr.NotFound("template not found")
		}
		return domain.Template{}, fmt.Errorf("get template: %w", err)
	}

	return tpl, nil
}

func (r *TemplateRepo) Upsert(ctx context.Context, tpl domain.Template) error {
	query := `
		INSERT INTO rfv_templates (task_type, channel_context, body, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (task_type, channel_context) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.pool.Exec(ctx, query, tpl.TaskType, tpl.ChannelContext, tpl.Body, tpl.UpdatedAt); err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

func (r *TemplateRepo) List(ctx context.Context) ([]domain.Template, error) {
	query := `
		SELECT task_type, channel_context, body, updated_at
		FROM rfv_templates
		ORDER BY task_type, channel_context`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]domain.Template, 0)
	for rows.Next() {
		var tpl domain.Template
		if err := rows.Scan(&tpl.TaskType, &tpl.ChannelContext, &tpl.Body, &tpl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, tpl)
	}

	return templates, rows.Err()
}
