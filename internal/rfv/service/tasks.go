package service

import (
	"context"
	"time"

	"rfv_copilot_backend/internal/events"
	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/internal/rfv/repository"
	"rfv_copilot_backend/platform/apperr"
	"rfv_copilot_backend/platform/phone"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	qrImageSize     = 256
)

// ListTasks returns a page of the operator task feed.
func (s *Service) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]repository.TaskWithCustomer, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.tasks.List(ctx, filter)
}

// GetTask returns one task with customer display fields.
func (s *Service) GetTask(ctx context.Context, id uuid.UUID) (repository.TaskWithCustomer, error) {
	return s.tasks.Get(ctx, id)
}

// TransitionTask moves a task through the operator state machine. Forward
// transitions stamp executed_at and executed_by; reopening clears both.
// converteu is reserved for the attribution pass and rejected here.
func (s *Service) TransitionTask(ctx context.Context, id uuid.UUID, next domain.Status, operatorID uuid.UUID, operatorName string) (repository.TaskWithCustomer, error) {
	if !domain.ValidStatus(next) {
		return repository.TaskWithCustomer{}, apperr.Validation("unknown task status")
	}
	if next == domain.StatusConverteu {
		return repository.TaskWithCustomer{}, apperr.Forbidden("converteu is set by revenue attribution, not by operators")
	}

	current, err := s.tasks.Get(ctx, id)
	if err != nil {
		return repository.TaskWithCustomer{}, err
	}

	from := current.Task.Status
	if !domain.CanTransition(from, next) {
		return repository.TaskWithCustomer{}, apperr.Conflict("invalid transition from " + string(from) + " to " + string(next))
	}

	var executedAt *time.Time
	var executedBy *string
	if !domain.IsReopen(from, next) {
		now := s.now()
		executedAt = &now
		executedBy = &operatorName
	}

	updated, err := s.tasks.UpdateStatus(ctx, id, from, next, executedAt, executedBy)
	if err != nil {
		return repository.TaskWithCustomer{}, err
	}
	if !updated {
		return repository.TaskWithCustomer{}, apperr.Conflict("task was updated concurrently")
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.TaskStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			TaskID:     id,
			CustomerID: current.Task.CustomerID,
			From:       string(from),
			To:         string(next),
			OperatorID: operatorID,
		})
	}

	return s.tasks.Get(ctx, id)
}

// OutreachLink builds the wa.me deep link carrying the task's suggested
// message. Empty when the customer has no valid phone number.
func (s *Service) OutreachLink(item repository.TaskWithCustomer) string {
	return phone.WhatsAppLink(item.CustomerPhone, s.cfg.PhoneRegion, item.Task.SuggestedMessage)
}

// TaskQR renders the task's outreach link as a QR code PNG, for operators
// working from the store floor with a phone camera.
func (s *Service) TaskQR(ctx context.Context, id uuid.UUID) ([]byte, error) {
	item, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	link := s.OutreachLink(item)
	if link == "" {
		return nil, apperr.Validation("customer has no valid phone number for WhatsApp")
	}

	png, err := qrcode.Encode(link, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to encode QR code", err)
	}
	return png, nil
}

// ListTemplates returns all message templates.
func (s *Service) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	return s.templates.List(ctx)
}

// UpsertTemplate creates or replaces a message template.
func (s *Service) UpsertTemplate(ctx context.Context, tpl domain.Template) (domain.Template, error) {
	tpl.UpdatedAt = s.now()
	if err := s.templates.Upsert(ctx, tpl); err != nil {
		return domain.Template{}, err
	}
	return tpl, nil
}

// CustomerMetrics returns the customer's current snapshot.
func (s *Service) CustomerMetrics(ctx context.Context, customerID uuid.UUID) (domain.Snapshot, error) {
	return s.snapshots.Get(ctx, customerID)
}

// SegmentSummary returns customer counts per segment.
func (s *Service) SegmentSummary(ctx context.Context) (map[domain.Segment]int, error) {
	return s.snapshots.SegmentSummary(ctx)
}
