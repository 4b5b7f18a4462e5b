// Package transport defines the RFV engine's request and response shapes.
package transport

import (
	"time"

	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/internal/rfv/repository"

	"github.com/google/uuid"
)

// ListTasksRequest filters the operator task feed.
type ListTasksRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=pendente enviado respondeu sem_resposta converteu skipped"`
	Priority string `form:"priority" validate:"omitempty,oneof=oportunidade importante critico"`
	Date     string `form:"date" validate:"omitempty,datetime=2006-01-02"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" validate:"omitempty,min=0"`
}

// UpdateTaskStatusRequest moves a task through the state machine.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pendente enviado respondeu sem_resposta skipped"`
}

// UpsertTemplateRequest creates or replaces a message template.
type UpsertTemplateRequest struct {
	TaskType       string `json:"taskType" validate:"required,oneof=pos_compra preventivo reativacao"`
	ChannelContext string `json:"channelContext" validate:"required,oneof=live site hybrid general"`
	Body           string `json:"body" validate:"required,min=1,max=2000"`
}

// TaskResponse represents a task in the operator feed.
type TaskResponse struct {
	ID                   uuid.UUID  `json:"id"`
	CustomerID           uuid.UUID  `json:"customerId"`
	CustomerName         string     `json:"customerName"`
	CustomerPhone        string     `json:"customerPhone"`
	Segment              string     `json:"segment,omitempty"`
	TaskDate             string     `json:"taskDate"`
	Type                 string     `json:"type"`
	Priority             string     `json:"priority"`
	Reason               string     `json:"reason"`
	SuggestedMessage     string     `json:"suggestedMessage"`
	ChannelContext       string     `json:"channelContext"`
	EstimatedImpactCents int64      `json:"estimatedImpactCents"`
	Status               string     `json:"status"`
	WhatsAppLink         string     `json:"whatsappLink,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	ExecutedAt           *time.Time `json:"executedAt,omitempty"`
	ExecutedBy           *string    `json:"executedBy,omitempty"`
	ExpiresAt            time.Time  `json:"expiresAt"`
	RevenueCents         int64      `json:"revenueGeneratedCents"`
	ConvertedOrderID     *uuid.UUID `json:"convertedOrderId,omitempty"`
	ConversionTimestamp  *time.Time `json:"conversionTimestamp,omitempty"`
}

// TaskListResponse wraps a page of the task feed.
type TaskListResponse struct {
	Items  []TaskResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// SnapshotResponse represents a customer's current RFV metrics.
type SnapshotResponse struct {
	CustomerID            uuid.UUID `json:"customerId"`
	RecencyDays           int       `json:"recencyDays"`
	Frequency             int       `json:"frequency"`
	MonetaryValueCents    int64     `json:"monetaryValueCents"`
	AvgTicketCents        int64     `json:"avgTicketCents"`
	CycleAvgDays          *float64  `json:"cycleAvgDays,omitempty"`
	CycleStdDevDays       *float64  `json:"cycleStdDevDays,omitempty"`
	CycleDeviationPercent *float64  `json:"cycleDeviationPercent,omitempty"`
	RScore                int       `json:"rScore"`
	FScore                int       `json:"fScore"`
	VScore                int       `json:"vScore"`
	Segment               string    `json:"segment"`
	ChurnRisk             string    `json:"churnRisk"`
	PreferredChannel      string    `json:"preferredChannel"`
	RepurchaseProbability int       `json:"repurchaseProbability"`
	CalculatedAt          time.Time `json:"calculatedAt"`
}

// SegmentSummaryResponse is the customer count per segment.
type SegmentSummaryResponse struct {
	Segments map[string]int `json:"segments"`
	Total    int            `json:"total"`
}

// TemplateResponse represents a message template.
type TemplateResponse struct {
	TaskType       string    `json:"taskType"`
	ChannelContext string    `json:"channelContext"`
	Body           string    `json:"body"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TemplateListResponse wraps all templates.
type TemplateListResponse struct {
	Items []TemplateResponse `json:"items"`
	Total int                `json:"total"`
}

// RecalculateResponse reports a recalculation pass.
type RecalculateResponse struct {
	Snapshots       int            `json:"snapshots"`
	TasksGenerated  int            `json:"tasksGenerated"`
	TasksByPriority map[string]int `json:"tasksByPriority"`
}

// AttributionResponse reports an attribution pass.
type AttributionResponse struct {
	TasksConverted       int   `json:"tasksConverted"`
	RevenueCreditedCents int64 `json:"revenueCreditedCents"`
}

// ToTaskResponse converts a joined task row; whatsappLink is computed by the
// caller because it needs the service's phone region.
func ToTaskResponse(item repository.TaskWithCustomer, whatsappLink string) TaskResponse {
	task := item.Task
	return TaskResponse{
		ID:                   task.ID,
		CustomerID:           task.CustomerID,
		CustomerName:         item.CustomerName,
		CustomerPhone:        item.CustomerPhone,
		Segment:              string(item.Segment),
		TaskDate:             task.TaskDate.Format("2006-01-02"),
		Type:                 string(task.Type),
		Priority:             string(task.Priority),
		Reason:               task.Reason.Render(),
		SuggestedMessage:     task.SuggestedMessage,
		ChannelContext:       string(task.ChannelContext),
		EstimatedImpactCents: task.EstimatedImpactCents,
		Status:               string(task.Status),
		WhatsAppLink:         whatsappLink,
		CreatedAt:            task.CreatedAt,
		ExecutedAt:           task.ExecutedAt,
		ExecutedBy:           task.ExecutedBy,
		ExpiresAt:            task.ExpiresAt,
		RevenueCents:         task.RevenueGeneratedCents,
		ConvertedOrderID:     task.ConvertedOrderID,
		ConversionTimestamp:  task.ConversionTimestamp,
	}
}

// ToSnapshotResponse converts a domain snapshot.
func ToSnapshotResponse(s domain.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		CustomerID:            s.CustomerID,
		RecencyDays:           s.RecencyDays,
		Frequency:             s.Frequency,
		MonetaryValueCents:    s.MonetaryValueCents,
		AvgTicketCents:        s.AvgTicketCents,
		CycleAvgDays:          s.CycleAvgDays,
		CycleStdDevDays:       s.CycleStdDevDays,
		CycleDeviationPercent: s.CycleDeviationPercent,
		RScore:                s.RScore,
		FScore:                s.FScore,
		VScore:                s.VScore,
		Segment:               string(s.Segment),
		ChurnRisk:             string(s.ChurnRisk),
		PreferredChannel:      string(s.PreferredChannel),
		RepurchaseProbability: s.RepurchaseProbability,
		CalculatedAt:          s.CalculatedAt,
	}
}

// ToTemplateResponse converts a domain template.
func ToTemplateResponse(tpl domain.Template) TemplateResponse {
	return TemplateResponse{
		TaskType:       string(tpl.TaskType),
		ChannelContext: string(tpl.ChannelContext),
		Body:           tpl.Body,
		UpdatedAt:      tpl.UpdatedAt,
	}
}
