// Package handler exposes the RFV engine over HTTP: batch triggers, the
// operator task feed, templates, and the snapshot feed.
package handler

import (
	"net/http"
	"time"

	"rfv_copilot_backend/internal/rfv/domain"
	"rfv_copilot_backend/internal/rfv/repository"
	"rfv_copilot_backend/internal/rfv/service"
	"rfv_copilot_backend/internal/rfv/transport"
	"rfv_copilot_backend/platform/httpkit"
	"rfv_copilot_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidTaskID    = "invalid task ID"
	msgInvalidCustomer  = "invalid customer ID"
)

// Handler handles HTTP requests for the RFV engine.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new engine handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the engine routes. Trigger routes get the stricter
// rate limiter on top of auth.
func (h *Handler) RegisterRoutes(rfv *gin.RouterGroup, triggerLimit gin.HandlerFunc) {
	rfv.POST("/recalculate", triggerLimit, h.Recalculate)
	rfv.POST("/attribute-revenue", triggerLimit, h.AttributeRevenue)

	rfv.GET("/tasks", h.ListTasks)
	rfv.GET("/tasks/:id", h.GetTask)
	rfv.PATCH("/tasks/:id/status", h.UpdateTaskStatus)
	rfv.GET("/tasks/:id/qr", h.TaskQR)

	rfv.GET("/templates", h.ListTemplates)
	rfv.PUT("/templates", h.UpsertTemplate)

	rfv.GET("/customers/:id/metrics", h.CustomerMetrics)
	rfv.GET("/segments/summary", h.SegmentSummary)
}

// Recalculate triggers a full recalculation pass.
// POST /api/v1/rfv/recalculate
func (h *Handler) Recalculate(c *gin.Context) {
	result, err := h.svc.Recalculate(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	byPriority := make(map[string]int, len(result.TasksByPriority))
	for priority, count := range result.TasksByPriority {
		byPriority[string(priority)] = count
	}
	httpkit.OK(c, transport.RecalculateResponse{
		Snapshots:       result.Snapshots,
		TasksGenerated:  result.TasksGenerated,
		TasksByPriority: byPriority,
	})
}

// AttributeRevenue triggers a revenue attribution pass.
// POST /api/v1/rfv/attribute-revenue
func (h *Handler) AttributeRevenue(c *gin.Context) {
	result, err := h.svc.AttributeRevenue(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AttributionResponse{
		TasksConverted:       result.TasksConverted,
		RevenueCreditedCents: result.RevenueCreditedCents,
	})
}

// ListTasks returns a page of the operator task feed.
// GET /api/v1/rfv/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	var req transport.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	filter := repository.TaskFilter{Limit: req.Limit, Offset: req.Offset}
	if req.Status != "" {
		status := domain.Status(req.Status)
		filter.Status = &status
	}
	if req.Priority != "" {
		priority := domain.Priority(req.Priority)
		filter.Priority = &priority
	}
	if req.Date != "" {
		date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "date must be YYYY-MM-DD")
			return
		}
		filter.TaskDate = &date
	}

	items, total, err := h.svc.ListTasks(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.TaskResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, transport.ToTaskResponse(item, h.svc.OutreachLink(item)))
	}
	httpkit.OK(c, transport.TaskListResponse{
		Items:  responses,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetTask returns one task.
// GET /api/v1/rfv/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTaskID, nil)
		return
	}

	item, err := h.svc.GetTask(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTaskResponse(item, h.svc.OutreachLink(item)))
}

// UpdateTaskStatus moves a task through the state machine, stamping the
// operator identity from the JWT.
// PATCH /api/v1/rfv/tasks/:id/status
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTaskID, nil)
		return
	}

	var req transport.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	item, err := h.svc.TransitionTask(c.Request.Context(), id, domain.Status(req.Status), identity.OperatorID(), identity.DisplayName())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTaskResponse(item, h.svc.OutreachLink(item)))
}

// TaskQR renders the task's outreach link as a QR code PNG.
// GET /api/v1/rfv/tasks/:id/qr
func (h *Handler) TaskQR(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTaskID, nil)
		return
	}

	png, err := h.svc.TaskQR(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ListTemplates returns all message templates.
// GET /api/v1/rfv/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.svc.ListTemplates(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.TemplateResponse, 0, len(templates))
	for _, tpl := range templates {
		items = append(items, transport.ToTemplateResponse(tpl))
	}
	httpkit.OK(c, transport.TemplateListResponse{Items: items, Total: len(items)})
}

// UpsertTemplate creates or replaces a message template.
// PUT /api/v1/rfv/templates
func (h *Handler) UpsertTemplate(c *gin.Context) {
	var req transport.UpsertTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tpl, err := h.svc.UpsertTemplate(c.Request.Context(), domain.Template{
		TaskType:       domain.TaskType(req.TaskType),
		ChannelContext: domain.ChannelContext(req.ChannelContext),
		Body:           req.Body,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTemplateResponse(tpl))
}

// CustomerMetrics returns the customer's current snapshot.
// GET /api/v1/rfv/customers/:id/metrics
func (h *Handler) CustomerMetrics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCustomer, nil)
		return
	}

	snapshot, err := h.svc.CustomerMetrics(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSnapshotResponse(snapshot))
}

// SegmentSummary returns customer counts per segment.
// GET /api/v1/rfv/segments/summary
func (h *Handler) SegmentSummary(c *gin.Context) {
	summary, err := h.svc.SegmentSummary(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	segments := make(map[string]int, len(summary))
	total := 0
	for segment, count := range summary {
		segments[string(segment)] = count
		total += count
	}
	httpkit.OK(c, transport.SegmentSummaryResponse{Segments: segments, Total: total})
}
