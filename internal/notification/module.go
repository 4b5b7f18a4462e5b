// Package notification turns engine events into operator-facing signals:
// in-app notification rows and the daily digest email.
package notification

import (
	"context"
	"net/http"
	"time"

	"rfv_copilot_backend/internal/events"
	apphttp "rfv_copilot_backend/internal/http"
	"rfv_copilot_backend/internal/notification/inapp"
	"rfv_copilot_backend/internal/notification/mailer"
	"rfv_copilot_backend/platform/config"
	"rfv_copilot_backend/platform/httpkit"
	"rfv_copilot_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module subscribes to engine events and exposes the notification feed.
type Module struct {
	repo   *inapp.Repository
	mailer *mailer.Mailer
	log    *logger.Logger
}

// New creates the notification module.
func New(pool *pgxpool.Pool, cfg config.EmailConfig, log *logger.Logger) *Module {
	return &Module{
		repo:   inapp.New(pool),
		mailer: mailer.New(cfg),
		log:    log,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "notification"
}

// RegisterHandlers subscribes to the domain events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.RecalculationCompleted{}.EventName(), events.HandlerFunc(m.onRecalculationCompleted))
}

func (m *Module) onRecalculationCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(events.RecalculationCompleted)
	if !ok {
		return nil
	}

	subject, body := BuildDigest(completed)

	if err := m.repo.Insert(ctx, inapp.Notification{
		ID:        uuid.New(),
		Title:     subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}

	if err := m.mailer.Send(ctx, subject, body); err != nil {
		// The in-app row already landed; a failed email is worth a log,
		// not a failed recalculation.
		if m.log != nil {
			m.log.Error("digest email failed", "error", err.Error())
		}
	}
	return nil
}

// RegisterRoutes registers the notification feed routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/notifications")
	group.GET("", m.list)
	group.POST("/:id/read", m.markRead)
}

func (m *Module) list(c *gin.Context) {
	notifications, err := m.repo.ListRecent(c.Request.Context(), 50)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": notifications, "total": len(notifications)})
}

func (m *Module) markRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification ID", nil)
		return
	}

	if err := m.repo.MarkRead(c.Request.Context(), id, time.Now().UTC()); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
