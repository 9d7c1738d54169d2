package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
	"github.com/eventops/backoffice-api/internal/repository"
)

type Handler struct {
	records   repository.NotificationRepository
	templates repository.TemplateRepository
	events    repository.EventRepository
	orch      *orchestrator.Orchestrator
}

func NewHandler(
	records repository.NotificationRepository,
	templates repository.TemplateRepository,
	events repository.EventRepository,
	orch *orchestrator.Orchestrator,
) *Handler {
	return &Handler{
		records:   records,
		templates: templates,
		events:    events,
		orch:      orch,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/:id", h.GetNotification)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/:id/resolve", h.MarkResolved)
		notifications.POST("/trigger", h.TriggerNotification)
	}
}

func (h *Handler) ListNotifications(c *gin.Context) {
	var filter model.NotificationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	records, err := h.records.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}

func (h *Handler) GetNotification(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	rec, err := h.records.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	if err := h.records.MarkRead(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// MarkResolved closes the reminder chain for a notification: the dedup
// ledger stops counting it and a future scan may open a fresh chain.
func (h *Handler) MarkResolved(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	if err := h.records.MarkResolved(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

type triggerRequest struct {
	TemplateID uuid.UUID `json:"template_id" binding:"required"`
	EventID    uuid.UUID `json:"event_id" binding:"required"`
}

// TriggerNotification fires a template against an event immediately,
// skipping dedup and the nightly window. The Sabbath window still holds.
func (h *Handler) TriggerNotification(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tmpl, err := h.templates.Get(c.Request.Context(), req.TemplateID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	e, err := h.events.Get(c.Request.Context(), req.EventID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	res, err := h.orch.Run(c.Request.Context(), &orchestrator.Request{
		Template:      tmpl,
		Event:         e,
		Snapshot:      e.Snapshot(),
		SkipDedup:     true,
		BypassNightly: true,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"matched":   res.Matched,
		"sent":      res.Sent,
		"scheduled": res.Scheduled,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
	}))
}
