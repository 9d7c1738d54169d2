package template

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
)

// Handler manages notification templates, the admin-editable rules the
// whole pipeline runs on.
type Handler struct {
	templates repository.TemplateRepository
}

func NewHandler(templates repository.TemplateRepository) *Handler {
	return &Handler{templates: templates}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/notification-templates")
	{
		templates.POST("", h.CreateTemplate)
		templates.GET("", h.ListTemplates)
		templates.GET("/:id", h.GetTemplate)
		templates.PUT("/:id", h.UpdateTemplate)
		templates.DELETE("/:id", h.DeleteTemplate)
	}
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var tmpl model.NotificationTemplate
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if tmpl.Type == "" || tmpl.TriggerType == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("type and trigger_type are required"))
		return
	}
	if tmpl.ConditionLogic == "" {
		tmpl.ConditionLogic = model.LogicAnd
	}

	if err := h.templates.Create(c.Request.Context(), &tmpl); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(tmpl))
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	tmpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tmpl))
}

func (h *Handler) ListTemplates(c *gin.Context) {
	var filter model.TemplateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	templates, err := h.templates.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(templates))
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	existing, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var tmpl model.NotificationTemplate
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	tmpl.ID = existing.ID
	tmpl.CreatedAt = existing.CreatedAt
	if tmpl.ConditionLogic == "" {
		tmpl.ConditionLogic = model.LogicAnd
	}

	if err := h.templates.Update(c.Request.Context(), &tmpl); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tmpl))
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
