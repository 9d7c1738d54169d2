package event

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/event"
)

type Handler struct {
	events repository.EventRepository
}

func NewHandler(events repository.EventRepository) *Handler {
	return &Handler{events: events}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, tracker *event.TrackerMiddleware) {
	events := r.Group("/events")
	{
		events.POST("", tracker.Track("event", event.OpCreate), h.CreateEvent)
		events.GET("", h.ListEvents)
		events.GET("/:id", h.GetEvent)
		events.PUT("/:id", tracker.Track("event", event.OpUpdate), h.UpdateEvent)
		events.DELETE("/:id", tracker.Track("event", event.OpDelete), h.DeleteEvent)
	}
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var req model.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	e := &model.Event{
		Name:      req.Name,
		Type:      req.Type,
		Status:    model.EventStatusLead,
		EventDate: req.EventDate,
		StartTime: req.StartTime,
		Location:  req.Location,
		Concept:   req.Concept,
		Price:     req.Price,
		Contacts:  req.Contacts,
		Notes:     req.Notes,
	}
	if err := h.events.Create(c.Request.Context(), e); err != nil {
		handler.RespondError(c, err)
		return
	}

	ec := event.FromGin(c)
	ec.NewData = e.Snapshot()

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(e))
}

func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	e, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(e))
}

func (h *Handler) ListEvents(c *gin.Context) {
	var filter model.EventFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	events, err := h.events.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(events))
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	var req model.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	e, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	old := e.Snapshot()

	if req.Name != nil {
		e.Name = *req.Name
	}
	if req.Status != nil {
		e.Status = *req.Status
	}
	if req.EventDate != nil {
		e.EventDate = *req.EventDate
	}
	if req.StartTime != nil {
		e.StartTime = *req.StartTime
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.Concept != nil {
		e.Concept = *req.Concept
	}
	if req.Price != nil {
		e.Price = *req.Price
	}
	if req.Contacts != nil {
		e.Contacts = req.Contacts
	}
	if req.Notes != nil {
		e.Notes = *req.Notes
	}

	if err := h.events.Update(c.Request.Context(), e); err != nil {
		handler.RespondError(c, err)
		return
	}

	ec := event.FromGin(c)
	ec.OldData = old
	ec.NewData = e.Snapshot()

	c.JSON(http.StatusOK, handler.NewSuccessResponse(e))
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	e, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if err := h.events.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	ec := event.FromGin(c)
	ec.OldData = e.Snapshot()
	ec.NewData = e.Snapshot()

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
