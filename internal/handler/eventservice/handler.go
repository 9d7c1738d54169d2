package eventservice

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/event"
)

// Handler manages event sub-services. Updates here carry supplier
// assignment changes, so old and new snapshots must both be recorded for
// the diff engine.
type Handler struct {
	services repository.EventServiceRepository
}

func NewHandler(services repository.EventServiceRepository) *Handler {
	return &Handler{services: services}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, tracker *event.TrackerMiddleware) {
	services := r.Group("/event-services")
	{
		services.POST("", tracker.Track("event_service", event.OpCreate), h.CreateService)
		services.GET("", h.ListServices)
		services.GET("/:id", h.GetService)
		services.PUT("/:id", tracker.Track("event_service", event.OpUpdate), h.UpdateService)
		services.DELETE("/:id", tracker.Track("event_service", event.OpDelete), h.DeleteService)
	}
}

func (h *Handler) CreateService(c *gin.Context) {
	var req model.CreateEventServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	svc := &model.EventService{
		EventID:          req.EventID,
		ServiceType:      req.ServiceType,
		SupplierIDs:      req.SupplierIDs,
		SupplierStatuses: req.SupplierStatuses,
		MinSuppliers:     req.MinSuppliers,
		Price:            req.Price,
		Notes:            req.Notes,
	}
	if svc.SupplierStatuses == nil {
		svc.SupplierStatuses = map[string]string{}
	}
	for _, id := range svc.SupplierIDs {
		if _, ok := svc.SupplierStatuses[id.String()]; !ok {
			svc.SupplierStatuses[id.String()] = model.AssignmentStatusPending
		}
	}

	if err := h.services.Create(c.Request.Context(), svc); err != nil {
		handler.RespondError(c, err)
		return
	}

	ec := event.FromGin(c)
	ec.NewData = svc.Snapshot()

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(svc))
}

func (h *Handler) GetService(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	svc, err := h.services.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(svc))
}

func (h *Handler) ListServices(c *gin.Context) {
	var filter model.EventServiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	services, err := h.services.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(services))
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	var req model.UpdateEventServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	svc, err := h.services.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	old := svc.Snapshot()

	if req.SupplierIDs != nil {
		svc.SupplierIDs = req.SupplierIDs
	}
	if req.SupplierStatuses != nil {
		svc.SupplierStatuses = req.SupplierStatuses
	}
	for _, sid := range svc.SupplierIDs {
		if _, ok := svc.SupplierStatuses[sid.String()]; !ok {
			svc.SupplierStatuses[sid.String()] = model.AssignmentStatusPending
		}
	}
	if req.MinSuppliers != nil {
		svc.MinSuppliers = *req.MinSuppliers
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.Notes != nil {
		svc.Notes = *req.Notes
	}

	if err := h.services.Update(c.Request.Context(), svc); err != nil {
		handler.RespondError(c, err)
		return
	}

	ec := event.FromGin(c)
	ec.OldData = old
	ec.NewData = svc.Snapshot()

	c.JSON(http.StatusOK, handler.NewSuccessResponse(svc))
}

func (h *Handler) DeleteService(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	svc, err := h.services.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if err := h.services.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	ec := event.FromGin(c)
	ec.OldData = svc.Snapshot()
	ec.NewData = svc.Snapshot()

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
