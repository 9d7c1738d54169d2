package supplier

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/event"
)

type Handler struct {
	suppliers repository.SupplierRepository
}

func NewHandler(suppliers repository.SupplierRepository) *Handler {
	return &Handler{suppliers: suppliers}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, tracker *event.TrackerMiddleware) {
	suppliers := r.Group("/suppliers")
	{
		suppliers.POST("", tracker.Track("supplier", event.OpCreate), h.CreateSupplier)
		suppliers.GET("", h.ListSuppliers)
		suppliers.GET("/:id", h.GetSupplier)
		suppliers.PUT("/:id", tracker.Track("supplier", event.OpUpdate), h.UpdateSupplier)
		suppliers.DELETE("/:id", tracker.Track("supplier", event.OpDelete), h.DeleteSupplier)
	}
}

func (h *Handler) CreateSupplier(c *gin.Context) {
	var req model.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	s := &model.Supplier{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		ServiceType: req.ServiceType,
		Status:      model.SupplierStatusActive,
		Notes:       req.Notes,
	}
	if err := h.suppliers.Create(c.Request.Context(), s); err != nil {
		handler.RespondError(c, err)
		return
	}

	ec := event.FromGin(c)
	ec.NewData = s.Snapshot()

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(s))
}

func (h *Handler) GetSupplier(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	s, err := h.suppliers.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

func (h *Handler) ListSuppliers(c *gin.Context) {
	var filter model.SupplierFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	suppliers, err := h.suppliers.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(suppliers))
}

func (h *Handler) UpdateSupplier(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	var req model.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	s, err := h.suppliers.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	old := s.Snapshot()

	if req.Name != nil {
		s.Name = *req.Name
	}
	if req.Phone != nil {
		s.Phone = *req.Phone
	}
	if req.Email != nil {
		s.Email = *req.Email
	}
	if req.ServiceType != nil {
		s.ServiceType = *req.ServiceType
	}
	if req.Status != nil {
		s.Status = *req.Status
	}
	if req.Notes != nil {
		s.Notes = *req.Notes
	}

	if err := h.suppliers.Update(c.Request.Context(), s); err != nil {
		handler.RespondError(c, err)
		return
	}

	ec := event.FromGin(c)
	ec.OldData = old
	ec.NewData = s.Snapshot()

	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

func (h *Handler) DeleteSupplier(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	s, err := h.suppliers.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if err := h.suppliers.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	ec := event.FromGin(c)
	ec.OldData = s.Snapshot()
	ec.NewData = s.Snapshot()

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
