package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
)

type Handler struct {
	payments repository.PaymentRepository
}

func NewHandler(payments repository.PaymentRepository) *Handler {
	return &Handler{payments: payments}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("", h.CreatePayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.PUT("/:id", h.UpdatePayment)
		payments.DELETE("/:id", h.DeletePayment)
	}
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var req model.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p := &model.Payment{
		EventID:    req.EventID,
		SupplierID: req.SupplierID,
		Side:       req.Side,
		Amount:     req.Amount,
		Status:     model.PaymentStatusPending,
		DueDate:    req.DueDate,
		Notes:      req.Notes,
	}
	if err := h.payments.Create(c.Request.Context(), p); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	p, err := h.payments.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) ListPayments(c *gin.Context) {
	var filter model.PaymentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	payments, err := h.payments.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(payments))
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	var req model.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.payments.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if req.Amount != nil {
		p.Amount = *req.Amount
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.DueDate != nil {
		p.DueDate = req.DueDate
	}
	if req.PaidAt != nil {
		p.PaidAt = req.PaidAt
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}

	if err := h.payments.Update(c.Request.Context(), p); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) DeletePayment(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	if err := h.payments.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
