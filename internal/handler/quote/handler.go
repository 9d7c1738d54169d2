package quote

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
)

type Handler struct {
	quotes repository.QuoteRepository
}

func NewHandler(quotes repository.QuoteRepository) *Handler {
	return &Handler{quotes: quotes}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	quotes := r.Group("/quotes")
	{
		quotes.POST("", h.CreateQuote)
		quotes.GET("", h.ListQuotes)
		quotes.GET("/:id", h.GetQuote)
		quotes.PUT("/:id", h.UpdateQuote)
		quotes.POST("/:id/send", h.SendQuote)
		quotes.DELETE("/:id", h.DeleteQuote)
	}
}

func (h *Handler) CreateQuote(c *gin.Context) {
	var req model.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	q := &model.Quote{
		EventID: req.EventID,
		Status:  model.QuoteStatusDraft,
		Total:   req.Total,
		Notes:   req.Notes,
	}
	if err := h.quotes.Create(c.Request.Context(), q); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(q))
}

func (h *Handler) GetQuote(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	q, err := h.quotes.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(q))
}

func (h *Handler) ListQuotes(c *gin.Context) {
	var filter model.QuoteFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	quotes, err := h.quotes.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(quotes))
}

func (h *Handler) UpdateQuote(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	var req model.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	q, err := h.quotes.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if req.Status != nil {
		q.Status = *req.Status
	}
	if req.Total != nil {
		q.Total = *req.Total
	}
	if req.SentAt != nil {
		q.SentAt = req.SentAt
	}
	if req.Notes != nil {
		q.Notes = *req.Notes
	}

	if err := h.quotes.Update(c.Request.Context(), q); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(q))
}

// SendQuote marks a draft quote as sent. The sent_at timestamp starts the
// follow-up clock for the open-quote scan.
func (h *Handler) SendQuote(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	q, err := h.quotes.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if q.Status != model.QuoteStatusDraft {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("only draft quotes can be sent"))
		return
	}

	now := time.Now()
	q.Status = model.QuoteStatusSent
	q.SentAt = &now
	if err := h.quotes.Update(c.Request.Context(), q); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(q))
}

func (h *Handler) DeleteQuote(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	if err := h.quotes.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
