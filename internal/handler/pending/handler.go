package pending

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/repository"
)

// Handler exposes the pending-delivery queue for inspection. The queue is
// written by the dispatcher and drained by the sweeper; this surface is
// read-only.
type Handler struct {
	pending repository.PendingRepository
}

func NewHandler(pending repository.PendingRepository) *Handler {
	return &Handler{pending: pending}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	p := r.Group("/pending")
	{
		p.GET("", h.ListPending)
	}
}

func (h *Handler) ListPending(c *gin.Context) {
	includeSent := c.Query("include_sent") == "true"
	deliveries, err := h.pending.List(c.Request.Context(), includeSent)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(deliveries))
}
