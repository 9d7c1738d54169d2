package hook

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/notifier/change"
)

// Handler accepts entity-change callbacks from external systems that
// write to the same store. Mounted outside the authenticated group so
// peers without an admin session can post.
type Handler struct {
	changes *change.Handler
}

func NewHandler(changes *change.Handler) *Handler {
	return &Handler{changes: changes}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/hooks/entity-change", h.EntityChange)
}

type entityChangeRequest struct {
	Event struct {
		Type       string `json:"type"`
		EntityName string `json:"entity_name"`
	} `json:"event"`
	Data    map[string]interface{} `json:"data"`
	OldData map[string]interface{} `json:"old_data"`
}

func (h *Handler) EntityChange(c *gin.Context) {
	var req entityChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	sum, err := h.changes.HandleChange(c.Request.Context(),
		req.Event.EntityName, req.Event.Type, req.Data, req.OldData)
	if err != nil {
		if errors.Is(err, change.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(sum))
}
