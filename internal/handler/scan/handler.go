package scan

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/notifier/scanner"
)

// Handler exposes the periodic scans as on-demand endpoints, for admins
// who do not want to wait for the worker's next tick.
type Handler struct {
	scanners map[string]scanner.Scanner
}

func NewHandler(scanners ...scanner.Scanner) *Handler {
	byName := make(map[string]scanner.Scanner, len(scanners))
	for _, s := range scanners {
		byName[s.Name()] = s
	}
	return &Handler{scanners: byName}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	scans := r.Group("/scans")
	{
		scans.POST("/pending-assignments", h.run("pending_assignment"))
		scans.POST("/missing-assignments", h.run("missing_assignment"))
		scans.POST("/open-quotes", h.run("open_quote"))
		scans.POST("/payments", h.run("payment"))
		scans.POST("/scheduled-checks", h.run("scheduled_check"))
	}
}

func (h *Handler) run(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := h.scanners[name]
		if !ok {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("unknown scan"))
			return
		}
		sum, err := s.Run(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(sum))
	}
}
