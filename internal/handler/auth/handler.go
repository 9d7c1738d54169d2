package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/model"
	authService "github.com/eventops/backoffice-api/internal/service/auth"
)

type Handler struct {
	service *authService.Service
}

func NewHandler(service *authService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authService.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid credentials"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}
