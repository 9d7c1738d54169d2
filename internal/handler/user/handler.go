package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	authService "github.com/eventops/backoffice-api/internal/service/auth"
)

type Handler struct {
	users repository.UserRepository
}

func NewHandler(users repository.UserRepository) *Handler {
	return &Handler{users: users}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	hash, err := authService.HashPassword(req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	u := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Phone:        req.Phone,
		IsAdmin:      req.IsAdmin,
		Status:       model.UserStatusActive,
	}
	if err := h.users.Create(c.Request.Context(), u); err != nil {
		handler.RespondError(c, err)
		return
	}
	u.PasswordHash = ""
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(u))
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	u.PasswordHash = ""
	c.JSON(http.StatusOK, handler.NewSuccessResponse(u))
}

func (h *Handler) ListUsers(c *gin.Context) {
	var filter model.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	users, err := h.users.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.IsAdmin != nil {
		u.IsAdmin = *req.IsAdmin
	}
	if req.Status != nil {
		u.Status = *req.Status
	}
	if req.PushSubscriptionID != nil {
		u.PushSubscriptionID = req.PushSubscriptionID
	}
	if req.QuietStartHour != nil {
		u.QuietStartHour = req.QuietStartHour
	}
	if req.QuietEndHour != nil {
		u.QuietEndHour = req.QuietEndHour
	}

	if err := h.users.Update(c.Request.Context(), u); err != nil {
		handler.RespondError(c, err)
		return
	}
	u.PasswordHash = ""
	c.JSON(http.StatusOK, handler.NewSuccessResponse(u))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := handler.ParseID(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
