package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eventops/backoffice-api/internal/handler"
	authService "github.com/eventops/backoffice-api/internal/service/auth"
)

type AuthMiddleware struct {
	authService *authService.Service
}

func NewAuthMiddleware(authService *authService.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate verifies the bearer token and sets the admin identity in
// the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}
		if !claims.IsAdmin {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("admin access required"))
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID.String())
		c.Set("userEmail", claims.Email)
		c.Next()
	}
}
