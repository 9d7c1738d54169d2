package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/eventops/backoffice-api/pkg/errors"
)

// ParseID extracts and validates the :id path parameter. On failure it
// writes the 400 response and reports false; the caller should return.
func ParseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid ID"))
		return uuid.Nil, false
	}
	return id, true
}

// RespondError writes the error with the status its type carries; plain
// errors become a 500.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error()))
}
