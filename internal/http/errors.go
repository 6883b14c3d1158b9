package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devinder777/to-do-backend-service/internal/service"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// Duplicate email keeps the 500 status existing clients expect but gets its own message.
var errorMappings = []errorMapping{
	{service.ErrMissingCredentials, http.StatusBadRequest, "Email and password are required"},
	{service.ErrPasswordTooLong, http.StatusBadRequest, "Password must be at most 72 bytes"},
	{service.ErrTaskRequired, http.StatusBadRequest, "Task is required and must be a string"},
	{service.ErrInvalidPassword, http.StatusUnauthorized, "Invalid password"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrTodoNotFound, http.StatusNotFound, "Todo not found or unauthorized"},
	{service.ErrEmailTaken, http.StatusInternalServerError, "Email is already registered"},
	{service.ErrExportDisabled, http.StatusServiceUnavailable, "Export storage is not configured"},
}

// respondError maps err onto a status and a client-safe message. Unknown errors
// are logged and reported with fallback.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				h.log(c).WithError(err).Error(m.message)
			}
			c.JSON(m.status, gin.H{"message": m.message})
			return
		}
	}

	h.log(c).WithError(err).Error(fallback)
	c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}
