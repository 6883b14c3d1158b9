package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	session, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}

	h.log(c).WithField("user_id", session.UserID).Info("user registered")
	c.JSON(http.StatusOK, sessionResponse{Token: session.Token, UserID: session.UserID})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusOK, sessionResponse{Token: session.Token, UserID: session.UserID})
}

func (h *Handler) me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		abortUnauthorized(c, "No token provided")
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusOK, userResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	})
}
