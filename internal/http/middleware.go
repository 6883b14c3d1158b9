package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devinder777/to-do-backend-service/internal/auth"
	"github.com/devinder777/to-do-backend-service/internal/requestctx"
)

const (
	requestIDHeader = "X-Request-ID"
	userIDKey       = "userID"
	loggerKey       = "logger"
)

// requestLogger tags each request with an id and logs its outcome.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(requestctx.WithRequestID(c.Request.Context(), requestID))

		entry := h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Set(loggerKey, entry)

		c.Next()

		fields := logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		if userID, ok := requestctx.UserIDFromContext(c.Request.Context()); ok {
			fields["user_id"] = userID
		}
		entry.WithFields(fields).Info("request completed")
	}
}

// RequireAuth verifies the Authorization header and stores the caller's user id
// on the request. The header carries the raw token; a "Bearer " prefix is accepted too.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		if token == "" {
			abortUnauthorized(c, "No token provided")
			return
		}

		userID, err := h.tokens.Verify(token)
		if err != nil {
			h.log(c).WithError(err).Warn("token verification failed")
			if errors.Is(err, auth.ErrMalformedToken) {
				abortUnauthorized(c, "Invalid token payload")
				return
			}
			abortUnauthorized(c, "Invalid or expired token")
			return
		}
		if userID <= 0 {
			abortUnauthorized(c, "Invalid token payload")
			return
		}

		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(requestctx.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// abortUnauthorized tells the client to drop its stored session.
func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message})
}

func (h *Handler) log(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	entry := logrus.NewEntry(h.logger)
	if requestID := requestctx.RequestIDFromContext(c.Request.Context()); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	return entry
}

// callerID returns the id stored by RequireAuth. Routes without the guard get false.
func callerID(c *gin.Context) (int64, bool) {
	if id := c.GetInt64(userIDKey); id > 0 {
		return id, true
	}
	return requestctx.UserIDFromContext(c.Request.Context())
}
