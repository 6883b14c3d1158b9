package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devinder777/to-do-backend-service/internal/service"
)

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth    service.AuthService
	todos   service.TodoService
	exports service.ExportService
	tokens  TokenVerifier
	logger  *logrus.Logger
}

// NewHandler builds a Handler. A nil logger is replaced with a default logrus logger.
func NewHandler(auth service.AuthService, todos service.TodoService, exports service.ExportService, tokens TokenVerifier, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		auth:    auth,
		todos:   todos,
		exports: exports,
		tokens:  tokens,
		logger:  logger,
	}
}

// RegisterRoutes mounts the public auth routes and the token-guarded todo and export routes.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.requestLogger(), corsMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the server")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.GET("/me", h.RequireAuth(), h.me)
	}

	todos := router.Group("/todos", h.RequireAuth())
	{
		todos.GET("", h.listTodos)
		todos.POST("", h.createTodo)
		todos.PUT("/:id", h.updateTodo)
		todos.DELETE("/:id", h.deleteTodo)
	}

	exports := router.Group("/exports", h.RequireAuth())
	{
		exports.POST("", h.createExport)
		exports.GET("", h.listExports)
		exports.DELETE("", h.deleteExports)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "WWW-Authenticate, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
