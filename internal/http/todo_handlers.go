package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devinder777/to-do-backend-service/internal/domain"
	"github.com/devinder777/to-do-backend-service/internal/service"
)

type createTodoRequest struct {
	Task *string `json:"task"`
}

type updateTodoRequest struct {
	Task      *string `json:"task"`
	Completed *bool   `json:"completed"`
}

// todoResponse encodes completed as 0/1, which is what the web client compares against.
type todoResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Task      string `json:"task"`
	Completed int    `json:"completed"`
}

func todoToResponse(todo domain.Todo) todoResponse {
	resp := todoResponse{
		ID:     todo.ID,
		UserID: todo.UserID,
		Task:   todo.Task,
	}
	if todo.Completed {
		resp.Completed = 1
	}
	return resp
}

func (h *Handler) listTodos(c *gin.Context) {
	userID, _ := callerID(c)

	todos, err := h.todos.ListTodos(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Server error while fetching todos")
		return
	}

	resp := make([]todoResponse, len(todos))
	for i := range todos {
		resp[i] = todoToResponse(todos[i])
	}
	c.JSON(http.StatusOK, gin.H{"todos": resp})
}

func (h *Handler) createTodo(c *gin.Context) {
	userID, _ := callerID(c)

	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Task == nil {
		h.respondError(c, service.ErrTaskRequired, "")
		return
	}

	todo, err := h.todos.CreateTodo(c.Request.Context(), userID, *req.Task)
	if err != nil {
		h.respondError(c, err, "Server error while creating todo")
		return
	}

	c.JSON(http.StatusCreated, todoToResponse(*todo))
}

func (h *Handler) updateTodo(c *gin.Context) {
	userID, _ := callerID(c)

	id, ok := parseTodoID(c)
	if !ok {
		h.respondError(c, service.ErrTodoNotFound, "")
		return
	}

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Task must be a string and completed must be a boolean")
		return
	}

	todo, err := h.todos.UpdateTodo(c.Request.Context(), userID, id, domain.TodoPatch{
		Task:      req.Task,
		Completed: req.Completed,
	})
	if err != nil {
		h.respondError(c, err, "Server error while updating todo")
		return
	}

	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) deleteTodo(c *gin.Context) {
	userID, _ := callerID(c)

	id, ok := parseTodoID(c)
	if !ok {
		h.respondError(c, service.ErrTodoNotFound, "")
		return
	}

	if err := h.todos.DeleteTodo(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err, "Server error while deleting todo")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted"})
}

// parseTodoID treats ids that cannot exist as a miss, so the response matches
// that of an unknown or foreign todo.
func parseTodoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
