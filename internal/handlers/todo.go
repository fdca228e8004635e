package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/todo-api/internal/middleware"
	"github.com/crucial707/todo-api/internal/models"
	"github.com/crucial707/todo-api/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type TodoHandler struct {
	Todos *service.TodoService
}

// id and todo_id are accepted for compatibility with older clients but never used;
// the store assigns ids and the path id wins on update.
type createTodoRequest struct {
	ID          *int    `json:"id"`
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
}

type updateTodoRequest struct {
	TodoID      *int    `json:"todo_id"`
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,max=4000"`
}

//
// ==========================
// Create Todo
// ==========================
//

func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var input createTodoRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	todo, err := h.Todos.Create(r.Context(), middleware.IdentityFrom(r.Context()), input.Title, input.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

//
// ==========================
// List Todos
// ==========================
//

func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	fields := make(map[string]string)
	skip := queryInt(r, "skip", service.DefaultListOffset, 0, fields)
	limit := queryInt(r, "limit", service.DefaultListLimit, 1, fields)
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusUnprocessableEntity)
		return
	}

	todos, err := h.Todos.List(r.Context(), middleware.IdentityFrom(r.Context()), skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

//
// ==========================
// Get Todo By ID
// ==========================
//

func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	todo, err := h.Todos.Get(r.Context(), middleware.IdentityFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

//
// ==========================
// Update Todo
// ==========================
//

func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	var input updateTodoRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	patch := models.TodoPatch{Title: input.Title, Description: input.Description}
	todo, err := h.Todos.Update(r.Context(), middleware.IdentityFrom(r.Context()), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

//
// ==========================
// Delete Todo
// ==========================
//

func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	if err := h.Todos.Delete(r.Context(), middleware.IdentityFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted"})
}

func (h *TodoHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		JSONError(w, "todo not found", http.StatusNotFound)
	case errors.Is(err, service.ErrUnauthorized):
		middleware.Unauthorized(w, "authentication failed")
	default:
		slog.ErrorContext(r.Context(), "todo operation failed",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}

// todoID reads the path id. Ids are stored as 32-bit integers, so anything
// wider is rejected here rather than by the database.
func todoID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "todo_id"), 10, 32)
	if err != nil {
		JSONValidationError(w, "validation failed", map[string]string{"todo_id": "must be a 32-bit integer"}, http.StatusUnprocessableEntity)
		return 0, false
	}
	return int(id), true
}

// queryInt parses an optional integer query parameter, recording a field error when it
// is not an integer or is below min.
func queryInt(r *http.Request, name string, def, min int, fields map[string]string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fields[name] = "must be an integer"
		return def
	}
	if v < min {
		fields[name] = "must be at least " + strconv.Itoa(min)
		return def
	}
	return v
}
