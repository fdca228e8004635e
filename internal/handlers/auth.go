package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/crucial707/todo-api/internal/middleware"
	"github.com/crucial707/todo-api/internal/service"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Auth *service.AuthService
}

type credentials struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=72"`
}

// passwordTooLong mirrors the validator response for passwords that fit in 72
// characters but not in the 72 bytes bcrypt accepts.
func passwordTooLong(w http.ResponseWriter) {
	JSONValidationError(w, "validation failed", map[string]string{"password": "must be at most 72 bytes"}, http.StatusUnprocessableEntity)
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if !decodeJSON(w, r, &input) {
		return
	}

	_, err := h.Auth.Register(r.Context(), input.Username, input.Password)
	if errors.Is(err, service.ErrDuplicateUsername) {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is(err, service.ErrPasswordTooLong) {
		passwordTooLong(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "register failed", "request_id", chimw.GetReqID(r.Context()), "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"detail": "User created successfully"})
}

// ==========================
// Token (login)
// ==========================
// Token accepts form-encoded credentials, as OAuth2 password clients send them, or a JSON body.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var input credentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if !decodeJSON(w, r, &input) {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			JSONError(w, "invalid form body", http.StatusUnprocessableEntity)
			return
		}
		input.Username = r.PostForm.Get("username")
		input.Password = r.PostForm.Get("password")
		if !validRequest(w, &input) {
			return
		}
	}

	tok, err := h.Auth.Login(r.Context(), input.Username, input.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		middleware.Unauthorized(w, "incorrect username or password")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "login failed", "request_id", chimw.GetReqID(r.Context()), "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tok)
}

// ==========================
// Current user
// ==========================
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())
	if id.IsZero() {
		middleware.Unauthorized(w, "authentication failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"User": id})
}
