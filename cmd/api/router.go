package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/crucial707/todo-api/internal/auth"
	"github.com/crucial707/todo-api/internal/config"
	"github.com/crucial707/todo-api/internal/handlers"
	"github.com/crucial707/todo-api/internal/middleware"
	"github.com/crucial707/todo-api/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter wires services and handlers over database and returns the API handler.
func newRouter(database *sqlx.DB, cfg config.Config) (http.Handler, error) {
	algorithm := cfg.JWTAlgorithm
	if algorithm == "" {
		algorithm = "HS256"
	}
	ttl := cfg.JWTTTL
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}
	tokens, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), algorithm, ttl)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	authSvc := service.NewAuthService(database, auth.NewBcryptHasher(cfg.BcryptCost), tokens)
	authHandler := &handlers.AuthHandler{Auth: authSvc}
	todoHandler := &handlers.TodoHandler{Todos: service.NewTodoService(database)}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	// Public
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ready\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.AuthRateLimiter().Middleware)
		r.Post("/create/user", authHandler.CreateUser)
		r.Post("/token", authHandler.Token)
	})

	// Bearer token required
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(authSvc))

		r.Get("/", authHandler.Me)

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", todoHandler.ListTodos)
			r.Post("/", todoHandler.CreateTodo)
			r.Get("/{todo_id}", todoHandler.GetTodo)
			r.Put("/{todo_id}", todoHandler.UpdateTodo)
			r.Delete("/{todo_id}", todoHandler.DeleteTodo)
		})
	})

	return r, nil
}
