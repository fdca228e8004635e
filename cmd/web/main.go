package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/todo-api/internal/apiclient"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

const (
	cookieName  = "todo_token"
	defaultPort = "3000"
	defaultAPI  = "http://localhost:8080"
	envWebPort  = "TODO_WEB_PORT"
	envAPIURL   = "TODO_API_URL"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)).With("service", "todo-web"))

	port := getEnv(envWebPort, defaultPort)
	apiBase := getEnv(envAPIURL, defaultAPI)

	app, err := newApp(apiclient.New(apiBase, ""))
	if err != nil {
		slog.Error("load templates", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("web UI running", "url", "http://localhost:"+port, "api", apiBase)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("web server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	// Health (no auth, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public
	r.Get("/login", a.loginForm)
	r.Post("/login", a.loginSubmit)
	r.Get("/register", a.registerForm)
	r.Post("/register", a.registerSubmit)
	r.Get("/logout", a.logout)
	r.Get("/about", a.about)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth)
		r.Get("/", redirectTodos)
		r.Get("/todos", a.todosList)
		r.Post("/todos", a.todoCreate)
		r.Get("/todos/{id}/edit", a.todoEditForm)
		r.Post("/todos/{id}/edit", a.todoUpdate)
		r.Get("/todos/{id}/delete", a.todoDeleteConfirm)
		r.Post("/todos/{id}/delete", a.todoDelete)
	})

	return r
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
