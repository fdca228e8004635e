package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/crucial707/todo-api/internal/apiclient"
	"github.com/go-chi/chi/v5"
)

const pageSize = 10

type ctxKey string

const (
	clientKey ctxKey = "client"
	userKey   ctxKey = "user"
)

type app struct {
	api       *apiclient.Client
	templates map[string]*template.Template
}

func newApp(api *apiclient.Client) (*app, error) {
	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &app{api: api, templates: t}, nil
}

// requireAuth redirects to /login if the cookie is missing or the API rejects the token.
// The authenticated client and user are stored on the request context.
func (a *app) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := r.Cookie(cookieName)
		if err != nil || token.Value == "" {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}

		client := a.api.WithToken(token.Value)
		user, err := client.Me(r.Context())
		if errors.Is(err, apiclient.ErrUnauthorized) {
			clearAuthAndRedirectToLogin(w, r)
			return
		}
		if err != nil {
			a.render(w, http.StatusBadGateway, "about.html", map[string]any{"Error": "Cannot reach API: " + err.Error()})
			return
		}

		ctx := context.WithValue(r.Context(), clientKey, client)
		ctx = context.WithValue(ctx, userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientFrom(r *http.Request) *apiclient.Client {
	c, _ := r.Context().Value(clientKey).(*apiclient.Client)
	return c
}

func userFrom(r *http.Request) *apiclient.User {
	u, ok := r.Context().Value(userKey).(apiclient.User)
	if !ok {
		return nil
	}
	return &u
}

func clearAuthAndRedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
}

func redirectTodos(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/todos", http.StatusFound)
}

// safeNext only allows local absolute paths, so /login cannot be used as an open redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/todos"
	}
	return next
}

// ==========================
// Public pages
// ==========================

func (a *app) loginForm(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		http.Redirect(w, r, "/todos", http.StatusFound)
		return
	}
	a.render(w, http.StatusOK, "login.html", map[string]any{
		"Next":  r.URL.Query().Get("next"),
		"Flash": r.URL.Query().Get("registered"),
		"Title": "Log in",
	})
}

func (a *app) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	data := map[string]any{"Title": "Log in", "Username": username, "Next": next}
	if username == "" || password == "" {
		data["Error"] = "Username and password are required"
		a.render(w, http.StatusUnprocessableEntity, "login.html", data)
		return
	}

	token, err := a.api.Login(r.Context(), username, password)
	if errors.Is(err, apiclient.ErrUnauthorized) {
		data["Error"] = "Incorrect username or password"
		a.render(w, http.StatusUnauthorized, "login.html", data)
		return
	}
	if err != nil {
		data["Error"] = "Login failed: " + err.Error()
		a.render(w, http.StatusBadGateway, "login.html", data)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

func (a *app) registerForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "register.html", map[string]any{"Title": "Register"})
}

func (a *app) registerSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm")

	data := map[string]any{"Title": "Register", "Username": username}
	switch {
	case username == "" || password == "":
		data["Error"] = "Username and password are required"
	case password != confirm:
		data["Error"] = "Passwords do not match"
	}
	if data["Error"] != nil {
		a.render(w, http.StatusUnprocessableEntity, "register.html", data)
		return
	}

	if err := a.api.Register(r.Context(), username, password); err != nil {
		data["Error"] = apiMessage(err)
		a.render(w, statusOf(err), "register.html", data)
		return
	}
	http.Redirect(w, r, "/login?registered="+url.QueryEscape(username), http.StatusFound)
}

func (a *app) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (a *app) about(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "about.html", map[string]any{"Title": "About"})
}

// ==========================
// Todos
// ==========================

func (a *app) todosList(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	if skip < 0 {
		skip = 0
	}
	a.renderList(w, r, http.StatusOK, skip, map[string]any{})
}

func (a *app) renderList(w http.ResponseWriter, r *http.Request, status, skip int, data map[string]any) {
	// one extra row tells us whether a next page exists
	todos, err := clientFrom(r).ListTodos(r.Context(), skip, pageSize+1)
	if a.handleAuthError(w, r, err) {
		return
	}
	if err != nil {
		data["Error"] = apiMessage(err)
		status = http.StatusBadGateway
	}

	hasNext := len(todos) > pageSize
	if hasNext {
		todos = todos[:pageSize]
	}
	data["Title"] = "Todos"
	data["User"] = userFrom(r)
	data["Todos"] = todos
	data["Skip"] = skip
	data["HasPrev"] = skip > 0
	data["PrevSkip"] = max(skip-pageSize, 0)
	data["HasNext"] = hasNext
	data["NextSkip"] = skip + pageSize
	a.render(w, status, "todos.html", data)
}

func (a *app) todoCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))

	if title == "" {
		a.renderList(w, r, http.StatusUnprocessableEntity, 0, map[string]any{
			"Error":           "Title is required",
			"FormDescription": description,
		})
		return
	}

	var desc *string
	if description != "" {
		desc = &description
	}
	_, err := clientFrom(r).CreateTodo(r.Context(), title, desc)
	if a.handleAuthError(w, r, err) {
		return
	}
	if err != nil {
		a.renderList(w, r, statusOf(err), 0, map[string]any{
			"Error":           apiMessage(err),
			"FormTitle":       title,
			"FormDescription": description,
		})
		return
	}
	http.Redirect(w, r, "/todos", http.StatusFound)
}

func (a *app) todoEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := a.todoID(w, r)
	if !ok {
		return
	}
	todo, err := clientFrom(r).GetTodo(r.Context(), id)
	if a.handleAuthError(w, r, err) {
		return
	}
	if err != nil {
		a.render(w, statusOf(err), "todo_form.html", map[string]any{"Title": "Edit todo", "User": userFrom(r), "Error": apiMessage(err)})
		return
	}
	a.render(w, http.StatusOK, "todo_form.html", map[string]any{
		"Title": "Edit todo",
		"User":  userFrom(r),
		"Todo":  todo,
	})
}

func (a *app) todoUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := a.todoID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))

	formTodo := apiclient.Todo{ID: id, Title: title, Description: &description}
	if title == "" {
		a.render(w, http.StatusUnprocessableEntity, "todo_form.html", map[string]any{
			"Title": "Edit todo", "User": userFrom(r), "Todo": formTodo, "Error": "Title is required",
		})
		return
	}

	_, err := clientFrom(r).UpdateTodo(r.Context(), id, apiclient.TodoUpdate{Title: &title, Description: &description})
	if a.handleAuthError(w, r, err) {
		return
	}
	if err != nil {
		a.render(w, statusOf(err), "todo_form.html", map[string]any{
			"Title": "Edit todo", "User": userFrom(r), "Todo": formTodo, "Error": apiMessage(err),
		})
		return
	}
	http.Redirect(w, r, "/todos", http.StatusFound)
}

func (a *app) todoDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := a.todoID(w, r)
	if !ok {
		return
	}
	todo, err := clientFrom(r).GetTodo(r.Context(), id)
	if a.handleAuthError(w, r, err) {
		return
	}
	data := map[string]any{"Title": "Delete todo", "User": userFrom(r)}
	if err != nil {
		data["Error"] = apiMessage(err)
		a.render(w, statusOf(err), "todo_delete.html", data)
		return
	}
	data["Todo"] = todo
	a.render(w, http.StatusOK, "todo_delete.html", data)
}

func (a *app) todoDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := a.todoID(w, r)
	if !ok {
		return
	}
	err := clientFrom(r).DeleteTodo(r.Context(), id)
	if a.handleAuthError(w, r, err) {
		return
	}
	if err != nil && !errors.Is(err, apiclient.ErrNotFound) {
		a.render(w, statusOf(err), "todo_delete.html", map[string]any{
			"Title": "Delete todo", "User": userFrom(r), "Todo": apiclient.Todo{ID: id}, "Error": apiMessage(err),
		})
		return
	}
	http.Redirect(w, r, "/todos", http.StatusFound)
}

func (a *app) todoID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid todo id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// handleAuthError sends the browser back to /login when the token stopped being valid mid-session.
func (a *app) handleAuthError(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		clearAuthAndRedirectToLogin(w, r)
		return true
	}
	return false
}

func apiMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Fields) > 0 {
			parts := make([]string, 0, len(apiErr.Fields))
			for f, msg := range apiErr.Fields {
				parts = append(parts, f+" "+msg)
			}
			return apiErr.Message + ": " + strings.Join(parts, ", ")
		}
		return apiErr.Message
	}
	return "Cannot reach API: " + err.Error()
}

func statusOf(err error) int {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
