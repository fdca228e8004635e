package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLogin_SendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/token" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type: %q", ct)
		}
		if r.FormValue("username") != "alice" || r.FormValue("password") != "pw1" {
			t.Errorf("form: %v", r.Form)
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "token_type": "bearer"})
	}))
	defer srv.Close()

	tok, err := New(srv.URL, "").Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok != "tok" {
		t.Errorf("token: got %q", tok)
	}
}

func TestBearerHeaderAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "todo not found"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").GetTodo(context.Background(), 1)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}

	_, err = New(srv.URL, "tok").GetTodo(context.Background(), 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "todo not found" {
		t.Errorf("message: %v", err)
	}
}

func TestUpdateTodo_OmitsUnsetFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["description"]; ok {
			t.Errorf("description should be omitted: %v", body)
		}
		if r.URL.Path != "/todos/3" || r.Method != http.MethodPut {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(Todo{ID: 3, Title: body["title"].(string)})
	}))
	defer srv.Close()

	title := "new"
	got, err := New(srv.URL, "tok").UpdateTodo(context.Background(), 3, TodoUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	if got.ID != 3 || got.Title != "new" {
		t.Errorf("todo: %+v", got)
	}
}

func TestRegister_DetailMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "username already registered"})
	}))
	defer srv.Close()

	err := New(srv.URL, "").Register(context.Background(), "alice", "pw")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "username already registered" {
		t.Fatalf("unexpected error: %v", err)
	}
}
