// Package apiclient is a small HTTP client for the todo API, shared by the CLI and the web UI.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUnauthorized is matched by APIError when the API answered 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound is matched by APIError when the API answered 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response. Message is the API's "error" (or "detail") field when present.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

type User struct {
	Username string `json:"username"`
	ID       int    `json:"id"`
}

type Todo struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// TodoUpdate carries only the fields to change; nil fields are omitted from the request.
type TodoUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

// ==========================
// Auth
// ==========================

func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/create/user", map[string]string{"username": username, "password": password}, nil)
}

// Login exchanges credentials for an access token using the form-encoded password flow.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("login succeeded but no token returned")
	}
	return out.AccessToken, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"User"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/", nil, &out)
	return out.User, err
}

// ==========================
// Todos
// ==========================

func (c *Client) ListTodos(ctx context.Context, skip, limit int) ([]Todo, error) {
	q := url.Values{"skip": {strconv.Itoa(skip)}, "limit": {strconv.Itoa(limit)}}
	var out []Todo
	err := c.doJSON(ctx, http.MethodGet, "/todos?"+q.Encode(), nil, &out)
	return out, err
}

func (c *Client) GetTodo(ctx context.Context, id int) (Todo, error) {
	var out Todo
	err := c.doJSON(ctx, http.MethodGet, "/todos/"+strconv.Itoa(id), nil, &out)
	return out, err
}

func (c *Client) CreateTodo(ctx context.Context, title string, description *string) (Todo, error) {
	in := struct {
		Title       string  `json:"title"`
		Description *string `json:"description,omitempty"`
	}{title, description}
	var out Todo
	err := c.doJSON(ctx, http.MethodPost, "/todos", in, &out)
	return out, err
}

func (c *Client) UpdateTodo(ctx context.Context, id int, upd TodoUpdate) (Todo, error) {
	var out Todo
	err := c.doJSON(ctx, http.MethodPut, "/todos/"+strconv.Itoa(id), upd, &out)
	return out, err
}

func (c *Client) DeleteTodo(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, "/todos/"+strconv.Itoa(id), nil, nil)
}

// ==========================
// Transport
// ==========================

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp.StatusCode, body)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var payload struct {
		Error  string            `json:"error"`
		Detail string            `json:"detail"`
		Fields map[string]string `json:"fields"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Detail
		}
		apiErr.Fields = payload.Fields
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
