package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/todo-api/internal/config"
	"github.com/crucial707/todo-api/internal/db"
	"github.com/crucial707/todo-api/internal/metrics"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "test-secret-for-integration",
		JWTAlgorithm: "HS256",
		BcryptCost:   4,
	}
}

// newTestServer runs the full router over a migrated in-memory SQLite database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn, err := db.Connect(context.Background(), db.DriverSQLite, ":memory:", db.Options{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	r, err := newRouter(conn, testConfig())
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, u, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, u, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, u, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := http.PostForm(srv.URL+"/auth/token", form)
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: got %d, want 200", resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.AccessToken == "" {
		t.Fatalf("login response: %v", err)
	}
	if out.TokenType != "bearer" {
		t.Fatalf("token_type: got %q", out.TokenType)
	}
	return out.AccessToken
}

// TestAPI_RegisterLoginCreateList walks the main flow: register alice, log in,
// create "buy milk" and find it in the list.
func TestAPI_RegisterLoginCreateList(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/auth/create/user", "", `{"username":"alice","password":"pw1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: got %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/auth/create/user", "", `{"username":"alice","password":"pw2"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register status: got %d, want 400", resp.StatusCode)
	}

	token := login(t, srv, "alice", "pw1")

	resp = doJSON(t, http.MethodGet, srv.URL+"/", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status: got %d, want 200", resp.StatusCode)
	}
	var me struct {
		User struct {
			Username string `json:"username"`
			ID       int    `json:"id"`
		} `json:"User"`
	}
	json.NewDecoder(resp.Body).Decode(&me)
	if me.User.Username != "alice" || me.User.ID == 0 {
		t.Errorf("GET / body: %+v", me)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/todos", token, `{"title":"buy milk"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status: got %d, want 200", resp.StatusCode)
	}
	var created struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	if created.ID == 0 || created.Title != "buy milk" {
		t.Fatalf("created todo: %+v", created)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/todos", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: got %d, want 200", resp.StatusCode)
	}
	var list []struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	json.NewDecoder(resp.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != created.ID || list[0].Title != "buy milk" {
		t.Errorf("list: %+v", list)
	}
}

func TestAPI_UpdateDeleteLifecycle(t *testing.T) {
	srv := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/auth/create/user", "", `{"username":"bob","password":"secret"}`)
	token := login(t, srv, "bob", "secret")

	resp := doJSON(t, http.MethodPost, srv.URL+"/todos", token, `{"title":"walk dog","description":"twice"}`)
	var todo struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		Description *string `json:"description"`
	}
	json.NewDecoder(resp.Body).Decode(&todo)
	path := srv.URL + "/todos/" + strconv.Itoa(todo.ID)

	resp = doJSON(t, http.MethodPut, path, token, `{"title":"walk cat"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: got %d, want 200", resp.StatusCode)
	}
	var updated = todo
	json.NewDecoder(resp.Body).Decode(&updated)
	if updated.ID != todo.ID || updated.Title != "walk cat" || updated.Description == nil || *updated.Description != "twice" {
		t.Errorf("partial update: %+v", updated)
	}

	resp = doJSON(t, http.MethodPut, srv.URL+"/todos/9999", token, `{"title":"x"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("update missing: got %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, path, token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status: got %d, want 200", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, path, token, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodDelete, path, token, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("delete again: got %d, want 404", resp.StatusCode)
	}
}

func TestAPI_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/todos"},
		{http.MethodPost, "/todos"},
		{http.MethodPut, "/todos/1"},
		{http.MethodDelete, "/todos/1"},
	} {
		resp := doJSON(t, tc.method, srv.URL+tc.path, "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d, want 401", tc.method, tc.path, resp.StatusCode)
		}
		if resp.Header.Get("WWW-Authenticate") != "Bearer" {
			t.Errorf("%s %s: missing WWW-Authenticate", tc.method, tc.path)
		}
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/todos", "not-a-token", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: got %d, want 401", resp.StatusCode)
	}
}

// Protected routes resolve the caller through the auth service, which counts
// every resolve by outcome.
func TestAPI_BearerResolvedByAuthService(t *testing.T) {
	srv := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/auth/create/user", "", `{"username":"carol","password":"pw"}`)
	token := login(t, srv, "carol", "pw")

	ok := metrics.AuthEvents.WithLabelValues("resolve", "ok")
	invalid := metrics.AuthEvents.WithLabelValues("resolve", "invalid")
	okBefore, invalidBefore := testutil.ToFloat64(ok), testutil.ToFloat64(invalid)

	if resp := doJSON(t, http.MethodGet, srv.URL+"/todos", token, ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: got %d, want 200", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodGet, srv.URL+"/todos", "not-a-token", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status: got %d, want 401", resp.StatusCode)
	}

	if got := testutil.ToFloat64(ok) - okBefore; got != 1 {
		t.Errorf("resolve ok: got +%v, want +1", got)
	}
	if got := testutil.ToFloat64(invalid) - invalidBefore; got != 1 {
		t.Errorf("resolve invalid: got +%v, want +1", got)
	}
}

func TestAPI_RegisterPasswordTooLong(t *testing.T) {
	srv := newTestServer(t)

	for _, pw := range []string{strings.Repeat("a", 73), strings.Repeat("é", 40)} {
		body, _ := json.Marshal(map[string]string{"username": "bob", "password": pw})
		resp := doJSON(t, http.MethodPost, srv.URL+"/auth/create/user", "", string(body))
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("password of %d bytes: got %d, want 422", len(pw), resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/auth/create/user", "", `{"username":"bob","password":"`+strings.Repeat("a", 72)+`"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("72-byte password: got %d, want 201", resp.StatusCode)
	}
}

func TestAPI_TodoIDOutOfRange(t *testing.T) {
	srv := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/auth/create/user", "", `{"username":"dave","password":"pw"}`)
	token := login(t, srv, "dave", "pw")

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		body := ""
		if method == http.MethodPut {
			body = `{"title":"x"}`
		}
		resp := doJSON(t, method, srv.URL+"/todos/3000000000", token, body)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("%s /todos/3000000000: got %d, want 422", method, resp.StatusCode)
		}
	}
}

func TestAPI_WrongPassword(t *testing.T) {
	srv := newTestServer(t)
	doJSON(t, http.MethodPost, srv.URL+"/auth/create/user", "", `{"username":"alice","password":"pw1"}`)

	resp, err := http.PostForm(srv.URL+"/auth/token", url.Values{"username": {"alice"}, "password": {"nope"}})
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d, want 401", resp.StatusCode)
	}
}

// TestAPI_Health is a quick smoke test for the health endpoint.
func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status: got %d, want 200", resp.StatusCode)
	}
}

// TestAPI_Ready checks that /ready reflects a database ping.
func TestAPI_Ready(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(context.DeadlineExceeded)

	r, err := newRouter(sqlx.NewDb(mockDB, "postgres"), testConfig())
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}
	srv := httptest.NewServer(r)
	defer srv.Close()

	for _, want := range []int{http.StatusOK, http.StatusServiceUnavailable} {
		resp, err := http.Get(srv.URL + "/ready")
		if err != nil {
			t.Fatalf("ready request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("GET /ready status: got %d, want %d", resp.StatusCode, want)
		}
	}
}

func TestAPI_Metrics(t *testing.T) {
	srv := newTestServer(t)
	if resp, err := http.Get(srv.URL + "/health"); err == nil {
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics status: got %d, want 200", resp.StatusCode)
	}
}

func TestNewRouter_RejectsEmptySecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	if _, err := newRouter(nil, cfg); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
