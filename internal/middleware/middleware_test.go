package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crucial707/todo-api/internal/auth"
	"golang.org/x/time/rate"
)

type stubResolver struct {
	want string
	id   auth.Identity
}

func (s stubResolver) ResolveCurrentUser(_ context.Context, token string) (auth.Identity, error) {
	if token != s.want {
		return auth.Identity{}, errors.New("bad token")
	}
	return s.id, nil
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticate(t *testing.T) {
	alice := auth.Identity{Username: "alice", UserID: 1}
	var seen auth.Identity
	h := Authenticate(stubResolver{want: "good", id: alice})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFrom(r.Context())
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = auth.Identity{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("status: got %d, want %d", rr.Code, tc.status)
			}
			if tc.status == http.StatusUnauthorized {
				if got := rr.Header().Get("WWW-Authenticate"); got != "Bearer" {
					t.Errorf("WWW-Authenticate: got %q", got)
				}
				return
			}
			if seen != alice {
				t.Errorf("identity: got %+v, want %+v", seen, alice)
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	l, err := NewIPRateLimiter(rate.Limit(0.0001), 2, 2)
	if err != nil {
		t.Fatalf("NewIPRateLimiter: %v", err)
	}
	h := l.Middleware(http.HandlerFunc(okHandler))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, code)
		}
	}
	// different port, same host: same bucket
	if code := do("10.0.0.1:5555"); code != http.StatusTooManyRequests {
		t.Fatalf("over limit: got %d, want 429", code)
	}
	if code := do("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other client: got %d, want 200", code)
	}
}

func TestIPRateLimiter_Bounded(t *testing.T) {
	l, err := NewIPRateLimiter(rate.Limit(1), 1, 3)
	if err != nil {
		t.Fatalf("NewIPRateLimiter: %v", err)
	}
	for _, ip := range []string{"a", "b", "c", "d", "e"} {
		l.Allow(ip)
	}
	if n := l.cache.Len(); n != 3 {
		t.Errorf("cache size: got %d, want 3", n)
	}
}

func TestMaxBytes(t *testing.T) {
	var readErr error
	h := MaxBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(strings.Repeat("x", 32)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("declared length: got %d, want 413", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(strings.Repeat("x", 32)))
	req.ContentLength = -1
	h.ServeHTTP(httptest.NewRecorder(), req)
	var mbe *http.MaxBytesError
	if !errors.As(readErr, &mbe) {
		t.Fatalf("streamed body: want *http.MaxBytesError, got %v", readErr)
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"internal server error"`) {
		t.Errorf("body: %s", rr.Body.String())
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/todos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allowed origin: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(true)(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, k := range []string{"X-Content-Type-Options", "X-Frame-Options", "Cache-Control", "Strict-Transport-Security"} {
		if rr.Header().Get(k) == "" {
			t.Errorf("missing header %s", k)
		}
	}
}
