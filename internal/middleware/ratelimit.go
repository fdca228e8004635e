package middleware

import (
	"net"
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// DefaultLimiterCacheSize bounds how many client buckets are remembered.
const DefaultLimiterCacheSize = 4096

// IPRateLimiter keeps a token bucket per client IP. Buckets live in an LRU cache so
// a flood of distinct addresses cannot grow memory without bound.
type IPRateLimiter struct {
	mu    sync.Mutex
	cache *lru.Cache
	limit rate.Limit
	burst int
}

// NewIPRateLimiter creates a per-IP limiter. limit is events per second; for N per minute
// use rate.Limit(float64(N)/60). size <= 0 selects DefaultLimiterCacheSize.
func NewIPRateLimiter(limit rate.Limit, burst, size int) (*IPRateLimiter, error) {
	if size <= 0 {
		size = DefaultLimiterCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &IPRateLimiter{cache: cache, limit: limit, burst: burst}, nil
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.cache.Get(ip); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.cache.Add(ip, lim)
	return lim
}

// Allow reports whether ip may make another request now.
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.limiter(ip).Allow()
}

// clientIP strips the port from RemoteAddr. Put chi's RealIP ahead of the limiter so
// proxied requests are keyed by X-Forwarded-For / X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the rate with 429.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthRateLimiter is sized for login and registration: 10 requests per minute per IP, burst 5.
func AuthRateLimiter() *IPRateLimiter {
	l, err := NewIPRateLimiter(rate.Limit(10.0/60.0), 5, DefaultLimiterCacheSize)
	if err != nil {
		// only possible for a non-positive size
		panic(err)
	}
	return l
}
