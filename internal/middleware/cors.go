package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

var (
	DefaultCORSAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	DefaultCORSAllowedHeaders = []string{"Accept", "Authorization", "Content-Type"}
)

// CORS answers preflights and sets CORS headers for the listed origins.
// With no origins configured it passes requests through untouched.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   DefaultCORSAllowedMethods,
		AllowedHeaders:   DefaultCORSAllowedHeaders,
		ExposedHeaders:   []string{"WWW-Authenticate"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
	return c.Handler
}
