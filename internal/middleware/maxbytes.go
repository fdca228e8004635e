package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes is 1 MiB.
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes caps request bodies. A declared Content-Length over the cap is refused with 413
// up front; otherwise the body is wrapped so decoders fail with *http.MaxBytesError.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
