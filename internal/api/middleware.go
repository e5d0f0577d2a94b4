package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/medialib/medialib-go-server/internal/auth"
)

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request with method, path, status and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// AdminAuth guards destructive admin endpoints. With no password configured
// the endpoints stay open, matching a single-user deployment on a trusted
// network.
func AdminAuth(passwordHash string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if passwordHash == "" {
			next(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			JSONError(w, "missing or invalid authorization header", http.StatusUnauthorized)
			return
		}
		if _, err := auth.ValidateToken(token); err != nil {
			JSONError(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
