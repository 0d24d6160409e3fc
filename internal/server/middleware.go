// internal/server/middleware.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"sylo-assistant/internal/common/auth"
	"sylo-assistant/internal/common/errors"
)

type requestIDKey struct{}

// requestIDMiddleware assigns every request an ID, honoring one the
// caller already carries.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = newRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// newRequestID mints an ID in the form req_<unix-millis>_<random>.
func newRequestID() string {
	return fmt.Sprintf("req_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}

// RequestIDFromContext returns the ID assigned by the middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.logger.Info("request completed", map[string]interface{}{
			"requestId": RequestIDFromContext(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    recorder.status,
			"duration":  time.Since(start).Milliseconds(),
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// authMiddleware resolves the caller identity and attaches it to the
// context. The firm and user the pipeline trusts come from here,
// never from the request body.
func authMiddleware(authenticator auth.Authenticator, errorHandler *errors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticator.Authenticate(r)
			if err != nil {
				errorHandler.WriteError(w, RequestIDFromContext(r.Context()), err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
