package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"tally/internal/auth"
	"tally/internal/log"
)

// withCommon is the outermost middleware: it tags the request with a
// trace id, applies security headers and rate limiting, recovers from
// handler panics, and logs start and completion.
func (s *Server) withCommon(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := log.IntoContext(r.Context(), logger)
		r = r.WithContext(ctx)

		logger.InfoContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		setSecurityHeaders(w)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, envelope{Success: false, Message: "too many requests, try again later"})
			return
		}

		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "Handler panicked",
					log.FieldError, fmt.Sprintf("%v", rec),
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				if !rw.wrote {
					writeJSON(rw, http.StatusInternalServerError, envelope{Success: false, Message: "internal server error"})
				}
			}

			duration := time.Since(start)
			logCompletion(logger, r, rw.statusCode, duration, clientIP)
		}()

		next.ServeHTTP(rw, r)
	})
}

// logCompletion escalates the log level with the response class so
// failures stand out without a separate error log line.
func logCompletion(logger *log.Logger, r *http.Request, status int, duration time.Duration, clientIP string) {
	args := []any{
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldStatusCode, status,
		log.FieldDuration, duration.Milliseconds(),
		log.FieldClientIP, clientIP,
	}
	switch {
	case status >= 500:
		logger.ErrorContext(r.Context(), "Request completed", args...)
	case status >= 400:
		logger.WarnContext(r.Context(), "Request completed", args...)
	default:
		logger.InfoContext(r.Context(), "Request completed", args...)
	}
}

// withAuth verifies the bearer token and injects the user id into the
// request context. Handlers behind it can assume an authenticated
// caller.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.Authenticate(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		next(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
	wrote      bool
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.wrote = true
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wrote = true
	return sw.ResponseWriter.Write(b)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
