// Package http exposes the JSON API. Every route responds with the
// same envelope shape and every record route requires a bearer token.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/auth"
	"tally/internal/cache"
	"tally/internal/log"
	"tally/internal/records"
	"tally/internal/report"
)

// Server wires the HTTP surface to the auth and record services.
type Server struct {
	http.Server
	auth    *auth.Service
	records *records.Service
	logger  *log.Logger

	weekStart time.Weekday
	now       func() time.Time

	rateLimiter  *rateLimiter
	summaryCache *cache.UserScoped[report.Summary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, authSvc *auth.Service, recordSvc *records.Service, weekStart time.Weekday, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	mux := http.NewServeMux()

	s := &Server{
		auth:         authSvc,
		records:      recordSvc,
		logger:       logger,
		weekStart:    weekStart,
		now:          time.Now,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewUserScoped[report.Summary](500, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.withAuth(s.handleCurrentUser))

	mux.HandleFunc("GET /api/expenses", s.withAuth(s.handleListRecords))
	mux.HandleFunc("POST /api/expenses", s.withAuth(s.handleCreateRecord))
	mux.HandleFunc("PUT /api/expenses/{id}", s.withAuth(s.handleUpdateRecord))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withAuth(s.handleDeleteRecord))
	mux.HandleFunc("GET /api/expenses/summary", s.withAuth(s.handleSummary))

	// Everything else gets the envelope, not the default text 404.
	mux.HandleFunc("/", s.handleNotFound)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        s.withCommon(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	return s
}

// Shutdown gracefully shuts down the server and its background
// routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}{
		Success:   true,
		Message:   "Service is healthy",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "route not found"})
}
