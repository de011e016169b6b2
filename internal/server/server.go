// Package server provides the HTTP JSON API over the job tracker core.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jonathan/jobtrail/internal/config"
	"github.com/jonathan/jobtrail/internal/server/middleware"
	"github.com/jonathan/jobtrail/internal/server/ratelimit"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies. Snapshot imports are the largest payloads.
const maxBodyBytes = 10 << 20

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	svc         *Services
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	log         zerolog.Logger
	now         func() time.Time

	movementConcurrency int
}

// Config holds server configuration
type Config struct {
	Port int
	JWT  *config.JWTConfig
	// RateLimit defaults to ratelimit.LoadConfig when nil.
	RateLimit           *ratelimit.Config
	MovementConcurrency int
	Logger              zerolog.Logger
	Clock               func() time.Time
}

// New creates a new server instance over svc.
func New(cfg Config, svc *Services) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("services are required")
	}
	if cfg.JWT == nil {
		return nil, fmt.Errorf("JWT config is required")
	}
	rlCfg := cfg.RateLimit
	if rlCfg == nil {
		rlCfg = ratelimit.LoadConfig()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	s := &Server{
		svc:                 svc,
		rateLimiter:         ratelimit.NewLimiter(rlCfg),
		jwtService:          NewJWTService(cfg.JWT),
		log:                 cfg.Logger,
		now:                 now,
		movementConcurrency: cfg.MovementConcurrency,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Jobs
	s.route(mux, "GET /jobs", s.handleListJobs)
	s.route(mux, "POST /jobs", s.handleCreateJob)
	s.route(mux, "POST /jobs/import-email", s.handleImportEmail)
	s.route(mux, "GET /jobs/{id}", s.handleGetJob)
	s.route(mux, "PUT /jobs/{id}", s.handleUpdateJob)
	s.route(mux, "DELETE /jobs/{id}", s.handleDeleteJob)

	// Contacts
	s.route(mux, "GET /contacts", s.handleListContacts)
	s.route(mux, "POST /contacts", s.handleCreateContact)
	s.route(mux, "POST /contacts/movements", s.handleDetectMovement)
	s.route(mux, "GET /contacts/{id}", s.handleGetContact)
	s.route(mux, "PUT /contacts/{id}", s.handleUpdateContact)
	s.route(mux, "DELETE /contacts/{id}", s.handleDeleteContact)
	s.route(mux, "POST /contacts/{id}/confirm-company", s.handleConfirmCompany)

	// Follow-ups
	s.route(mux, "GET /follow-ups", s.handleListFollowUps)
	s.route(mux, "GET /follow-ups/overdue", s.handleOverdue)
	s.route(mux, "GET /follow-ups/upcoming", s.handleUpcoming)
	s.route(mux, "GET /follow-ups/recent-sent", s.handleRecentSent)
	s.route(mux, "GET /follow-ups/{id}", s.handleGetFollowUp)
	s.route(mux, "POST /follow-ups/{id}/sent", s.handleMarkSent)
	s.route(mux, "POST /follow-ups/{id}/snooze", s.handleSnooze)
	s.route(mux, "POST /follow-ups/{id}/dismiss", s.handleDismiss)
	s.route(mux, "POST /follow-ups/{id}/unsnooze", s.handleUnsnooze)
	s.route(mux, "POST /follow-ups/{id}/compose", s.handleCompose)
	s.route(mux, "POST /follow-ups/{id}/send", s.handleSend)

	// Templates
	s.route(mux, "GET /templates", s.handleListTemplates)
	s.route(mux, "POST /templates", s.handleCreateTemplate)
	s.route(mux, "POST /templates/defaults", s.handleSaveDefaults)
	s.route(mux, "POST /templates/render", s.handleRenderTemplate)
	s.route(mux, "GET /templates/{id}", s.handleGetTemplate)
	s.route(mux, "PUT /templates/{id}", s.handleUpdateTemplate)
	s.route(mux, "DELETE /templates/{id}", s.handleDeleteTemplate)
	s.route(mux, "GET /templates/{id}/lint", s.handleLintTemplate)

	// Analytics and snapshots
	s.route(mux, "GET /analytics", s.handleAnalytics)
	s.route(mux, "GET /export", s.handleExport)
	s.route(mux, "POST /import", s.handleImport)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second, // movement detection fans out lookups
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// route registers an authenticated handler.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h))
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// JWT returns the token service used to authenticate requests.
func (s *Server) JWT() *JWTService {
	return s.jwtService
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info().Msg("server stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging logs one line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		event := s.log.Info()
		if status >= http.StatusInternalServerError {
			event = s.log.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", rec.bytes).
			Dur("latency", s.now().Sub(start)).
			Msg("request")
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps a core error to its status and writes it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	s.errorResponse(w, status, errorMessage(err, status))
}

// extractClientID uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.log.Warn().
		Str("client", s.extractClientID(r)).
		Str("path", r.URL.Path).
		Int("limit", info.Limit).
		Time("reset_at", info.ResetTime).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
