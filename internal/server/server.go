// Package server provides the HTTP REST API for the hiring pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jonathan/hiring-pipeline/internal/hiring"
	"github.com/jonathan/hiring-pipeline/internal/server/middleware"
	"github.com/jonathan/hiring-pipeline/internal/server/ratelimit"
	"github.com/jonathan/hiring-pipeline/internal/types"
)

// Config holds server configuration
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	// MaxUploadBytes bounds multipart resume uploads.
	MaxUploadBytes int64
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Service *hiring.Service
	Syncer  *hiring.Syncer
	Users   *UserService
	JWT     *JWTService
	// Limiter may be nil to disable rate limiting.
	Limiter *ratelimit.Limiter
	// Ping reports backing store health; nil means always healthy.
	Ping func(ctx context.Context) error
}

const (
	defaultMaxUploadBytes  = 10 << 20
	defaultShutdownTimeout = 30 * time.Second
)

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	handler        http.Handler
	service        *hiring.Service
	syncer         *hiring.Syncer
	authHandler    *AuthHandler
	rateLimiter    *ratelimit.Limiter
	ping           func(ctx context.Context) error
	maxUploadBytes int64
	shutdown       time.Duration
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		service:        deps.Service,
		syncer:         deps.Syncer,
		authHandler:    NewAuthHandler(deps.Users, deps.JWT),
		rateLimiter:    deps.Limiter,
		ping:           deps.Ping,
		maxUploadBytes: cfg.MaxUploadBytes,
		shutdown:       cfg.ShutdownTimeout,
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = defaultMaxUploadBytes
	}
	if s.shutdown <= 0 {
		s.shutdown = defaultShutdownTimeout
	}

	authed := middleware.AuthMiddleware(deps.JWT.AsTokenValidator())
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return authed(h).ServeHTTP
	}

	// Patterns carry no method so unsupported methods reach methods.ServeHTTP
	// and get a JSON 405 instead of the mux's plain-text one.
	mux := http.NewServeMux()
	mux.Handle("/health", methods{http.MethodGet: s.handleHealth})
	mux.Handle("/auth/login", methods{http.MethodPost: s.authHandler.Login})

	mux.Handle("/processes", methods{http.MethodPost: protect(s.handleCreateProcess)})
	mux.Handle("/processes/{id}", methods{
		http.MethodGet: protect(s.handleGetProcess),
		http.MethodPut: protect(s.handleUpdateProcess),
	})

	mux.Handle("/candidates", methods{http.MethodPost: protect(s.handleCreateCandidate)})
	mux.Handle("/candidates/{id}", methods{http.MethodGet: protect(s.handleGetCandidate)})
	mux.Handle("/candidates/upload-cv", methods{http.MethodPost: protect(s.handleUploadCV)})

	mux.Handle("/feedback", methods{http.MethodPost: protect(s.handleFeedback)})
	mux.Handle("/context", methods{
		http.MethodGet:  protect(s.handleGetContext),
		http.MethodPost: protect(s.handleUpdateContext),
	})

	// The analysis worker authenticates with a shared secret, not a JWT.
	mux.Handle("/n8n-callback/update-candidate", methods{http.MethodPost: s.handleAnalysisCallback})

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		errorResponse(w, http.StatusNotFound, "not found")
	})

	var handler http.Handler = s.withLogging(s.withCORS(mux))
	if s.rateLimiter != nil {
		handler = s.withRateLimit(handler)
	}
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
	case <-stop:
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops accepting requests, drains in-flight ones and waits for
// pending analysis notifications.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.service != nil {
		s.service.Wait()
	}
	log.Println("Server stopped")
	return nil
}

// methods dispatches on the request method and answers 405 with an Allow
// header for the rest.
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	allowed := make([]string, 0, len(m))
	for method := range m {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	errorResponse(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-api-key")

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
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s %d in %v (%s)", r.Method, r.URL.Path, rec.status, time.Since(start), r.RemoteAddr)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			log.Printf("[health] store unreachable: %v", err)
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status and writes it. Server-side failures are
// logged in full and answered with a generic message.
func writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status < http.StatusInternalServerError {
		errorResponse(w, status, err.Error())
		return
	}

	var partial *hiring.PartialWriteError
	if errors.As(err, &partial) {
		errorResponse(w, status, "the process was updated but the candidate record was not; retry the request")
		return
	}
	log.Printf("[error] %v", err)
	errorResponse(w, status, "internal server error")
}

// decodeJSON decodes a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return &ErrBadRequest{Message: "request body is required"}
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrBadRequest{Message: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return nil
}

// requirePrincipal returns the authenticated caller, answering 401 when the
// request did not pass through the auth middleware.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (types.Principal, bool) {
	p, err := middleware.GetPrincipal(r)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", hiring.ErrUnauthenticated, err))
		return p, false
	}
	return p, true
}

// extractClientID uses the IP from RemoteAddr.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate limit exceeded",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] limit=%d remaining=%d", info.Limit, info.Remaining)
	jsonResponse(w, http.StatusTooManyRequests, response)
}
