// Package server provides the HTTP server for CMS-backed pages.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/pagebuilder-site/internal/i18n"
	"github.com/jonathan/pagebuilder-site/internal/isr"
	"github.com/jonathan/pagebuilder-site/internal/pages"
	"github.com/jonathan/pagebuilder-site/internal/preview"
	"github.com/jonathan/pagebuilder-site/internal/render"
	"github.com/jonathan/pagebuilder-site/internal/server/middleware"
	"github.com/jonathan/pagebuilder-site/internal/server/ratelimit"
)

// CacheStatusHeader reports how the page route found its props.
const CacheStatusHeader = "X-Page-Cache"

// Generator produces page props without going through the cache.
type Generator interface {
	GetStaticProps(ctx context.Context, params pages.Params) (*pages.StaticProps, error)
}

// Config holds server configuration
type Config struct {
	Port            int
	RevalidateToken string
	LocaleDetection bool
	SecureCookies   bool
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Cache     *isr.Cache
	Generator Generator
	Router    *i18n.Router
	Renderer  *render.Renderer
	Sessions  *preview.Sessions  // nil disables preview sessions
	Limiter   *ratelimit.Limiter // nil disables rate limiting
	Logger    *slog.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	cfg        Config

	cache     *isr.Cache
	generator Generator
	router    *i18n.Router
	renderer  *render.Renderer
	sessions  *preview.Sessions
	detector  *preview.Detector
	limiter   *ratelimit.Limiter
	validate  *validator.Validate
	log       *slog.Logger
	now       func() time.Time
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	switch {
	case deps.Cache == nil:
		return nil, fmt.Errorf("server requires a page cache")
	case deps.Generator == nil:
		return nil, fmt.Errorf("server requires a props generator")
	case deps.Router == nil:
		return nil, fmt.Errorf("server requires a locale router")
	case deps.Renderer == nil:
		return nil, fmt.Errorf("server requires a renderer")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		cache:     deps.Cache,
		generator: deps.Generator,
		router:    deps.Router,
		renderer:  deps.Renderer,
		sessions:  deps.Sessions,
		detector:  preview.NewDetector(deps.Sessions),
		limiter:   deps.Limiter,
		validate:  validator.New(),
		log:       deps.Logger,
		now:       time.Now,
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/paths", s.handlePaths)
	mux.HandleFunc("GET /api/data/{path...}", s.handleData)
	if cfg.RevalidateToken != "" {
		mux.Handle("POST /api/revalidate", middleware.RequireToken(cfg.RevalidateToken)(http.HandlerFunc(s.handleRevalidate)))
	} else {
		mux.HandleFunc("POST /api/revalidate", s.handleNotConfigured("on-demand revalidation"))
	}
	mux.HandleFunc("GET /api/preview", s.handlePreview)
	mux.HandleFunc("GET /api/preview/exit", s.handlePreviewExit)

	// Catch-all page route
	mux.HandleFunc("GET /{path...}", s.handlePage)

	s.handler = middleware.RequestID(middleware.Recover(s.log)(s.withLogging(s.withRateLimit(mux))))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // Blocking generations wait on the CMS
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.release()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.release()
	s.log.Info("server stopped")
	return nil
}

// release stops background work: rate limiter cleanup and running regenerations.
func (s *Server) release() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.cache.Close()
}

// statusRecorder captures the status code and size of a response.
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

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.log.LogAttrs(r.Context(), level, "request",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", rec.bytes),
			slog.Duration("duration", s.now().Sub(start)),
			slog.String("client", s.extractClientID(r)),
		)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.limiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID extracts the client identifier from the request.
// It uses the IP address from RemoteAddr; forwarded headers are not trusted.
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
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.log.Warn("rate limit exceeded",
		"request_id", middleware.GetRequestID(r.Context()),
		"client", s.extractClientID(r),
		"path", r.URL.Path,
		"limit", info.Limit,
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotConfigured(feature string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		err := &ErrNotConfigured{Feature: feature}
		s.errorResponse(w, HTTPStatus(err), err.Error())
	}
}
