// Package api exposes extraction and sync runs over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pfrederiksen/odds-alchemist/internal/logger"
	"github.com/pfrederiksen/odds-alchemist/internal/pipeline"
)

// ServiceName is reported by the health check
const ServiceName = "odds-alchemist"

// maxBodyBytes caps uploaded HTML
const maxBodyBytes = 10 << 20

// Syncer runs one fetch, extract and append cycle
type Syncer interface {
	Sync(ctx context.Context, url, rangeID string) (*pipeline.Report, error)
}

// Options configures a Server
type Options struct {
	Extractor      pipeline.Extractor
	Syncer         Syncer
	Metrics        *logger.Metrics
	DefaultURL     string
	DefaultRange   string
	AllowedOrigins []string
}

// Server holds dependencies for HTTP handlers
type Server struct {
	extractor    pipeline.Extractor
	syncer       Syncer
	metrics      *logger.Metrics
	defaultURL   string
	defaultRange string
	origins      []string
	log          *zap.Logger
}

// NewServer creates a new server
func NewServer(opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = logger.NewMetrics()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	return &Server{
		extractor:    opts.Extractor,
		syncer:       opts.Syncer,
		metrics:      opts.Metrics,
		defaultURL:   opts.DefaultURL,
		defaultRange: opts.DefaultRange,
		origins:      opts.AllowedOrigins,
		log:          log,
	}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.HealthCheck)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/extract", s.Extract)
		r.Post("/sync", s.Sync)
		r.Get("/metrics", s.Metrics)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			s.log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
