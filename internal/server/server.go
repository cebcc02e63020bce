// Package server exposes the analyses over HTTP. Uploaded datasets live in
// an in-memory session store keyed by session ID.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/auditai-dev/auditai/internal/buildinfo"
	"github.com/auditai-dev/auditai/internal/dataset"
	"github.com/auditai-dev/auditai/internal/model"
	"github.com/auditai-dev/auditai/internal/session"
	"github.com/auditai-dev/auditai/internal/tools"
)

// Asker answers a question using the given tools. *agent.Agent satisfies it.
type Asker interface {
	Ask(ctx context.Context, reg *tools.Registry, question string) (string, error)
}

// RuleLoader returns the compliance rules to attach to a new session.
type RuleLoader func() ([]model.Rule, error)

// Options configure a Server. Zero values get defaults in New.
type Options struct {
	MaxUploadBytes int64
	SessionTTL     time.Duration
	AskPerMinute   int
	CurrencySymbol string
	// PreviewRows is how many rows GET /api/datasets/{id} returns.
	PreviewRows int
	Rules       RuleLoader
	// Agent is optional; without it /ask answers 503.
	Agent Asker
	// AuditRoot, when set, is the project directory whose audit log records
	// analyses run through the API.
	AuditRoot string
	Logger    zerolog.Logger
}

// Server is the HTTP API.
type Server struct {
	opts     Options
	sessions *session.Store
	parsers  *dataset.Registry
	limiter  *rate.Limiter
	router   chi.Router
}

// New builds a server and its routes.
func New(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "₹"
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 20
	}
	if opts.Rules == nil {
		opts.Rules = func() ([]model.Rule, error) { return nil, nil }
	}

	limit := rate.Inf
	burst := 1
	if opts.AskPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.AskPerMinute))
		burst = opts.AskPerMinute
	}

	s := &Server{
		opts:     opts,
		sessions: session.NewStore(opts.SessionTTL),
		parsers:  dataset.DefaultRegistry(),
		limiter:  rate.NewLimiter(limit, burst),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.opts.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.String()})
	})

	r.Route("/api/datasets", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDataset)
			r.Delete("/", s.handleDeleteDataset)
			r.Get("/fraud", s.handleFraud)
			r.Get("/compliance", s.handleCompliance)
			r.With(s.rateLimit).Post("/ask", s.handleAsk)
		})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions exposes the session store.
func (s *Server) Sessions() *session.Store { return s.sessions }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}
