// Package server wires the marketplace HTTP API: composer routes with their
// SSE generation stream, the skills catalog, the converter, session-token
// auth, and per-user rate limiting.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentskills/marketplace/internal/composer"
	"github.com/agentskills/marketplace/internal/config"
	"github.com/agentskills/marketplace/internal/converter"
	"github.com/agentskills/marketplace/internal/llm"
	"github.com/agentskills/marketplace/internal/storage"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/httpmiddleware"
	"github.com/agentskills/marketplace/pkg/logger"
	"github.com/agentskills/marketplace/pkg/metrics"
	"github.com/agentskills/marketplace/pkg/utils"
)

const shutdownTimeout = 15 * time.Second

// api bundles the handler dependencies. Tests construct it directly with
// fakes; Server.New assembles the production graph.
type api struct {
	log            logger.Logger
	store          store.Store
	bundles        storage.FileProvider
	clarifier      *composer.Clarifier
	generator      *composer.Generator
	publisher      *composer.Publisher
	importer       *converter.Importer
	limiter        *rateLimiter
	maxRequestSize int64
}

// Server is the assembled marketplace service.
type Server struct {
	cfg     *config.AppConfig
	log     logger.Logger
	metrics metrics.Metrics

	pool *pgxpool.Pool
	api  *api
}

// New builds the full component graph from configuration: database pool,
// bundle storage, LLM client, composer pipeline, and handlers.
func New(ctx context.Context, cfg *config.AppConfig, log logger.Logger) (*Server, error) {
	s := &Server{cfg: cfg, log: log}
	s.metrics = metrics.NewMetrics(cfg.Metrics.EnableHttpMetrics, cfg.Metrics.EnableComposerMetrics, log)

	if err := s.createDatabase(ctx); err != nil {
		return nil, err
	}
	if err := s.createComponents(ctx); err != nil {
		s.pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) createDatabase(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, s.cfg.Database.GetConnectionConfig())
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	s.pool = pool
	return nil
}

func (s *Server) createComponents(ctx context.Context) error {
	repo := store.NewRepository(s.pool, s.log)

	manager, err := storage.New(ctx, s.cfg.Storage.ManagerConfig())
	if err != nil {
		return fmt.Errorf("failed to create bundle storage: %w", err)
	}
	bundles := manager.Bundles()

	chat, err := llm.New(s.cfg.LLM.ClientConfig())
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	clarifier, err := composer.NewClarifier(composer.ClarifierConfig{
		Drafts: repo,
		Chat:   chat,
		Logger: s.log,
	})
	if err != nil {
		return fmt.Errorf("failed to create clarifier: %w", err)
	}

	generator, err := composer.NewGenerator(composer.GeneratorConfig{
		Drafts:  repo,
		Catalog: repo,
		Chat:    chat,
		Logger:  s.log,
		Metrics: s.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	publisher, err := composer.NewPublisher(composer.PublisherConfig{
		Drafts:  repo,
		Catalog: repo,
		Bundles: bundles,
		Logger:  s.log,
		Metrics: s.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}

	importer, err := converter.NewImporter(s.log)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}

	var limiter *rateLimiter
	if s.cfg.Composer.RateLimitEnabled {
		limiter = newRateLimiter(s.cfg.Composer.GenerationsPerHour, time.Hour)
	}

	s.api = &api{
		log:            s.log,
		store:          repo,
		bundles:        bundles,
		clarifier:      clarifier,
		generator:      generator,
		publisher:      publisher,
		importer:       importer,
		limiter:        limiter,
		maxRequestSize: s.cfg.Security.MaxRequestSize,
	}
	return nil
}

// router builds the chi router with the shared middleware stack. Streaming
// middleware settings apply across the API: a request timeout or response
// compression would break the SSE generation stream.
func (a *api) router(log logger.Logger, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	mw := httpmiddleware.StreamConfig()
	mw.Logger = log
	mw.EnableLogging = true
	if len(corsOrigins) > 0 {
		cors := httpmiddleware.DefaultCORSConfig()
		cors.AllowedOrigins = corsOrigins
		mw.CORS = &cors
	}
	httpmiddleware.ApplyToRouter(r, mw)

	r.Route("/api", func(r chi.Router) {
		r.Route("/skills", func(r chi.Router) {
			r.Use(a.optionalAuth)
			r.Get("/", a.handleListSkills)
			r.Get("/{skillID}", a.handleGetSkill)
			r.Get("/{skillID}/download", a.handleDownloadSkill)
		})

		r.Route("/composer", func(r chi.Router) {
			r.Use(a.requireAuth)
			r.Post("/clarify", a.handleClarify)
			r.Post("/generate/stream", a.handleGenerateStream)
			r.Post("/regenerate/stream", a.handleRegenerateStream)
			r.Post("/publish", a.handlePublish)
			r.Get("/creations", a.handleListCreations)
			r.Get("/creations/{creationID}", a.handleGetCreation)
			r.Put("/creations/{creationID}/output", a.handleSaveOutput)
		})

		r.Route("/converter", func(r chi.Router) {
			r.Use(a.requireAuth)
			r.Post("/github", a.handleConvertGitHub)
			r.Post("/github/pick", a.handleConvertPick)
			r.Post("/paste", a.handleConvertPaste)
			r.Post("/validate", a.handleValidate)
		})
	})

	return r
}

// Run starts the HTTP server (and the metrics listener when configured) and
// blocks until the context is cancelled or a termination signal arrives, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Metrics.ExposeMetrics {
		s.metrics.Listen(s.cfg.Metrics.Port)
	}

	httpServer := &http.Server{
		Addr:           fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler:        s.api.router(s.log, s.cfg.Security.CORSAllowedOrigins),
		ReadTimeout:    s.cfg.HTTP.ReadTimeout(),
		IdleTimeout:    s.cfg.HTTP.IdleTimeout(),
		MaxHeaderBytes: s.cfg.HTTP.MaxHeaderBytes,
		// WriteTimeout stays unset: generation streams outlive any
		// reasonable fixed deadline. Per-route limits come from the
		// middleware stack instead.
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logger.IntField("port", s.cfg.HTTP.Port))
		errChan <- httpServer.ListenAndServe()
		close(errChan)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-utils.MergeErrorChans(errChan):
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
	case sig := <-sigChan:
		s.log.Info("shutdown signal received", logger.StringField("signal", sig.String()))
	case <-ctx.Done():
		s.log.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("graceful shutdown failed", logger.ErrorField(err))
	}

	s.pool.Close()
	s.log.Info("server stopped")
	return nil
}
