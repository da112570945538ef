// Package http exposes the lab over a small JSON API.
package http

import (
	"context"
	"sync"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/config"
	"github.com/gear6io/sqllab/server/progress"
	"github.com/gear6io/sqllab/server/runner"
	"github.com/gear6io/sqllab/server/sandbox"
	"github.com/gear6io/sqllab/server/tutorial"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// SessionHeader carries the learner session id; one is issued when absent
const SessionHeader = "X-Sqllab-Session"

// SchemaBrowser lists tables and describes them
type SchemaBrowser interface {
	Tables(ctx context.Context) ([]string, error)
	TableSchema(ctx context.Context, table string) ([]sandbox.ColumnInfo, error)
}

// Deps are the services the API serves from
type Deps struct {
	Runner   *runner.Runner
	Schema   SchemaBrowser
	Catalog  *tutorial.Catalog
	Progress *progress.Store
}

// cleanupInterval caps how often finished queries are swept from history
const cleanupInterval = time.Minute

// Server represents the HTTP API server
type Server struct {
	cfg      config.ServerConfig
	deps     Deps
	app      *fiber.App
	logger   zerolog.Logger
	wg       sync.WaitGroup
	errCh    chan error
	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a new HTTP server instance
func NewServer(cfg config.ServerConfig, deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("component", "http-server").Logger(),
		errCh:  make(chan error, 1),
		stop:   make(chan struct{}),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "sqllab",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.RequestTimeout,
		WriteTimeout:          cfg.RequestTimeout,
		ErrorHandler:          s.handleError,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(s.session)
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")
	api.Post("/validate", s.handleValidate)
	api.Post("/query", s.handleQuery)
	api.Get("/tables", s.handleTables)
	api.Get("/tables/:name", s.handleTableSchema)
	api.Get("/tutorials", s.handleTutorials)
	api.Get("/tutorials/:id", s.handleTutorial)
	api.Get("/queries", s.handleQueries)
	api.Get("/queries/:id", s.handleQueryInfo)
	api.Delete("/queries/:id", s.handleCancelQuery)
}

// App returns the fiber application, used by tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts listening in the background
func (s *Server) Start() {
	s.logger.Info().Str("address", s.cfg.Address).Msg("Starting HTTP server")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.app.Listen(s.cfg.Address); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server error")
			s.errCh <- errors.New(ErrListenFailed, "HTTP server stopped", err).AddContext("address", s.cfg.Address)
		}
	}()

	if s.cfg.HistoryMaxAge > 0 {
		s.wg.Add(1)
		go s.cleanupLoop()
	}
}

// cleanupLoop drops finished queries past history_max_age until Stop
func (s *Server) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(min(s.cfg.HistoryMaxAge, cleanupInterval))
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Server) sweep() int {
	removed := s.deps.Runner.Manager().CleanupCompletedQueries(s.cfg.HistoryMaxAge)
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Dur("max_age", s.cfg.HistoryMaxAge).Msg("Swept query history")
	}
	return removed
}

// Done delivers the listener error if the server stops on its own
func (s *Server) Done() <-chan error {
	return s.errCh
}

// Stop shuts the server down, waiting for in-flight requests
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping HTTP server")
	s.stopOnce.Do(func() { close(s.stop) })

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	if serr := s.app.ShutdownWithContext(shutdownCtx); serr != nil {
		err = errors.New(ErrShutdownFailed, "HTTP server shutdown failed", serr)
	}

	s.wg.Wait()
	s.logger.Info().Msg("HTTP server stopped")
	return err
}
