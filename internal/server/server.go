// Package server exposes crawl runs over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quote_spider/internal/app"
	"quote_spider/internal/config"
	"quote_spider/internal/logger"
	"quote_spider/internal/models"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

// Runner starts crawl runs.
type Runner interface {
	Start(ctx context.Context, req models.CrawlRequest) (*app.Future, error)
}

// RunHistory reads persisted run summaries.
type RunHistory interface {
	GetRun(ctx context.Context, id string) (*models.CrawlHistory, error)
	ListRuns(ctx context.Context, tag string, limit int) ([]models.CrawlHistory, error)
	Ping(ctx context.Context) error
}

type Server struct {
	router  *gin.Engine
	server  *http.Server
	runner  Runner
	history RunHistory // nil when history is disabled
	log     logger.Logger
}

func New(cfg config.ServerConfig, runner Runner, history RunHistory, log logger.Logger) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(log))

	s := &Server{
		router:  router,
		runner:  runner,
		history: history,
		log:     log,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/search", s.handleSearch)
	s.router.GET("/runs", s.handleListRuns)
	s.router.GET("/runs/:id", s.handleGetRun)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logger.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}
