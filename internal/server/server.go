// Package server exposes the quiz service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apoorv/socratic/internal/logger"
	"github.com/apoorv/socratic/internal/quiz"
)

// Config controls the HTTP listener.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Server wraps the gin engine and its http.Server.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	quiz   *quiz.Service
	log    *logger.Logger
	config Config
}

// New builds the server and registers all routes.
func New(svc *quiz.Service, cfg Config, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine: engine,
		quiz:   svc,
		log:    log.With("component", "server"),
		config: cfg,
	}

	engine.Use(gin.Recovery(), s.requestLog())
	s.routes()

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/levels", s.handleLevels)
		v1.GET("/users/:userID/topics", s.handleTopicTree)
		v1.GET("/users/:userID/mastery", s.handleMasteryOverview)
		v1.GET("/users/:userID/mastery/:topicID", s.handleMasteryStatus)

		v1.POST("/sessions", s.handleStartSession)
		v1.GET("/sessions/:sessionID/next", s.handleNextQuestion)
		v1.POST("/sessions/:sessionID/actions", s.handleAction)
		v1.GET("/sessions/:sessionID", s.handleProgress)
		v1.DELETE("/sessions/:sessionID", s.handleEndSession)
	}
}

// Run serves until the context is canceled, then drains connections
// within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.config.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.log.Info("shutting down http server")
	return s.http.Shutdown(shutdownCtx)
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
