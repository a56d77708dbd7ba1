// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes script generation over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jllopis/scriptcrew/pkg/config"
	"github.com/jllopis/scriptcrew/pkg/core"
	"github.com/jllopis/scriptcrew/pkg/jobs"
)

// Service is the orchestration surface the HTTP layer calls into.
type Service interface {
	Generate(ctx context.Context, brief jobs.Brief) (jobs.GenerateResult, error)
	Refine(ctx context.Context, script, feedback string, original core.Inputs) (jobs.RefineResult, error)
}

// Server is the HTTP front end.
type Server struct {
	service    Service
	engine     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	metrics    http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger used for access and error logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New creates a Server for service.
func New(service Service, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(s.logger))
	engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	s.engine = engine
	s.routes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/generate-script", s.handleGenerate)
	s.engine.POST("/refine-script", s.handleRefine)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics))
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight runs.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.httpServer.Shutdown(ctx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	return cfg
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
