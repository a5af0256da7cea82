// Package api exposes the pricing engine over a small JSON HTTP interface.
package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"optionflow/internal/analyst"
	"optionflow/internal/models"
	"optionflow/internal/performance"
	"optionflow/internal/store"
)

// Options configures a Server.
type Options struct {
	Addr         string
	Mode         string // gin mode: debug, release, test
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string

	// Defaults fills parameters a request leaves out.
	Defaults models.OptionParameters

	// Analyst serves /v1/analyze; nil answers 503.
	Analyst *analyst.Analyst

	// RateLimit is requests per second; zero disables limiting. Burst
	// defaults to the rate rounded up, and at least one.
	RateLimit float64
	Burst     int
}

// Server serves the pricing endpoints.
type Server struct {
	opts    Options
	engine  *gin.Engine
	store   store.ScenarioStore
	pool    *performance.WorkerPool
	limiter *performance.RateLimiter
	logger  zerolog.Logger
}

// NewServer builds the router. scenarios may be nil, in which case scenario
// lookups are rejected. pool must be started by the caller.
func NewServer(opts Options, scenarios store.ScenarioStore, pool *performance.WorkerPool, logger zerolog.Logger) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	s := &Server{
		opts:   opts,
		engine: gin.New(),
		store:  scenarios,
		pool:   pool,
		logger: logger.With().Str("component", "api").Logger(),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = max(1, int(math.Ceil(opts.RateLimit)))
		}
		s.limiter = performance.NewRateLimiter(opts.RateLimit, burst)
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())
	if s.limiter != nil {
		s.engine.Use(s.rateLimit())
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/price", s.price)
		v1.GET("/decay", s.decay)
		v1.GET("/curve", s.curve)
		v1.GET("/ladder", s.ladder)
		v1.GET("/analyze", s.analyze)
		v1.GET("/scenarios", s.listScenarios)
		v1.GET("/scenarios/:name", s.getScenario)
		v1.GET("/scenarios/:name/history", s.scenarioHistory)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info().Msg("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
