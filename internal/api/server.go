package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/plancheck/plancheck/internal/conf"
	"github.com/plancheck/plancheck/internal/logging"
	"github.com/plancheck/plancheck/internal/observability"
)

// Converter turns proprietary binary CAD bytes into DXF bytes. Satisfied by
// *convert.Client; tests substitute a stub.
type Converter interface {
	Convert(ctx context.Context, drawing []byte) ([]byte, error)
}

// Server is the main HTTP server for the validation service.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	slogger  *slog.Logger
	levelVar *slog.LevelVar

	// Dependencies
	converter Converter
	metrics   *observability.Metrics

	startTime time.Time

	// Cleanup
	logCloser func() error
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithConverter sets the CAD conversion client for the server.
func WithConverter(converter Converter) ServerOption {
	return func(s *Server) {
		s.converter = converter
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.initLogger()

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.slogger.Info("HTTP server initialized",
		"address", config.Address(),
		"body_limit", config.BodyLimit,
		"debug", config.Debug,
	)

	return s, nil
}

// initLogger initializes the structured logger for the server.
func (s *Server) initLogger() {
	s.levelVar = new(slog.LevelVar)
	if s.config.Debug {
		s.levelVar.Set(slog.LevelDebug)
	} else {
		s.levelVar.Set(slog.LevelInfo)
	}

	logger, closer, err := logging.NewFileLogger(DefaultLogPath, "server", s.levelVar)
	if err != nil {
		// Fallback to discard logger
		s.slogger = logging.NewDiscardLogger("server", s.levelVar)
		s.logCloser = func() error { return nil }
		return
	}

	s.slogger = logger
	s.logCloser = closer
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	// Request logging to the server's structured logger
	s.echo.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error.Error())
				s.slogger.Error("request", attrs...)
			} else {
				s.slogger.Info("request", attrs...)
			}
			return nil
		},
	}))

	// Body limit middleware
	s.echo.Use(echomw.BodyLimit(s.config.BodyLimit))

	// Gzip compression
	s.echo.Use(echomw.Gzip())
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.handleHealth)

	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/healthz", s.handleHealth)
	v1.POST("/validate", s.handleValidate)
}

// handleHealth reports liveness and uptime.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}

// Start runs the HTTP server until it is shut down. A closed-server return
// from echo is treated as a clean exit.
func (s *Server) Start() error {
	s.slogger.Info("HTTP server starting", "address", s.config.Address())
	err := s.echo.Start(s.config.Address())
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and closes the server log.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.slogger.Info("HTTP server shutting down")
	err := s.echo.Shutdown(shutdownCtx)

	if s.logCloser != nil {
		if closeErr := s.logCloser(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// Echo exposes the underlying echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
