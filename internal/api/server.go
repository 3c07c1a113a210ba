// Package api serves the dashboard views over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/internal/health"
	"github.com/medimaging-diagnosis-hub/internal/metrics"
	"github.com/medimaging-diagnosis-hub/internal/middleware"
	"github.com/medimaging-diagnosis-hub/internal/preferences"
	"github.com/medimaging-diagnosis-hub/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Dependencies are the components the handlers call.
type Dependencies struct {
	Service     *service.MedicalService
	Preferences preferences.Store
	Health      *health.Checker
	Metrics     *metrics.Collector
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	deps          Dependencies
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	var observer middleware.HTTPObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger, observer))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	router.Use(middleware.BearerAuth(middleware.NewUserKeys(cfg.Auth)))

	s := &Server{
		configManager: configManager,
		deps:          deps,
		logger:        logger,
		router:        router,
	}
	s.setupRoutes()

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/diagnoses", s.handleListDiagnoses)
		v1.GET("/diagnoses/:type/:id", s.handleGetDiagnosis)
		v1.PATCH("/diagnoses/:type/:id", s.handleUpdateNotes)
		v1.DELETE("/diagnoses/:type/:id", s.handleDeleteDiagnosis)
		v1.POST("/diagnoses/:type/analyze", s.handleAnalyze)

		v1.GET("/dashboard", s.handleDashboard)
		v1.GET("/analytics", s.handleAnalytics)
		v1.GET("/analysis-types", s.handleAnalysisTypes)

		v1.GET("/preferences", s.handleGetPreferences)
		v1.PUT("/preferences", s.handleUpdatePreferences)
		v1.DELETE("/preferences", s.handleResetPreferences)
	}
}

// handleHealth answers 200 while the service can serve requests, including
// degraded states, and 503 once a required component is down.
func (s *Server) handleHealth(c *gin.Context) {
	if s.deps.Health == nil {
		c.JSON(http.StatusOK, gin.H{"status": health.StateHealthy, "timestamp": time.Now().UTC()})
		return
	}

	status := s.deps.Health.Status(c.Request.Context())
	code := http.StatusOK
	if status.Overall == health.StateUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
