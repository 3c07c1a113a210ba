// Package app assembles the service graph shared by the HTTP and MCP
// entrypoints.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/internal/metrics"
	"github.com/medimaging-diagnosis-hub/internal/service"
	"github.com/medimaging-diagnosis-hub/pkg/external"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "diagnosis_hub"

// App holds the long-lived components built once per process.
type App struct {
	Metrics    *metrics.Collector
	Sources    *external.ResilientSources
	StatsCache *external.StatsCache
	Snapshots  *service.SnapshotCache
	Service    *service.MedicalService
	logger     *logrus.Logger
}

// New wires backend clients, breakers, caches and the aggregation service
// from configuration. Redis is optional; an empty cache.redis_url disables
// the stats cache.
func New(ctx context.Context, configManager domain.ConfigManager, logger *logrus.Logger) (*App, error) {
	cfg := configManager.GetConfig()
	collector := metrics.NewCollector(MetricsNamespace)

	client := external.NewClient(external.ClientConfigFrom(cfg.Backend), logger)
	resilient := external.NewResilientSources(
		external.NewSources(client),
		external.CircuitBreakerConfigFrom(cfg.CircuitBreaker),
		collector,
		logger,
	)

	statsCache, err := external.NewStatsCache(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats cache: %w", err)
	}
	if statsCache == nil {
		logger.Info("Redis not configured, dashboard stats cache disabled")
	}

	snapshots := service.NewSnapshotCache(cfg.Cache.SnapshotSize, cfg.Cache.SnapshotTTL, collector)

	svc := service.NewMedicalService(resilient.Sources(), service.Options{
		PerSourceCap:        cfg.Backend.PerSourceCap,
		RecentActivityLimit: cfg.Backend.RecentActivityLimit,
		StatsCache:          statsCache,
		Snapshots:           snapshots,
	}, logger)

	logger.WithFields(logrus.Fields{
		"backend":        cfg.Backend.BaseURL,
		"per_source_cap": cfg.Backend.PerSourceCap,
		"snapshot_cache": cfg.Cache.SnapshotSize,
	}).Info("Diagnosis service initialized")

	return &App{
		Metrics:    collector,
		Sources:    resilient,
		StatsCache: statsCache,
		Snapshots:  snapshots,
		Service:    svc,
		logger:     logger,
	}, nil
}

// Close releases the Redis connection, if any.
func (a *App) Close() error {
	if err := a.StatsCache.Close(); err != nil {
		a.logger.WithError(err).Error("Failed to close stats cache")
		return err
	}
	return nil
}
