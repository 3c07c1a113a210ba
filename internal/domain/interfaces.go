package domain

import (
	"context"
	"io"
)

// Upload is an image submitted for analysis.
type Upload struct {
	Filename     string
	Content      io.Reader
	Notes        string
	AnalysisType AnalysisType // breast cancer only; "" lets the backend choose
}

// Source is one paged diagnosis collection on the remote backend. Every
// domain exposes the same operations over its own record shape.
type Source[T any] interface {
	List(ctx context.Context, skip, limit int) (*ListResponse[T], error)
	Get(ctx context.Context, id int64) (*T, error)
	Update(ctx context.Context, id int64, update DiagnosisUpdate) (*T, error)
	Delete(ctx context.Context, id int64) (*MessageResponse, error)
	Diagnose(ctx context.Context, upload Upload) (*T, error)
}

// BrainTumorSource is the /diagnosis/ collection.
type BrainTumorSource = Source[BrainTumorRecord]

// BreastCancerSource is the /breast-cancer/ collection.
type BreastCancerSource = Source[BreastCancerRecord]

// StrokeSource is the /stroke/ collection.
type StrokeSource = Source[StrokeRecord]

// StatisticsSource serves the pre-aggregated dashboard endpoints.
type StatisticsSource interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	RecentActivity(ctx context.Context, limit int) ([]RecentActivity, error)
	TumorDistribution(ctx context.Context) ([]TumorTypeDistribution, error)
	WeeklyAnalytics(ctx context.Context) ([]WeeklyAnalytics, error)
	MonthlyTrends(ctx context.Context, months int) ([]MonthlyTrends, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetBackendConfig() *BackendConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
