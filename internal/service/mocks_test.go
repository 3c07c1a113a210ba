package service

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/pkg/external"
)

// MockSource is a mock implementation of domain.Source
type MockSource[T any] struct {
	mock.Mock
}

func (m *MockSource[T]) List(ctx context.Context, skip, limit int) (*domain.ListResponse[T], error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ListResponse[T]), args.Error(1)
}

func (m *MockSource[T]) Get(ctx context.Context, id int64) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockSource[T]) Update(ctx context.Context, id int64, update domain.DiagnosisUpdate) (*T, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockSource[T]) Delete(ctx context.Context, id int64) (*domain.MessageResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MessageResponse), args.Error(1)
}

func (m *MockSource[T]) Diagnose(ctx context.Context, upload domain.Upload) (*T, error) {
	args := m.Called(ctx, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

// MockStatistics is a mock implementation of domain.StatisticsSource
type MockStatistics struct {
	mock.Mock
}

func (m *MockStatistics) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardStats), args.Error(1)
}

func (m *MockStatistics) RecentActivity(ctx context.Context, limit int) ([]domain.RecentActivity, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecentActivity), args.Error(1)
}

func (m *MockStatistics) TumorDistribution(ctx context.Context) ([]domain.TumorTypeDistribution, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TumorTypeDistribution), args.Error(1)
}

func (m *MockStatistics) WeeklyAnalytics(ctx context.Context) ([]domain.WeeklyAnalytics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WeeklyAnalytics), args.Error(1)
}

func (m *MockStatistics) MonthlyTrends(ctx context.Context, months int) ([]domain.MonthlyTrends, error) {
	args := m.Called(ctx, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonthlyTrends), args.Error(1)
}

type mockSources struct {
	brainTumor   *MockSource[domain.BrainTumorRecord]
	breastCancer *MockSource[domain.BreastCancerRecord]
	stroke       *MockSource[domain.StrokeRecord]
	statistics   *MockStatistics
}

func newMockSources() *mockSources {
	return &mockSources{
		brainTumor:   new(MockSource[domain.BrainTumorRecord]),
		breastCancer: new(MockSource[domain.BreastCancerRecord]),
		stroke:       new(MockSource[domain.StrokeRecord]),
		statistics:   new(MockStatistics),
	}
}

func (m *mockSources) sources() external.Sources {
	return external.Sources{
		BrainTumor:   m.brainTumor,
		BreastCancer: m.breastCancer,
		Stroke:       m.stroke,
		Statistics:   m.statistics,
	}
}

func (m *mockSources) assertExpectations(t mock.TestingT) {
	m.brainTumor.AssertExpectations(t)
	m.breastCancer.AssertExpectations(t)
	m.stroke.AssertExpectations(t)
	m.statistics.AssertExpectations(t)
}

// expectLists stubs one List call per collection.
func (m *mockSources) expectLists(
	brainTumor []domain.BrainTumorRecord, brainTumorTotal int,
	breastCancer []domain.BreastCancerRecord, breastCancerTotal int,
	stroke []domain.StrokeRecord, strokeTotal int,
) {
	m.brainTumor.On("List", mock.Anything, 0, DefaultPerSourceCap).
		Return(&domain.ListResponse[domain.BrainTumorRecord]{Results: brainTumor, Total: brainTumorTotal}, nil)
	m.breastCancer.On("List", mock.Anything, 0, DefaultPerSourceCap).
		Return(&domain.ListResponse[domain.BreastCancerRecord]{Results: breastCancer, Total: breastCancerTotal}, nil)
	m.stroke.On("List", mock.Anything, 0, DefaultPerSourceCap).
		Return(&domain.ListResponse[domain.StrokeRecord]{Results: stroke, Total: strokeTotal}, nil)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strPtr(s string) *string {
	return &s
}
