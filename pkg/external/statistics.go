package external

import (
	"context"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// StatisticsClient reads the pre-aggregated /statistics endpoints.
type StatisticsClient struct {
	client  *Client
	limiter *rate.Limiter
}

// NewStatisticsClient creates a statistics client.
func NewStatisticsClient(client *Client) *StatisticsClient {
	return &StatisticsClient{client: client, limiter: client.newLimiter()}
}

func (c *StatisticsClient) get(ctx context.Context, operation, path string, query map[string]string, out any) error {
	req, err := c.client.request(ctx, c.limiter)
	if err != nil {
		return domain.NewSourceFetchError(SourceStatistics, operation, err)
	}

	resp, err := req.SetQueryParams(query).Get(path)
	if err != nil {
		return domain.NewSourceFetchError(SourceStatistics, operation, err)
	}
	if err := decode(resp, out); err != nil {
		return domain.NewSourceFetchError(SourceStatistics, operation, err)
	}
	return nil
}

// Dashboard returns the summary counts.
func (c *StatisticsClient) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	var stats domain.DashboardStats
	if err := c.get(ctx, "dashboard", "/statistics/dashboard", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecentActivity returns the most recent diagnoses across all domains.
func (c *StatisticsClient) RecentActivity(ctx context.Context, limit int) ([]domain.RecentActivity, error) {
	var rows []domain.RecentActivity
	query := map[string]string{"limit": strconv.Itoa(limit)}
	if err := c.get(ctx, "recent_activity", "/statistics/recent-activity", query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// TumorDistribution returns the per-class tumor counts.
func (c *StatisticsClient) TumorDistribution(ctx context.Context) ([]domain.TumorTypeDistribution, error) {
	var rows []domain.TumorTypeDistribution
	if err := c.get(ctx, "tumor_distribution", "/statistics/tumor-distribution", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// WeeklyAnalytics returns one row per day of the current week.
func (c *StatisticsClient) WeeklyAnalytics(ctx context.Context) ([]domain.WeeklyAnalytics, error) {
	var rows []domain.WeeklyAnalytics
	if err := c.get(ctx, "weekly_analytics", "/statistics/weekly-analytics", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// MonthlyTrends returns the last months of diagnosis trends.
func (c *StatisticsClient) MonthlyTrends(ctx context.Context, months int) ([]domain.MonthlyTrends, error) {
	var rows []domain.MonthlyTrends
	query := map[string]string{"months": strconv.Itoa(months)}
	if err := c.get(ctx, "monthly_trends", "/statistics/monthly-trends", query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
