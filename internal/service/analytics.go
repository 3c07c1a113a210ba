package service

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// DefaultTrendMonths is used when GetAnalytics is called with months <= 0.
const DefaultTrendMonths = 6

// DistributionPoint is one slice of the tumor distribution chart.
type DistributionPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// WeeklyPoint is one day of the weekly analytics chart.
type WeeklyPoint struct {
	Day      string `json:"day"`
	Analyses int    `json:"analyses"`
	Accuracy int    `json:"accuracy"`
}

// MonthlyPoint is one month of the trends chart.
type MonthlyPoint struct {
	Month      string `json:"month"`
	Total      int    `json:"total"`
	Critical   int    `json:"critical"`
	Normal     int    `json:"normal"`
	Confidence int    `json:"confidence"`
}

// Analytics bundles the chart series shown on the analytics view.
type Analytics struct {
	TumorDistribution []DistributionPoint `json:"tumor_distribution"`
	Weekly            []WeeklyPoint       `json:"weekly"`
	Monthly           []MonthlyPoint      `json:"monthly"`
}

var tumorColors = map[string]string{
	"No Tumor":        "#10b981",
	"Glioma":          "#ef4444",
	"Meningioma":      "#f59e0b",
	"Pituitary Tumor": "#8b5cf6",
}

const defaultTumorColor = "#6b7280"

// GetAnalytics reads the three statistics series concurrently and shapes them
// for charts.
func (s *MedicalService) GetAnalytics(ctx context.Context, months int) (*Analytics, error) {
	if months <= 0 {
		months = DefaultTrendMonths
	}

	var (
		distribution []domain.TumorTypeDistribution
		weekly       []domain.WeeklyAnalytics
		monthly      []domain.MonthlyTrends
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		distribution, err = s.sources.Statistics.TumorDistribution(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		weekly, err = s.sources.Statistics.WeeklyAnalytics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		monthly, err = s.sources.Statistics.MonthlyTrends(gctx, months)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Analytics{
		TumorDistribution: FormatTumorDistribution(distribution),
		Weekly:            FormatWeeklyAnalytics(weekly),
		Monthly:           FormatMonthlyTrends(monthly),
	}, nil
}

// FormatTumorDistribution assigns each tumor class its chart color.
func FormatTumorDistribution(distribution []domain.TumorTypeDistribution) []DistributionPoint {
	points := make([]DistributionPoint, 0, len(distribution))
	for _, item := range distribution {
		color, ok := tumorColors[item.Name]
		if !ok {
			color = defaultTumorColor
		}
		points = append(points, DistributionPoint{Name: item.Name, Value: item.Count, Color: color})
	}
	return points
}

func FormatWeeklyAnalytics(weekly []domain.WeeklyAnalytics) []WeeklyPoint {
	points := make([]WeeklyPoint, 0, len(weekly))
	for _, item := range weekly {
		points = append(points, WeeklyPoint{
			Day:      item.Day,
			Analyses: item.TotalAnalyses,
			Accuracy: roundPercent(item.AverageConfidence),
		})
	}
	return points
}

// FormatMonthlyTrends labels each month as "Jan 2025".
func FormatMonthlyTrends(trends []domain.MonthlyTrends) []MonthlyPoint {
	points := make([]MonthlyPoint, 0, len(trends))
	for _, item := range trends {
		month := item.Month
		if r := []rune(month); len(r) > 3 {
			month = string(r[:3])
		}
		points = append(points, MonthlyPoint{
			Month:      fmt.Sprintf("%s %d", month, item.Year),
			Total:      item.TotalDiagnoses,
			Critical:   item.CriticalFindings,
			Normal:     item.NormalFindings,
			Confidence: roundPercent(item.AverageConfidence),
		})
	}
	return points
}

func roundPercent(ratio float64) int {
	return int(math.Floor(ratio*100 + 0.5))
}
