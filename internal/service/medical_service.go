// Package service implements the diagnosis hub's business layer: the
// aggregation of the three diagnosis collections into one recency-ordered
// view, per-domain severity and label formatting, and the write paths that
// dispatch back to the owning collection.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/pkg/external"
)

// DefaultPerSourceCap bounds how many records are fetched from each
// collection when merging. Records beyond it are excluded from the merged
// view while still counted in Total.
const DefaultPerSourceCap = 1000

// DefaultPageLimit is the page size used when a caller gives none.
const DefaultPageLimit = 100

// DefaultRecentActivityLimit is the number of rows shown on the dashboard.
const DefaultRecentActivityLimit = 10

// DiagnosisPage is one window of the merged, recency-ordered collection.
// Total is the sum of the source-reported totals and can exceed the number of
// merged records once a collection holds more than the per-source cap.
type DiagnosisPage struct {
	Results           []domain.Diagnosis `json:"results"`
	Total             int                `json:"total"`
	BrainTumorTotal   int                `json:"brain_tumor_total"`
	BreastCancerTotal int                `json:"breast_cancer_total"`
	StrokeTotal       int                `json:"stroke_total"`
}

// DashboardSummary combines the statistics counts with normalized recent
// activity.
type DashboardSummary struct {
	TotalDiagnoses        int                `json:"total_diagnoses"`
	BrainTumorDiagnoses   int                `json:"brain_tumor_diagnoses"`
	BreastCancerDiagnoses int                `json:"breast_cancer_diagnoses"`
	StrokeDiagnoses       int                `json:"stroke_diagnoses"`
	CriticalFindings      int                `json:"critical_findings"`
	NormalFindings        int                `json:"normal_findings"`
	WarningFindings       int                `json:"warning_findings"`
	AccuracyRate          float64            `json:"accuracy_rate"`
	RecentActivity        []domain.Diagnosis `json:"recent_activity"`
}

// Options tunes a MedicalService. Zero values select the defaults.
type Options struct {
	PerSourceCap        int
	RecentActivityLimit int
	StatsCache          *external.StatsCache
	Snapshots           *SnapshotCache
}

// MedicalService coordinates the three diagnosis collections.
type MedicalService struct {
	sources             external.Sources
	statsCache          *external.StatsCache
	snapshots           *SnapshotCache
	perSourceCap        int
	recentActivityLimit int
	logger              *logrus.Logger
}

// NewMedicalService creates a new medical service
func NewMedicalService(sources external.Sources, opts Options, logger *logrus.Logger) *MedicalService {
	if opts.PerSourceCap <= 0 {
		opts.PerSourceCap = DefaultPerSourceCap
	}
	if opts.RecentActivityLimit <= 0 {
		opts.RecentActivityLimit = DefaultRecentActivityLimit
	}
	return &MedicalService{
		sources:             sources,
		statsCache:          opts.StatsCache,
		snapshots:           opts.Snapshots,
		perSourceCap:        opts.PerSourceCap,
		recentActivityLimit: opts.RecentActivityLimit,
		logger:              logger,
	}
}

// GetAllDiagnoses returns the [skip, skip+limit) window of every diagnosis
// across the three collections, newest first. Negative arguments are treated
// as zero. Any failing collection fails the whole call.
func (s *MedicalService) GetAllDiagnoses(ctx context.Context, skip, limit int) (*DiagnosisPage, error) {
	skip, limit = max(skip, 0), max(limit, 0)

	userKey := domain.UserKey(ctx)
	snap, ok := s.snapshots.get(userKey)
	if !ok {
		var err error
		snap, err = s.fetchSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		s.snapshots.add(userKey, snap)
	}

	return snap.page(skip, limit), nil
}

// fetchSnapshot lists the three collections concurrently, normalizes, merges
// in brain tumor, breast cancer, stroke order and sorts by recency.
func (s *MedicalService) fetchSnapshot(ctx context.Context) (*snapshot, error) {
	start := time.Now()

	var (
		brainTumor   *domain.ListResponse[domain.BrainTumorRecord]
		breastCancer *domain.ListResponse[domain.BreastCancerRecord]
		stroke       *domain.ListResponse[domain.StrokeRecord]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		brainTumor, err = s.sources.BrainTumor.List(gctx, 0, s.perSourceCap)
		return err
	})
	g.Go(func() error {
		var err error
		breastCancer, err = s.sources.BreastCancer.List(gctx, 0, s.perSourceCap)
		return err
	})
	g.Go(func() error {
		var err error
		stroke, err = s.sources.Stroke.List(gctx, 0, s.perSourceCap)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]domain.Diagnosis, 0, len(brainTumor.Results)+len(breastCancer.Results)+len(stroke.Results))
	items = append(items, normalizeAll(brainTumor.Results, NormalizeBrainTumor)...)
	items = append(items, normalizeAll(breastCancer.Results, NormalizeBreastCancer)...)
	items = append(items, normalizeAll(stroke.Results, NormalizeStroke)...)
	SortByRecency(items)

	s.logger.WithFields(logrus.Fields{
		"brain_tumor_fetched":   len(brainTumor.Results),
		"breast_cancer_fetched": len(breastCancer.Results),
		"stroke_fetched":        len(stroke.Results),
		"merged":                len(items),
		"duration_ms":           time.Since(start).Milliseconds(),
	}).Debug("Merged diagnosis collections")

	return &snapshot{
		items:             items,
		brainTumorTotal:   brainTumor.Total,
		breastCancerTotal: breastCancer.Total,
		strokeTotal:       stroke.Total,
	}, nil
}

// SortByRecency orders diagnoses by created_at descending. The sort is
// stable; records with unparseable timestamps sort last.
func SortByRecency(items []domain.Diagnosis) {
	type keyed struct {
		d domain.Diagnosis
		t time.Time
	}
	keys := make([]keyed, len(items))
	for i, d := range items {
		keys[i] = keyed{d: d, t: d.Common().CreatedTime()}
	}
	slices.SortStableFunc(keys, func(a, b keyed) int {
		return b.t.Compare(a.t)
	})
	for i := range keys {
		items[i] = keys[i].d
	}
}

// GetDashboardStats reads the statistics endpoints and normalizes the recent
// activity rows.
func (s *MedicalService) GetDashboardStats(ctx context.Context) (*DashboardSummary, error) {
	userKey := domain.UserKey(ctx)
	if userKey != "" {
		cached, found, err := s.statsCache.Get(ctx, userKey)
		if err != nil {
			s.logger.WithError(err).Warn("Dashboard cache read failed")
		}
		if found {
			return newDashboardSummary(&cached.Stats, cached.RecentActivity), nil
		}
	}

	var (
		stats  *domain.DashboardStats
		recent []domain.RecentActivity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.sources.Statistics.Dashboard(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.sources.Statistics.RecentActivity(gctx, s.recentActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if userKey != "" {
		if err := s.statsCache.Set(ctx, userKey, *stats, recent); err != nil {
			s.logger.WithError(err).Warn("Dashboard cache write failed")
		}
	}

	return newDashboardSummary(stats, recent), nil
}

func newDashboardSummary(stats *domain.DashboardStats, recent []domain.RecentActivity) *DashboardSummary {
	activity := make([]domain.Diagnosis, 0, len(recent))
	for _, row := range recent {
		activity = append(activity, NormalizeRecentActivity(row))
	}
	return &DashboardSummary{
		TotalDiagnoses:        stats.TotalDiagnoses,
		BrainTumorDiagnoses:   stats.BrainTumorDiagnoses,
		BreastCancerDiagnoses: stats.BreastCancerDiagnoses,
		StrokeDiagnoses:       stats.StrokeDiagnoses,
		CriticalFindings:      stats.CriticalFindings,
		NormalFindings:        stats.NormalFindings,
		WarningFindings:       stats.WarningFindings,
		AccuracyRate:          stats.AccuracyRate,
		RecentActivity:        activity,
	}
}

// GetSeverityLevel returns the severity tier of any record.
func (s *MedicalService) GetSeverityLevel(d domain.Diagnosis) domain.Severity {
	return SeverityOf(d)
}

// FormatPredictionClass returns the display label of any record.
func (s *MedicalService) FormatPredictionClass(d domain.Diagnosis) string {
	return DisplayLabelOf(d)
}

// GetDiagnosis re-reads one record from its owning collection.
func (s *MedicalService) GetDiagnosis(ctx context.Context, d domain.Diagnosis) (domain.Diagnosis, error) {
	id := d.Common().ID
	switch d.(type) {
	case *domain.BrainTumorDiagnosis:
		rec, err := s.sources.BrainTumor.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return NormalizeBrainTumor(*rec), nil
	case *domain.BreastCancerDiagnosis:
		rec, err := s.sources.BreastCancer.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return NormalizeBreastCancer(*rec), nil
	case *domain.StrokeDiagnosis:
		rec, err := s.sources.Stroke.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return NormalizeStroke(*rec), nil
	default:
		return nil, domain.ErrUnknownDiagnosisType
	}
}

// DeleteDiagnosis deletes a record through its owning collection. Records of
// an unknown domain are rejected with ErrUnknownDiagnosisType.
func (s *MedicalService) DeleteDiagnosis(ctx context.Context, d domain.Diagnosis) (*domain.MessageResponse, error) {
	id := d.Common().ID

	var (
		msg *domain.MessageResponse
		err error
	)
	switch d.(type) {
	case *domain.BrainTumorDiagnosis:
		msg, err = s.sources.BrainTumor.Delete(ctx, id)
	case *domain.BreastCancerDiagnosis:
		msg, err = s.sources.BreastCancer.Delete(ctx, id)
	case *domain.StrokeDiagnosis:
		msg, err = s.sources.Stroke.Delete(ctx, id)
	default:
		return nil, domain.ErrUnknownDiagnosisType
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{
		"diagnosis_type": d.Common().DiagnosisType,
		"diagnosis_id":   id,
	}).Info("Diagnosis deleted")
	return msg, nil
}

// UpdateDiagnosisNotes replaces a record's notes and returns the updated
// record.
func (s *MedicalService) UpdateDiagnosisNotes(ctx context.Context, d domain.Diagnosis, notes string) (domain.Diagnosis, error) {
	id := d.Common().ID
	update := domain.DiagnosisUpdate{Notes: &notes}

	var updated domain.Diagnosis
	switch d.(type) {
	case *domain.BrainTumorDiagnosis:
		rec, err := s.sources.BrainTumor.Update(ctx, id, update)
		if err != nil {
			return nil, err
		}
		updated = NormalizeBrainTumor(*rec)
	case *domain.BreastCancerDiagnosis:
		rec, err := s.sources.BreastCancer.Update(ctx, id, update)
		if err != nil {
			return nil, err
		}
		updated = NormalizeBreastCancer(*rec)
	case *domain.StrokeDiagnosis:
		rec, err := s.sources.Stroke.Update(ctx, id, update)
		if err != nil {
			return nil, err
		}
		updated = NormalizeStroke(*rec)
	default:
		return nil, domain.ErrUnknownDiagnosisType
	}

	s.invalidate(ctx)
	return updated, nil
}

// Analyze uploads an image to the collection named by diagnosisType and
// returns the created record. For breast cancer the sub-mode may come from
// the upload or from a "breast_cancer_<mode>" type.
func (s *MedicalService) Analyze(ctx context.Context, diagnosisType string, upload domain.Upload) (domain.Diagnosis, error) {
	kind, ok := domain.ParseDiagnosisType(diagnosisType)
	if !ok {
		return nil, domain.ErrUnknownDiagnosisType
	}

	var created domain.Diagnosis
	switch kind {
	case domain.BrainTumor:
		rec, err := s.sources.BrainTumor.Diagnose(ctx, upload)
		if err != nil {
			return nil, err
		}
		created = NormalizeBrainTumor(*rec)
	case domain.BreastCancer:
		if upload.AnalysisType == "" {
			upload.AnalysisType = domain.AnalysisTypeFromDiagnosisType(diagnosisType)
		}
		if upload.AnalysisType != "" && !upload.AnalysisType.IsValid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAnalysisType, upload.AnalysisType)
		}
		rec, err := s.sources.BreastCancer.Diagnose(ctx, upload)
		if err != nil {
			return nil, err
		}
		created = NormalizeBreastCancer(*rec)
	default:
		rec, err := s.sources.Stroke.Diagnose(ctx, upload)
		if err != nil {
			return nil, err
		}
		created = NormalizeStroke(*rec)
	}

	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{
		"diagnosis_type": created.Common().DiagnosisType,
		"diagnosis_id":   created.Common().ID,
		"severity":       SeverityOf(created),
	}).Info("Diagnosis created")
	return created, nil
}

// invalidate drops the caller's cached views after a write.
func (s *MedicalService) invalidate(ctx context.Context) {
	userKey := domain.UserKey(ctx)
	if userKey == "" {
		return
	}
	s.snapshots.Invalidate(userKey)
	if err := s.statsCache.Invalidate(ctx, userKey); err != nil {
		s.logger.WithError(err).Warn("Dashboard cache invalidation failed")
	}
}

// IsUnavailable reports whether err means a source's breaker is open.
func IsUnavailable(err error) bool {
	return errors.Is(err, external.ErrSourceUnavailable)
}
