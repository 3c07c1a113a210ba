package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/internal/middleware"
	"github.com/medimaging-diagnosis-hub/pkg/external"
)

func newTestService(m *mockSources, opts Options) *MedicalService {
	return NewMedicalService(m.sources(), opts, testLogger())
}

func idsOf(items []domain.Diagnosis) []string {
	out := make([]string, 0, len(items))
	for _, d := range items {
		out = append(out, fmt.Sprintf("%s#%d", d.Domain(), d.Common().ID))
	}
	return out
}

func TestGetAllDiagnoses_MergesAndSortsByRecency(t *testing.T) {
	m := newMockSources()
	m.expectLists(
		[]domain.BrainTumorRecord{
			{ID: 1, DiagnosisType: "brain_tumor", PredictedClass: "glioma", CreatedAt: "2024-01-01T00:00:00Z"},
			{ID: 2, DiagnosisType: "brain_tumor", PredictedClass: "notumor", CreatedAt: "2024-01-03T00:00:00Z"},
		}, 2,
		[]domain.BreastCancerRecord{
			{ID: 1, DiagnosisType: "breast_cancer", AnalysisType: "birads", PredictedClass: "BI-RADS 2 (Benign)", CreatedAt: "2024-01-02T00:00:00Z"},
		}, 1,
		nil, 0,
	)
	svc := newTestService(m, Options{})

	page, err := svc.GetAllDiagnoses(context.Background(), 0, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"brain_tumor#2", "breast_cancer#1", "brain_tumor#1"}, idsOf(page.Results))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.BrainTumorTotal)
	assert.Equal(t, 1, page.BreastCancerTotal)
	assert.Equal(t, 0, page.StrokeTotal)
	m.assertExpectations(t)
}

func TestGetAllDiagnoses_StableOnTiesAndUnparseableLast(t *testing.T) {
	m := newMockSources()
	m.expectLists(
		[]domain.BrainTumorRecord{
			{ID: 1, DiagnosisType: "brain_tumor", CreatedAt: "not a date"},
			{ID: 2, DiagnosisType: "brain_tumor", CreatedAt: "2024-05-01T10:00:00Z"},
		}, 2,
		[]domain.BreastCancerRecord{
			{ID: 3, DiagnosisType: "breast_cancer", CreatedAt: "2024-05-01T10:00:00Z"},
		}, 1,
		[]domain.StrokeRecord{
			{ID: 4, DiagnosisType: "stroke", CreatedAt: "2024-05-01T10:00:00.000000"},
			{ID: 5, DiagnosisType: "stroke", CreatedAt: "2024-06-01T08:30:00.123456"},
		}, 2,
	)
	svc := newTestService(m, Options{})

	page, err := svc.GetAllDiagnoses(context.Background(), 0, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"stroke#5",
		"brain_tumor#2",
		"breast_cancer#3",
		"stroke#4",
		"brain_tumor#1",
	}, idsOf(page.Results))
}

func TestGetAllDiagnoses_Pagination(t *testing.T) {
	var brainTumor []domain.BrainTumorRecord
	var stroke []domain.StrokeRecord
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		brainTumor = append(brainTumor, domain.BrainTumorRecord{
			ID: int64(i + 1), DiagnosisType: "brain_tumor",
			CreatedAt: base.Add(time.Duration(i*2) * time.Hour).Format(time.RFC3339),
		})
		stroke = append(stroke, domain.StrokeRecord{
			ID: int64(i + 1), DiagnosisType: "stroke",
			CreatedAt: base.Add(time.Duration(i*3) * time.Hour).Format(time.RFC3339),
		})
	}

	m := newMockSources()
	m.expectLists(brainTumor, 7, nil, 0, stroke, 7)
	svc := newTestService(m, Options{})
	ctx := context.Background()

	all, err := svc.GetAllDiagnoses(ctx, 0, 14)
	require.NoError(t, err)
	require.Len(t, all.Results, 14)

	for i := 1; i < len(all.Results); i++ {
		prev := all.Results[i-1].Common().CreatedTime()
		cur := all.Results[i].Common().CreatedTime()
		assert.False(t, cur.After(prev), "results out of order at %d", i)
	}

	tests := []struct {
		name string
		n, k int
	}{
		{"first page of five", 5, 9},
		{"uneven split", 3, 11},
		{"empty head", 0, 14},
		{"tail beyond end", 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head, err := svc.GetAllDiagnoses(ctx, 0, tt.n)
			require.NoError(t, err)
			tail, err := svc.GetAllDiagnoses(ctx, tt.n, tt.k)
			require.NoError(t, err)

			want, err := svc.GetAllDiagnoses(ctx, 0, tt.n+tt.k)
			require.NoError(t, err)

			got := append(idsOf(head.Results), idsOf(tail.Results)...)
			assert.Equal(t, idsOf(want.Results), got)
		})
	}
}

func TestGetAllDiagnoses_ClampsArguments(t *testing.T) {
	m := newMockSources()
	m.expectLists(
		[]domain.BrainTumorRecord{{ID: 1, DiagnosisType: "brain_tumor", CreatedAt: "2024-01-01T00:00:00Z"}}, 1,
		nil, 0, nil, 0,
	)
	svc := newTestService(m, Options{})
	ctx := context.Background()

	page, err := svc.GetAllDiagnoses(ctx, -5, 10)
	require.NoError(t, err)
	assert.Len(t, page.Results, 1)

	page, err = svc.GetAllDiagnoses(ctx, 0, -1)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Equal(t, 1, page.Total)

	page, err = svc.GetAllDiagnoses(ctx, 50, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
}

func TestGetAllDiagnoses_HugeLimit(t *testing.T) {
	m := newMockSources()
	m.expectLists(
		[]domain.BrainTumorRecord{
			{ID: 1, DiagnosisType: "brain_tumor", CreatedAt: "2024-01-02T00:00:00Z"},
			{ID: 2, DiagnosisType: "brain_tumor", CreatedAt: "2024-01-01T00:00:00Z"},
		}, 2,
		nil, 0, nil, 0,
	)
	svc := newTestService(m, Options{})

	var page *DiagnosisPage
	require.NotPanics(t, func() {
		var err error
		page, err = svc.GetAllDiagnoses(context.Background(), 1, math.MaxInt)
		require.NoError(t, err)
	})
	assert.Equal(t, []string{"brain_tumor#2"}, idsOf(page.Results))
	assert.Equal(t, 2, page.Total)
}

func TestGetAllDiagnoses_TotalExceedsCappedMerge(t *testing.T) {
	m := newMockSources()
	m.brainTumor.On("List", mock.Anything, 0, 2).Return(&domain.ListResponse[domain.BrainTumorRecord]{
		Results: []domain.BrainTumorRecord{
			{ID: 10, DiagnosisType: "brain_tumor", CreatedAt: "2024-02-02T00:00:00Z"},
			{ID: 9, DiagnosisType: "brain_tumor", CreatedAt: "2024-02-01T00:00:00Z"},
		},
		Total: 10,
	}, nil)
	m.breastCancer.On("List", mock.Anything, 0, 2).Return(&domain.ListResponse[domain.BreastCancerRecord]{Total: 0}, nil)
	m.stroke.On("List", mock.Anything, 0, 2).Return(&domain.ListResponse[domain.StrokeRecord]{
		Results: []domain.StrokeRecord{{ID: 1, DiagnosisType: "stroke", CreatedAt: "2024-01-01T00:00:00Z"}},
		Total:   1,
	}, nil)
	svc := newTestService(m, Options{PerSourceCap: 2})

	page, err := svc.GetAllDiagnoses(context.Background(), 0, 100)
	require.NoError(t, err)

	assert.Len(t, page.Results, 3)
	assert.Equal(t, 11, page.Total)
	assert.Equal(t, page.BrainTumorTotal+page.BreastCancerTotal+page.StrokeTotal, page.Total)
	m.assertExpectations(t)
}

func TestGetAllDiagnoses_FailsFast(t *testing.T) {
	m := newMockSources()
	fetchErr := domain.NewSourceFetchError(external.SourceBreastCancer, "list", errors.New("connection refused"))

	m.brainTumor.On("List", mock.Anything, 0, DefaultPerSourceCap).
		Return(&domain.ListResponse[domain.BrainTumorRecord]{
			Results: []domain.BrainTumorRecord{{ID: 1, DiagnosisType: "brain_tumor"}},
			Total:   1,
		}, nil).Maybe()
	m.breastCancer.On("List", mock.Anything, 0, DefaultPerSourceCap).Return(nil, fetchErr)
	m.stroke.On("List", mock.Anything, 0, DefaultPerSourceCap).
		Return(&domain.ListResponse[domain.StrokeRecord]{}, nil).Maybe()
	svc := newTestService(m, Options{})

	page, err := svc.GetAllDiagnoses(context.Background(), 0, 10)
	require.Error(t, err)
	assert.Nil(t, page)

	var sfe *domain.SourceFetchError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, external.SourceBreastCancer, sfe.Source)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetAllDiagnoses_SnapshotCache(t *testing.T) {
	m := newMockSources()
	m.expectLists(
		[]domain.BrainTumorRecord{
			{ID: 1, DiagnosisType: "brain_tumor", CreatedAt: "2024-01-01T00:00:00Z"},
			{ID: 2, DiagnosisType: "brain_tumor", CreatedAt: "2024-01-02T00:00:00Z"},
		}, 2,
		nil, 0, nil, 0,
	)
	m.brainTumor.On("Delete", mock.Anything, int64(2)).Return(&domain.MessageResponse{Message: "deleted"}, nil)

	observer := &countingObserver{}
	snapshots := NewSnapshotCache(8, time.Minute, observer)
	svc := newTestService(m, Options{Snapshots: snapshots})
	ctx := domain.WithUserKey(context.Background(), "user-1")

	first, err := svc.GetAllDiagnoses(ctx, 0, 1)
	require.NoError(t, err)
	second, err := svc.GetAllDiagnoses(ctx, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"brain_tumor#2"}, idsOf(first.Results))
	assert.Equal(t, []string{"brain_tumor#1"}, idsOf(second.Results))
	assert.Equal(t, first.Total, second.Total)
	m.brainTumor.AssertNumberOfCalls(t, "List", 1)
	assert.Equal(t, 1, observer.hits)
	assert.Equal(t, 1, observer.misses)

	// Another user does not share the snapshot.
	_, err = svc.GetAllDiagnoses(domain.WithUserKey(context.Background(), "user-2"), 0, 1)
	require.NoError(t, err)
	m.brainTumor.AssertNumberOfCalls(t, "List", 2)

	// A write purges the writer's snapshot.
	_, err = svc.DeleteDiagnosis(ctx, domain.NewDiagnosisRef("brain_tumor", 2))
	require.NoError(t, err)
	_, err = svc.GetAllDiagnoses(ctx, 0, 1)
	require.NoError(t, err)
	m.brainTumor.AssertNumberOfCalls(t, "List", 3)
}

func TestGetAllDiagnoses_UnsignedTokenCannotReuseSubjectSnapshot(t *testing.T) {
	m := newMockSources()
	m.expectLists(
		[]domain.BrainTumorRecord{{ID: 1, DiagnosisType: "brain_tumor", CreatedAt: "2024-01-01T00:00:00Z"}}, 1,
		nil, 0, nil, 0,
	)
	svc := newTestService(m, Options{Snapshots: NewSnapshotCache(8, time.Minute, nil)})
	keys := middleware.NewUserKeys(domain.AuthConfig{JWTSecret: "secret"})

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "dr-lee"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "dr-lee"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	ownerKey, otherKey := keys.FromToken(signed), keys.FromToken(unsigned)
	require.NotEqual(t, ownerKey, otherKey)

	_, err = svc.GetAllDiagnoses(domain.WithUserKey(context.Background(), ownerKey), 0, 10)
	require.NoError(t, err)
	_, err = svc.GetAllDiagnoses(domain.WithUserKey(context.Background(), otherKey), 0, 10)
	require.NoError(t, err)

	m.brainTumor.AssertNumberOfCalls(t, "List", 2)
}

func TestGetAllDiagnoses_AnonymousCallersSkipCache(t *testing.T) {
	m := newMockSources()
	m.expectLists(nil, 0, nil, 0, nil, 0)
	svc := newTestService(m, Options{Snapshots: NewSnapshotCache(8, time.Minute, nil)})

	for i := 0; i < 2; i++ {
		_, err := svc.GetAllDiagnoses(context.Background(), 0, 10)
		require.NoError(t, err)
	}
	m.stroke.AssertNumberOfCalls(t, "List", 2)
}

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) ObserveSnapshotLookup(hit bool) {
	if hit {
		o.hits++
		return
	}
	o.misses++
}

func TestGetDashboardStats(t *testing.T) {
	m := newMockSources()
	stats := &domain.DashboardStats{TotalDiagnoses: 3, BrainTumorDiagnoses: 1, BreastCancerDiagnoses: 1, StrokeDiagnoses: 1, CriticalFindings: 1}
	recent := []domain.RecentActivity{
		{ID: 7, DiagnosisType: "breast_cancer_birads", PredictedClass: "BI-RADS 4 (Suspicious)", ConfidenceScore: 0.4, ImageURL: strPtr("/img/7.png"), SegmentationURL: strPtr("/seg/7.png")},
		{ID: 8, DiagnosisType: "brain_tumor", PredictedClass: "glioma", SegmentationURL: strPtr("/seg/8.png")},
		{ID: 9, DiagnosisType: "stroke", PredictedClass: "no_stroke"},
		{ID: 10, DiagnosisType: "xray", PredictedClass: "fracture", ConfidenceScore: 0.99},
	}
	m.statistics.On("Dashboard", mock.Anything).Return(stats, nil)
	m.statistics.On("RecentActivity", mock.Anything, 5).Return(recent, nil)
	svc := newTestService(m, Options{RecentActivityLimit: 5})

	summary, err := svc.GetDashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalDiagnoses)
	require.Len(t, summary.RecentActivity, 4)

	bc, ok := summary.RecentActivity[0].(*domain.BreastCancerDiagnosis)
	require.True(t, ok)
	assert.Equal(t, domain.AnalysisBIRADS, bc.AnalysisType)
	assert.Equal(t, "/img/7.png", bc.ImageURL)
	assert.Nil(t, bc.Flatten().SegmentationURL)
	assert.Equal(t, domain.SeverityCritical, svc.GetSeverityLevel(bc))

	bt, ok := summary.RecentActivity[1].(*domain.BrainTumorDiagnosis)
	require.True(t, ok)
	assert.Equal(t, "/seg/8.png", *bt.SegmentationURL)

	assert.IsType(t, &domain.StrokeDiagnosis{}, summary.RecentActivity[2])

	unknown := summary.RecentActivity[3]
	assert.IsType(t, &domain.UnrecognizedDiagnosis{}, unknown)
	assert.Equal(t, domain.SeverityNormal, svc.GetSeverityLevel(unknown))
	assert.Equal(t, "fracture", svc.FormatPredictionClass(unknown))
	m.assertExpectations(t)
}

func TestGetDashboardStats_Error(t *testing.T) {
	m := newMockSources()
	m.statistics.On("Dashboard", mock.Anything).Return(nil, errors.New("boom"))
	m.statistics.On("RecentActivity", mock.Anything, DefaultRecentActivityLimit).Return([]domain.RecentActivity{}, nil).Maybe()
	svc := newTestService(m, Options{})

	_, err := svc.GetDashboardStats(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestGetDashboardStats_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := external.NewStatsCacheWithClient(client, time.Minute)

	m := newMockSources()
	m.statistics.On("Dashboard", mock.Anything).Return(&domain.DashboardStats{TotalDiagnoses: 4}, nil)
	m.statistics.On("RecentActivity", mock.Anything, DefaultRecentActivityLimit).Return([]domain.RecentActivity{
		{ID: 1, DiagnosisType: "stroke", PredictedClass: "ischemic_stroke", ConfidenceScore: 0.9},
	}, nil)
	m.stroke.On("Update", mock.Anything, int64(1), domain.DiagnosisUpdate{Notes: strPtr("seen")}).
		Return(&domain.StrokeRecord{ID: 1, DiagnosisType: "stroke", Notes: strPtr("seen")}, nil)
	svc := newTestService(m, Options{StatsCache: cache})
	ctx := domain.WithUserKey(context.Background(), "user-1")

	first, err := svc.GetDashboardStats(ctx)
	require.NoError(t, err)
	second, err := svc.GetDashboardStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.TotalDiagnoses, second.TotalDiagnoses)
	assert.Equal(t, idsOf(first.RecentActivity), idsOf(second.RecentActivity))
	m.statistics.AssertNumberOfCalls(t, "Dashboard", 1)

	_, err = svc.UpdateDiagnosisNotes(ctx, domain.NewDiagnosisRef("stroke", 1), "seen")
	require.NoError(t, err)

	_, err = svc.GetDashboardStats(ctx)
	require.NoError(t, err)
	m.statistics.AssertNumberOfCalls(t, "Dashboard", 2)
}

func TestDeleteDiagnosis(t *testing.T) {
	tests := []struct {
		name          string
		diagnosisType string
		setup         func(m *mockSources)
		wantErr       string
	}{
		{
			name:          "brain tumor",
			diagnosisType: "brain_tumor",
			setup: func(m *mockSources) {
				m.brainTumor.On("Delete", mock.Anything, int64(1)).Return(&domain.MessageResponse{Message: "Diagnosis deleted"}, nil)
			},
		},
		{
			name:          "breast cancer with sub-mode suffix",
			diagnosisType: "breast_cancer_pathological",
			setup: func(m *mockSources) {
				m.breastCancer.On("Delete", mock.Anything, int64(1)).Return(&domain.MessageResponse{Message: "Diagnosis deleted"}, nil)
			},
		},
		{
			name:          "stroke",
			diagnosisType: "stroke",
			setup: func(m *mockSources) {
				m.stroke.On("Delete", mock.Anything, int64(1)).Return(&domain.MessageResponse{Message: "Diagnosis deleted"}, nil)
			},
		},
		{
			name:          "unknown type",
			diagnosisType: "unknown_type",
			setup:         func(m *mockSources) {},
			wantErr:       "Unknown diagnosis type",
		},
		{
			name:          "breast cancer prefix with unknown suffix",
			diagnosisType: "breast_cancerzzz",
			setup:         func(m *mockSources) {},
			wantErr:       "Unknown diagnosis type",
		},
		{
			name:          "source failure propagates",
			diagnosisType: "stroke",
			setup: func(m *mockSources) {
				m.stroke.On("Delete", mock.Anything, int64(1)).Return(nil, &external.APIError{StatusCode: 404, Detail: "Diagnosis not found"})
			},
			wantErr: "Diagnosis not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockSources()
			tt.setup(m)
			svc := newTestService(m, Options{})

			msg, err := svc.DeleteDiagnosis(context.Background(), domain.NewDiagnosisRef(tt.diagnosisType, 1))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, msg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Diagnosis deleted", msg.Message)
			}
			m.assertExpectations(t)
		})
	}
}

func TestDeleteDiagnosis_UnknownTypeIsSentinel(t *testing.T) {
	svc := newTestService(newMockSources(), Options{})

	_, err := svc.DeleteDiagnosis(context.Background(), domain.NewDiagnosisRef("unknown_type", 1))
	assert.EqualError(t, err, "Unknown diagnosis type")
	assert.ErrorIs(t, err, domain.ErrUnknownDiagnosisType)
}

func TestUpdateDiagnosisNotes(t *testing.T) {
	m := newMockSources()
	notes := "reviewed by radiologist"
	m.breastCancer.On("Update", mock.Anything, int64(4), domain.DiagnosisUpdate{Notes: &notes}).
		Return(&domain.BreastCancerRecord{ID: 4, DiagnosisType: "breast_cancer", AnalysisType: "birads", Notes: &notes}, nil)
	svc := newTestService(m, Options{})

	updated, err := svc.UpdateDiagnosisNotes(context.Background(), domain.NewDiagnosisRef("breast_cancer", 4), notes)
	require.NoError(t, err)
	require.NotNil(t, updated.Common().Notes)
	assert.Equal(t, notes, *updated.Common().Notes)
	assert.Equal(t, domain.BreastCancer, updated.Domain())

	_, err = svc.UpdateDiagnosisNotes(context.Background(), domain.NewDiagnosisRef("ct_scan", 4), notes)
	assert.ErrorIs(t, err, domain.ErrUnknownDiagnosisType)
	m.assertExpectations(t)
}

func TestGetDiagnosis(t *testing.T) {
	m := newMockSources()
	m.stroke.On("Get", mock.Anything, int64(3)).Return(&domain.StrokeRecord{
		ID: 3, DiagnosisType: "stroke", PredictedClass: "hemorrhagic_stroke", ConfidenceScore: 0.75,
		AllProbabilities: map[string]float64{"hemorrhagic_stroke": 0.75, "ischemic_stroke": 0.2, "no_stroke": 0.05},
	}, nil)
	svc := newTestService(m, Options{})

	d, err := svc.GetDiagnosis(context.Background(), domain.NewDiagnosisRef("stroke", 3))
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityCritical, svc.GetSeverityLevel(d))
	assert.Equal(t, "Hemorrhagic Stroke", svc.FormatPredictionClass(d))
	assert.InDelta(t, 0.2, d.Flatten().AllProbabilities["ischemic_stroke"], 1e-9)

	_, err = svc.GetDiagnosis(context.Background(), domain.NewDiagnosisRef("x", 3))
	assert.ErrorIs(t, err, domain.ErrUnknownDiagnosisType)
}

func TestAnalyze(t *testing.T) {
	t.Run("breast cancer sub-mode from type suffix", func(t *testing.T) {
		m := newMockSources()
		m.breastCancer.On("Diagnose", mock.Anything, mock.MatchedBy(func(u domain.Upload) bool {
			return u.AnalysisType == domain.AnalysisPathological && u.Filename == "slide.png"
		})).Return(&domain.BreastCancerRecord{
			ID: 11, DiagnosisType: "breast_cancer", AnalysisType: "pathological",
			PredictedClass: "malignant", ConfidenceScore: 0.55,
		}, nil)
		svc := newTestService(m, Options{})

		d, err := svc.Analyze(context.Background(), "breast_cancer_pathological", domain.Upload{
			Filename: "slide.png", Content: strings.NewReader("png"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(11), d.Common().ID)
		assert.Equal(t, domain.SeverityCritical, SeverityOf(d))
		assert.Equal(t, "Malignant Tissue", DisplayLabelOf(d))
		m.assertExpectations(t)
	})

	t.Run("explicit sub-mode wins", func(t *testing.T) {
		m := newMockSources()
		m.breastCancer.On("Diagnose", mock.Anything, mock.MatchedBy(func(u domain.Upload) bool {
			return u.AnalysisType == domain.AnalysisBoth
		})).Return(&domain.BreastCancerRecord{ID: 12, DiagnosisType: "breast_cancer"}, nil)
		svc := newTestService(m, Options{})

		_, err := svc.Analyze(context.Background(), "breast_cancer_birads", domain.Upload{
			Content: strings.NewReader("png"), AnalysisType: domain.AnalysisBoth,
		})
		require.NoError(t, err)
	})

	t.Run("brain tumor and stroke", func(t *testing.T) {
		m := newMockSources()
		m.brainTumor.On("Diagnose", mock.Anything, mock.Anything).Return(&domain.BrainTumorRecord{ID: 1, DiagnosisType: "brain_tumor", PredictedClass: "pituitary"}, nil)
		m.stroke.On("Diagnose", mock.Anything, mock.Anything).Return(&domain.StrokeRecord{ID: 2, DiagnosisType: "stroke", PredictedClass: "no_stroke"}, nil)
		svc := newTestService(m, Options{})

		bt, err := svc.Analyze(context.Background(), "brain_tumor", domain.Upload{Content: strings.NewReader("x")})
		require.NoError(t, err)
		assert.Equal(t, "Pituitary Tumor", DisplayLabelOf(bt))

		st, err := svc.Analyze(context.Background(), "stroke", domain.Upload{Content: strings.NewReader("x")})
		require.NoError(t, err)
		assert.Equal(t, domain.SeverityNormal, SeverityOf(st))
		m.assertExpectations(t)
	})

	t.Run("invalid sub-mode", func(t *testing.T) {
		svc := newTestService(newMockSources(), Options{})
		_, err := svc.Analyze(context.Background(), "breast_cancer", domain.Upload{AnalysisType: "ultrasound"})
		assert.ErrorIs(t, err, domain.ErrInvalidAnalysisType)
	})

	t.Run("unknown type", func(t *testing.T) {
		svc := newTestService(newMockSources(), Options{})
		for _, diagnosisType := range []string{"xray", "breast_cancerzzz", "breast_cancer_ultrasound"} {
			_, err := svc.Analyze(context.Background(), diagnosisType, domain.Upload{})
			assert.ErrorIs(t, err, domain.ErrUnknownDiagnosisType, diagnosisType)
		}
	})
}

func TestIsUnavailable(t *testing.T) {
	err := domain.NewSourceFetchError(external.SourceStroke, "list", fmt.Errorf("%w: circuit breaker is open", external.ErrSourceUnavailable))
	assert.True(t, IsUnavailable(err))
	assert.False(t, IsUnavailable(errors.New("timeout")))
}
