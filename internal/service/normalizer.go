package service

import (
	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// NormalizeBrainTumor converts a /diagnosis/ row. Every field of the row is
// carried over; fields of the other domains stay absent.
func NormalizeBrainTumor(rec domain.BrainTumorRecord) *domain.BrainTumorDiagnosis {
	return &domain.BrainTumorDiagnosis{
		DiagnosisBase: domain.DiagnosisBase{
			ID:              rec.ID,
			DiagnosisType:   rec.DiagnosisType,
			PredictedClass:  rec.PredictedClass,
			ConfidenceScore: rec.ConfidenceScore,
			ImageURL:        rec.ImageURL,
			Notes:           rec.Notes,
			CreatedAt:       rec.CreatedAt,
		},
		SegmentationURL: rec.SegmentationURL,
	}
}

// NormalizeBreastCancer converts a /breast-cancer/ row.
func NormalizeBreastCancer(rec domain.BreastCancerRecord) *domain.BreastCancerDiagnosis {
	return &domain.BreastCancerDiagnosis{
		DiagnosisBase: domain.DiagnosisBase{
			ID:              rec.ID,
			DiagnosisType:   rec.DiagnosisType,
			PredictedClass:  rec.PredictedClass,
			ConfidenceScore: rec.ConfidenceScore,
			ImageURL:        rec.ImageURL,
			Notes:           rec.Notes,
			CreatedAt:       rec.CreatedAt,
		},
		AnalysisType:       domain.AnalysisType(rec.AnalysisType),
		BIRADSResult:       rec.BIRADSResult,
		PathologicalResult: rec.PathologicalResult,
	}
}

// NormalizeStroke converts a /stroke/ row.
func NormalizeStroke(rec domain.StrokeRecord) *domain.StrokeDiagnosis {
	return &domain.StrokeDiagnosis{
		DiagnosisBase: domain.DiagnosisBase{
			ID:              rec.ID,
			DiagnosisType:   rec.DiagnosisType,
			PredictedClass:  rec.PredictedClass,
			ConfidenceScore: rec.ConfidenceScore,
			ImageURL:        rec.ImageURL,
			Notes:           rec.Notes,
			CreatedAt:       rec.CreatedAt,
		},
		AllProbabilities: rec.AllProbabilities,
	}
}

// NormalizeRecentActivity converts a statistics row. The row's discriminant
// picks the variant; breast cancer rows carry their sub-mode as a suffix
// ("breast_cancer_birads").
func NormalizeRecentActivity(row domain.RecentActivity) domain.Diagnosis {
	base := domain.DiagnosisBase{
		ID:              row.ID,
		DiagnosisType:   row.DiagnosisType,
		PredictedClass:  row.PredictedClass,
		ConfidenceScore: row.ConfidenceScore,
		Notes:           row.Notes,
		CreatedAt:       row.CreatedAt,
	}
	if row.ImageURL != nil {
		base.ImageURL = *row.ImageURL
	}

	kind, ok := domain.ResolveDiagnosisType(row.DiagnosisType)
	if !ok {
		return &domain.UnrecognizedDiagnosis{DiagnosisBase: base, SegmentationURL: row.SegmentationURL}
	}
	switch kind {
	case domain.BrainTumor:
		return &domain.BrainTumorDiagnosis{DiagnosisBase: base, SegmentationURL: row.SegmentationURL}
	case domain.BreastCancer:
		return &domain.BreastCancerDiagnosis{
			DiagnosisBase: base,
			AnalysisType:  domain.AnalysisTypeFromDiagnosisType(row.DiagnosisType),
		}
	default:
		return &domain.StrokeDiagnosis{DiagnosisBase: base}
	}
}

func normalizeAll[T any, D domain.Diagnosis](records []T, convert func(T) D) []domain.Diagnosis {
	out := make([]domain.Diagnosis, 0, len(records))
	for _, rec := range records {
		out = append(out, convert(rec))
	}
	return out
}
