package service

import (
	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// Assessment is the derived view of one record: how it should be labelled and
// how urgent it is.
type Assessment struct {
	Severity             domain.Severity        `json:"severity"`
	DisplayLabel         string                 `json:"display_label"`
	ConfidenceLevel      domain.ConfidenceLevel `json:"confidence_level"`
	Confidence           string                 `json:"confidence"`
	DiagnosisTypeDisplay string                 `json:"diagnosis_type_display"`
	Concerning           bool                   `json:"concerning"`
	Recommendations      []string               `json:"recommendations"`
}

// Assess derives every presentation attribute of d.
func Assess(d domain.Diagnosis) Assessment {
	base := d.Common()
	severity := SeverityOf(d)
	return Assessment{
		Severity:             severity,
		DisplayLabel:         DisplayLabelOf(d),
		ConfidenceLevel:      ConfidenceLevelOf(base.ConfidenceScore),
		Confidence:           FormatConfidence(base.ConfidenceScore),
		DiagnosisTypeDisplay: diagnosisTypeDisplayOf(d),
		Concerning:           severity.IsConcerning(),
		Recommendations:      Recommendations(d),
	}
}

// diagnosisTypeDisplayOf names the record's analysis. Breast cancer rows from
// the collection carry a bare "breast_cancer" discriminant, so their sub-mode
// is taken from AnalysisType.
func diagnosisTypeDisplayOf(d domain.Diagnosis) string {
	if bc, ok := d.(*domain.BreastCancerDiagnosis); ok && bc.AnalysisType != "" {
		return DiagnosisTypeDisplayName(string(domain.BreastCancer) + "_" + string(bc.AnalysisType))
	}
	return DiagnosisTypeDisplayName(d.Common().DiagnosisType)
}

// AssessedDiagnosis is the flat record annotated for list views.
type AssessedDiagnosis struct {
	domain.MedicalDiagnosis
	Severity             domain.Severity        `json:"severity"`
	DisplayLabel         string                 `json:"display_label"`
	ConfidenceLevel      domain.ConfidenceLevel `json:"confidence_level"`
	DiagnosisTypeDisplay string                 `json:"diagnosis_type_display"`
}

// Annotate flattens d and attaches its severity, label and confidence level.
func Annotate(d domain.Diagnosis) AssessedDiagnosis {
	return AssessedDiagnosis{
		MedicalDiagnosis:     d.Flatten(),
		Severity:             SeverityOf(d),
		DisplayLabel:         DisplayLabelOf(d),
		ConfidenceLevel:      ConfidenceLevelOf(d.Common().ConfidenceScore),
		DiagnosisTypeDisplay: diagnosisTypeDisplayOf(d),
	}
}

// AnnotateAll annotates a page or activity list in order.
func AnnotateAll(items []domain.Diagnosis) []AssessedDiagnosis {
	out := make([]AssessedDiagnosis, 0, len(items))
	for _, d := range items {
		out = append(out, Annotate(d))
	}
	return out
}

// DiagnosisDetail is a single record with its full assessment.
type DiagnosisDetail struct {
	AssessedDiagnosis
	Assessment Assessment `json:"assessment"`
}

// Detail annotates d and attaches Assess(d).
func Detail(d domain.Diagnosis) DiagnosisDetail {
	return DiagnosisDetail{AssessedDiagnosis: Annotate(d), Assessment: Assess(d)}
}

// AnnotatedPage is a DiagnosisPage whose results are annotated.
type AnnotatedPage struct {
	Results           []AssessedDiagnosis `json:"results"`
	Total             int                 `json:"total"`
	BrainTumorTotal   int                 `json:"brain_tumor_total"`
	BreastCancerTotal int                 `json:"breast_cancer_total"`
	StrokeTotal       int                 `json:"stroke_total"`
}

func AnnotatePage(p *DiagnosisPage) AnnotatedPage {
	return AnnotatedPage{
		Results:           AnnotateAll(p.Results),
		Total:             p.Total,
		BrainTumorTotal:   p.BrainTumorTotal,
		BreastCancerTotal: p.BreastCancerTotal,
		StrokeTotal:       p.StrokeTotal,
	}
}

// AnnotatedDashboard is a DashboardSummary whose recent activity is annotated.
type AnnotatedDashboard struct {
	*DashboardSummary
	RecentActivity []AssessedDiagnosis `json:"recent_activity"`
}

func AnnotateDashboard(s *DashboardSummary) AnnotatedDashboard {
	return AnnotatedDashboard{DashboardSummary: s, RecentActivity: AnnotateAll(s.RecentActivity)}
}
