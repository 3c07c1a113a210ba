package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// Severity thresholds, per domain.
const (
	brainTumorCriticalConfidence = 0.8
	brainTumorWarningConfidence  = 0.6

	strokeCriticalConfidence = 0.7
	strokeWarningConfidence  = 0.5

	// Fallback for breast cancer labels that match no known class.
	breastCancerCriticalConfidence = 0.8
	breastCancerWarningConfidence  = 0.6

	highConfidence   = 0.8
	mediumConfidence = 0.6
)

var brainTumorLabels = map[string]string{
	"glioma":     "Glioma Tumor",
	"meningioma": "Meningioma Tumor",
	"notumor":    "No Tumor Detected",
	"pituitary":  "Pituitary Tumor",
}

var biradsLabels = map[string]string{
	"BI-RADS 1 (Negative)":          "BI-RADS 1: Negative",
	"BI-RADS 2 (Benign)":            "BI-RADS 2: Benign Finding",
	"BI-RADS 3 (Probably Benign)":   "BI-RADS 3: Probably Benign",
	"BI-RADS 4 (Suspicious)":        "BI-RADS 4: Suspicious",
	"BI-RADS 5 (Highly Suspicious)": "BI-RADS 5: Highly Suspicious",
}

var pathologicalLabels = map[string]string{
	"benign":    "Benign Tissue",
	"malignant": "Malignant Tissue",
	"normal":    "Normal Tissue",
}

var strokeLabels = map[string]string{
	"hemorrhagic_stroke": "Hemorrhagic Stroke",
	"ischemic_stroke":    "Ischemic Stroke",
	"no_stroke":          "No Stroke Detected",
}

// FormatBrainTumorClass maps a tumor class to its display label. Unknown
// classes pass through unchanged.
func FormatBrainTumorClass(predictedClass string) string {
	if label, ok := brainTumorLabels[strings.ToLower(predictedClass)]; ok {
		return label
	}
	return predictedClass
}

// BrainTumorSeverity: notumor is always normal, otherwise confidence decides.
func BrainTumorSeverity(predictedClass string, confidence float64) domain.Severity {
	if strings.EqualFold(predictedClass, "notumor") {
		return domain.SeverityNormal
	}
	return severityByConfidence(confidence, brainTumorCriticalConfidence, brainTumorWarningConfidence)
}

func isBIRADS(predictedClass string, analysisType domain.AnalysisType) bool {
	return analysisType == domain.AnalysisBIRADS || strings.Contains(predictedClass, "BI-RADS")
}

// FormatBreastCancerClass maps BI-RADS and pathological classes to display
// labels. BI-RADS labels are matched exactly, pathological ones ignoring case.
func FormatBreastCancerClass(predictedClass string, analysisType domain.AnalysisType) string {
	if isBIRADS(predictedClass, analysisType) {
		if label, ok := biradsLabels[predictedClass]; ok {
			return label
		}
		return predictedClass
	}
	if label, ok := pathologicalLabels[strings.ToLower(predictedClass)]; ok {
		return label
	}
	return predictedClass
}

// BreastCancerSeverity applies the BI-RADS tiers, then the pathological
// classes. Anything still unmatched falls back to confidence thresholds; that
// fallback is a safety net for unexpected labels, not a clinical rule.
func BreastCancerSeverity(predictedClass string, confidence float64, analysisType domain.AnalysisType) domain.Severity {
	if isBIRADS(predictedClass, analysisType) {
		switch {
		case strings.Contains(predictedClass, "BI-RADS 1"), strings.Contains(predictedClass, "BI-RADS 2"):
			return domain.SeverityNormal
		case strings.Contains(predictedClass, "BI-RADS 3"):
			return domain.SeverityWarning
		case strings.Contains(predictedClass, "BI-RADS 4"), strings.Contains(predictedClass, "BI-RADS 5"):
			return domain.SeverityCritical
		}
	}

	switch strings.ToLower(predictedClass) {
	case "normal", "benign":
		return domain.SeverityNormal
	case "malignant":
		return domain.SeverityCritical
	}

	return severityByConfidence(confidence, breastCancerCriticalConfidence, breastCancerWarningConfidence)
}

// FormatStrokeClass maps a stroke class to its display label.
func FormatStrokeClass(predictedClass string) string {
	if label, ok := strokeLabels[strings.ToLower(predictedClass)]; ok {
		return label
	}
	return predictedClass
}

// StrokeSeverity: no_stroke is always normal, otherwise the stricter stroke
// thresholds apply.
func StrokeSeverity(predictedClass string, confidence float64) domain.Severity {
	if strings.EqualFold(predictedClass, "no_stroke") {
		return domain.SeverityNormal
	}
	return severityByConfidence(confidence, strokeCriticalConfidence, strokeWarningConfidence)
}

func severityByConfidence(confidence, critical, warning float64) domain.Severity {
	switch {
	case confidence >= critical:
		return domain.SeverityCritical
	case confidence >= warning:
		return domain.SeverityWarning
	default:
		return domain.SeverityNormal
	}
}

// ConfidenceLevelOf buckets a score independently of severity.
func ConfidenceLevelOf(confidence float64) domain.ConfidenceLevel {
	switch {
	case confidence >= highConfidence:
		return domain.ConfidenceHigh
	case confidence >= mediumConfidence:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// SeverityOf dispatches on the record's domain. Unrecognized records are
// rendered as normal rather than rejected.
func SeverityOf(d domain.Diagnosis) domain.Severity {
	base := d.Common()
	switch v := d.(type) {
	case *domain.BrainTumorDiagnosis:
		return BrainTumorSeverity(base.PredictedClass, base.ConfidenceScore)
	case *domain.BreastCancerDiagnosis:
		return BreastCancerSeverity(base.PredictedClass, base.ConfidenceScore, v.AnalysisType)
	case *domain.StrokeDiagnosis:
		return StrokeSeverity(base.PredictedClass, base.ConfidenceScore)
	default:
		return domain.SeverityNormal
	}
}

// DisplayLabelOf dispatches on the record's domain. Unrecognized records keep
// their raw class.
func DisplayLabelOf(d domain.Diagnosis) string {
	base := d.Common()
	switch v := d.(type) {
	case *domain.BrainTumorDiagnosis:
		return FormatBrainTumorClass(base.PredictedClass)
	case *domain.BreastCancerDiagnosis:
		return FormatBreastCancerClass(base.PredictedClass, v.AnalysisType)
	case *domain.StrokeDiagnosis:
		return FormatStrokeClass(base.PredictedClass)
	default:
		return base.PredictedClass
	}
}

// FormatConfidence renders a score as a percentage with one decimal, e.g. "87.3%".
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// PercentageChange is the whole-percent change from previous to current.
// Growth from zero counts as 100%.
func PercentageChange(current, previous float64) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Floor((current-previous)/previous*100 + 0.5))
}
