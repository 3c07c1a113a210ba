// Package domain contains the core entities shared by the diagnosis hub:
// the three diagnosis variants (brain tumor, breast cancer, stroke), the
// severity and confidence taxonomies derived from them, and the wire shapes
// returned by the remote diagnosis backend.
package domain

import (
	"strings"
)

// DiagnosisType is the discriminant that identifies which remote source a
// diagnosis record came from.
type DiagnosisType string

const (
	BrainTumor   DiagnosisType = "brain_tumor"
	BreastCancer DiagnosisType = "breast_cancer"
	Stroke       DiagnosisType = "stroke"
)

// AllDiagnosisTypes lists the known domains in merge order.
var AllDiagnosisTypes = []DiagnosisType{BrainTumor, BreastCancer, Stroke}

// String returns the wire value.
func (t DiagnosisType) String() string {
	return string(t)
}

// IsValid reports whether t names one of the three supported domains.
func (t DiagnosisType) IsValid() bool {
	switch t {
	case BrainTumor, BreastCancer, Stroke:
		return true
	default:
		return false
	}
}

// ResolveDiagnosisType maps a raw diagnosis_type string to its domain.
// Statistics rows report breast cancer with its sub-mode appended
// ("breast_cancer_birads"), so breast cancer is matched by prefix.
func ResolveDiagnosisType(raw string) (DiagnosisType, bool) {
	switch {
	case raw == string(BrainTumor):
		return BrainTumor, true
	case raw == string(Stroke):
		return Stroke, true
	case strings.HasPrefix(raw, string(BreastCancer)):
		return BreastCancer, true
	default:
		return "", false
	}
}

// ParseDiagnosisType is the strict form of ResolveDiagnosisType used by write
// paths. Breast cancer is accepted only as "breast_cancer" or with one of the
// known sub-mode suffixes.
func ParseDiagnosisType(raw string) (DiagnosisType, bool) {
	switch raw {
	case string(BrainTumor):
		return BrainTumor, true
	case string(Stroke):
		return Stroke, true
	case string(BreastCancer):
		return BreastCancer, true
	}
	if AnalysisTypeFromDiagnosisType(raw) != "" {
		return BreastCancer, true
	}
	return "", false
}

// AnalysisType is the breast cancer sub-mode.
type AnalysisType string

const (
	AnalysisBIRADS       AnalysisType = "birads"
	AnalysisPathological AnalysisType = "pathological"
	AnalysisBoth         AnalysisType = "both"
)

// IsValid reports whether a is a known breast cancer sub-mode.
func (a AnalysisType) IsValid() bool {
	switch a {
	case AnalysisBIRADS, AnalysisPathological, AnalysisBoth:
		return true
	default:
		return false
	}
}

// AnalysisTypeFromDiagnosisType extracts the sub-mode from values like
// "breast_cancer_birads". It returns "" when there is no known suffix.
func AnalysisTypeFromDiagnosisType(raw string) AnalysisType {
	suffix := strings.TrimPrefix(raw, string(BreastCancer)+"_")
	if suffix == raw {
		return ""
	}
	if a := AnalysisType(suffix); a.IsValid() {
		return a
	}
	return ""
}

// Severity is the three-level clinical urgency tier shown next to a result.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// IsConcerning reports whether the tier warrants follow-up.
func (s Severity) IsConcerning() bool {
	return s == SeverityWarning || s == SeverityCritical
}

// ConfidenceLevel buckets a model confidence score independently of severity.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)
