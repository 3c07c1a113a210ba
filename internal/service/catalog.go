package service

import (
	"strings"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// AnalysisOption is one selectable analysis in the upload flow.
type AnalysisOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// AnalysisTypes lists the analyses a user can request.
func AnalysisTypes() []AnalysisOption {
	return []AnalysisOption{
		{
			Value:       string(domain.Stroke),
			Label:       "Stroke Analysis",
			Description: "MRI brain scan analysis for stroke detection and classification",
		},
		{
			Value:       string(domain.BrainTumor),
			Label:       "Brain Tumor Analysis",
			Description: "MRI brain scan analysis for tumor detection and classification",
		},
		{
			Value:       string(domain.BreastCancer),
			Label:       "Breast Cancer Analysis",
			Description: "Mammography and tissue analysis for breast cancer detection",
		},
	}
}

// BreastCancerAnalysisTypes lists the breast cancer sub-modes.
func BreastCancerAnalysisTypes() []AnalysisOption {
	return []AnalysisOption{
		{
			Value:       string(domain.AnalysisBIRADS),
			Label:       "BI-RADS Classification",
			Description: "Mammography imaging analysis using BI-RADS system",
		},
		{
			Value:       string(domain.AnalysisPathological),
			Label:       "Pathological Analysis",
			Description: "Histological tissue analysis for cancer detection",
		},
		{
			Value:       string(domain.AnalysisBoth),
			Label:       "Comprehensive Analysis",
			Description: "Both BI-RADS and pathological analysis",
		},
	}
}

// DiagnosisTypeDisplayName names a raw diagnosis_type for headings.
func DiagnosisTypeDisplayName(diagnosisType string) string {
	switch diagnosisType {
	case "brain_tumor":
		return "Brain Tumor Analysis"
	case "breast_cancer_birads":
		return "BI-RADS Classification"
	case "breast_cancer_pathological":
		return "Pathological Analysis"
	case "breast_cancer_both":
		return "Comprehensive Breast Analysis"
	case "stroke":
		return "Stroke Analysis"
	default:
		return "Medical Analysis"
	}
}

// AnalysisTypeDisplayName names a breast cancer sub-mode.
func AnalysisTypeDisplayName(analysisType domain.AnalysisType) string {
	switch analysisType {
	case domain.AnalysisBIRADS:
		return "BI-RADS Classification"
	case domain.AnalysisPathological:
		return "Pathological Analysis"
	case domain.AnalysisBoth:
		return "Comprehensive Analysis"
	default:
		return "Breast Cancer Analysis"
	}
}

// AnalysisTypeDescription describes a breast cancer sub-mode.
func AnalysisTypeDescription(analysisType domain.AnalysisType) string {
	switch analysisType {
	case domain.AnalysisBIRADS:
		return "Mammography imaging analysis using BI-RADS classification system"
	case domain.AnalysisPathological:
		return "Histological tissue analysis for cancer detection"
	case domain.AnalysisBoth:
		return "Combined BI-RADS and pathological analysis"
	default:
		return "Advanced breast cancer diagnostic analysis"
	}
}

// StrokeDescription explains a stroke class in plain language.
func StrokeDescription(predictedClass string) string {
	switch strings.ToLower(predictedClass) {
	case "hemorrhagic_stroke":
		return "Bleeding in the brain caused by a ruptured blood vessel"
	case "ischemic_stroke":
		return "Blood clot blocking blood flow to the brain"
	case "no_stroke":
		return "No signs of stroke detected in the scan"
	default:
		return ""
	}
}

// StrokeRecommendations returns next steps for a stroke class.
func StrokeRecommendations(predictedClass string) []string {
	switch strings.ToLower(predictedClass) {
	case "hemorrhagic_stroke":
		return []string{
			"Immediate emergency medical attention required",
			"Control blood pressure",
			"May require surgical intervention",
			"Close monitoring in intensive care",
		}
	case "ischemic_stroke":
		return []string{
			"Immediate emergency medical attention required",
			"Time-critical treatment (thrombolysis) within 4.5 hours",
			"Consider mechanical thrombectomy if applicable",
			"Start antiplatelet therapy as soon as possible",
		}
	case "no_stroke":
		return []string{
			"Continue regular health check-ups",
			"Maintain healthy lifestyle",
			"Monitor blood pressure regularly",
			"Consult physician if symptoms develop",
		}
	default:
		return []string{"Consult with a medical professional for interpretation"}
	}
}

// BreastCancerRecommendations returns next steps for a severity tier.
func BreastCancerRecommendations(severity domain.Severity) []string {
	switch severity {
	case domain.SeverityCritical:
		return []string{
			"Immediate consultation with oncologist recommended",
			"Consider additional imaging or biopsy",
			"Follow-up within 1-2 weeks",
		}
	case domain.SeverityWarning:
		return []string{
			"Follow-up with healthcare provider",
			"Consider repeat imaging in 6 months",
			"Monitor for any changes",
		}
	default:
		return []string{
			"Continue routine screening",
			"Next screening in 1-2 years as recommended",
		}
	}
}

// HasConcerningFindings reports whether a record needs follow-up.
func HasConcerningFindings(d domain.Diagnosis) bool {
	return SeverityOf(d).IsConcerning()
}

// Recommendations dispatches to the domain's advice. Domains without specific
// advice get the generic referral.
func Recommendations(d domain.Diagnosis) []string {
	switch d.(type) {
	case *domain.StrokeDiagnosis:
		return StrokeRecommendations(d.Common().PredictedClass)
	case *domain.BreastCancerDiagnosis:
		return BreastCancerRecommendations(SeverityOf(d))
	default:
		return []string{"Consult with a medical professional for interpretation"}
	}
}
