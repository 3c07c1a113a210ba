package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Diagnosis is the polymorphic diagnosis record. Each variant carries only
// the fields its domain produces; Flatten renders the homogeneous shape the
// views consume, with every field of the other domains explicitly null.
type Diagnosis interface {
	// Common returns the fields every domain shares.
	Common() *DiagnosisBase
	// Domain reports the resolved domain, or "" when the discriminant is
	// not one this service recognizes.
	Domain() DiagnosisType
	// Flatten renders the record in its homogeneous wire form.
	Flatten() MedicalDiagnosis
}

// DiagnosisBase holds the fields shared by all three domains.
type DiagnosisBase struct {
	ID              int64
	DiagnosisType   string // discriminant exactly as the backend reported it
	PredictedClass  string
	ConfidenceScore float64
	ImageURL        string
	Notes           *string
	CreatedAt       string
}

// Common implements Diagnosis for every variant that embeds DiagnosisBase.
func (b *DiagnosisBase) Common() *DiagnosisBase {
	return b
}

// CreatedTime parses CreatedAt. Unparseable values yield the zero time.
func (b *DiagnosisBase) CreatedTime() time.Time {
	t, _ := ParseTimestamp(b.CreatedAt)
	return t
}

func (b *DiagnosisBase) flatten() MedicalDiagnosis {
	return MedicalDiagnosis{
		ID:              b.ID,
		DiagnosisType:   b.DiagnosisType,
		PredictedClass:  b.PredictedClass,
		ConfidenceScore: b.ConfidenceScore,
		ImageURL:        b.ImageURL,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
	}
}

// BrainTumorDiagnosis is a brain MRI tumor classification.
type BrainTumorDiagnosis struct {
	DiagnosisBase
	SegmentationURL *string
}

// Domain returns BrainTumor.
func (d *BrainTumorDiagnosis) Domain() DiagnosisType { return BrainTumor }

// Flatten adds the segmentation URL to the common fields.
func (d *BrainTumorDiagnosis) Flatten() MedicalDiagnosis {
	m := d.flatten()
	m.SegmentationURL = d.SegmentationURL
	return m
}

// MarshalJSON encodes the flattened record.
func (d *BrainTumorDiagnosis) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Flatten())
}

// BreastCancerDiagnosis is a mammography (BI-RADS) and/or histology
// (pathological) classification.
type BreastCancerDiagnosis struct {
	DiagnosisBase
	AnalysisType       AnalysisType
	BIRADSResult       *ClassifierOutput
	PathologicalResult *ClassifierOutput
}

// Domain returns BreastCancer.
func (d *BreastCancerDiagnosis) Domain() DiagnosisType { return BreastCancer }

// Flatten adds the sub-mode and both classifier outputs to the common fields.
func (d *BreastCancerDiagnosis) Flatten() MedicalDiagnosis {
	m := d.flatten()
	if d.AnalysisType != "" {
		a := string(d.AnalysisType)
		m.AnalysisType = &a
	}
	m.BIRADSResult = d.BIRADSResult
	m.PathologicalResult = d.PathologicalResult
	return m
}

// MarshalJSON encodes the flattened record.
func (d *BreastCancerDiagnosis) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Flatten())
}

// StrokeDiagnosis is a brain MRI stroke classification.
type StrokeDiagnosis struct {
	DiagnosisBase
	AllProbabilities map[string]float64
}

// Domain returns Stroke.
func (d *StrokeDiagnosis) Domain() DiagnosisType { return Stroke }

// Flatten adds the per-class probabilities to the common fields.
func (d *StrokeDiagnosis) Flatten() MedicalDiagnosis {
	m := d.flatten()
	m.AllProbabilities = d.AllProbabilities
	return m
}

// MarshalJSON encodes the flattened record.
func (d *StrokeDiagnosis) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Flatten())
}

// UnrecognizedDiagnosis carries a record whose discriminant this service
// does not know. Read paths render it with safe defaults; write paths reject it.
type UnrecognizedDiagnosis struct {
	DiagnosisBase
	SegmentationURL *string
}

// Domain returns the empty type; the raw discriminant stays in DiagnosisType.
func (d *UnrecognizedDiagnosis) Domain() DiagnosisType { return "" }

// Flatten keeps the common fields and segmentation URL.
func (d *UnrecognizedDiagnosis) Flatten() MedicalDiagnosis {
	m := d.flatten()
	m.SegmentationURL = d.SegmentationURL
	return m
}

// MarshalJSON encodes the flattened record.
func (d *UnrecognizedDiagnosis) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Flatten())
}

// NewDiagnosisRef builds a minimal record for write-path dispatch when only
// the discriminant and id are known (for example from a URL). Types that
// ParseDiagnosisType rejects become an UnrecognizedDiagnosis.
func NewDiagnosisRef(diagnosisType string, id int64) Diagnosis {
	base := DiagnosisBase{ID: id, DiagnosisType: diagnosisType}
	kind, ok := ParseDiagnosisType(diagnosisType)
	if !ok {
		return &UnrecognizedDiagnosis{DiagnosisBase: base}
	}
	switch kind {
	case BrainTumor:
		return &BrainTumorDiagnosis{DiagnosisBase: base}
	case BreastCancer:
		return &BreastCancerDiagnosis{DiagnosisBase: base, AnalysisType: AnalysisTypeFromDiagnosisType(diagnosisType)}
	default:
		return &StrokeDiagnosis{DiagnosisBase: base}
	}
}

// DiagnosisKey identifies a record across domains. Ids are only unique within
// their own domain.
type DiagnosisKey struct {
	Type DiagnosisType
	ID   int64
}

// KeyOf returns the cross-domain identity of d.
func KeyOf(d Diagnosis) DiagnosisKey {
	return DiagnosisKey{Type: d.Domain(), ID: d.Common().ID}
}

// MedicalDiagnosis is the homogeneous rendering of any Diagnosis. Fields that
// do not apply to the record's domain are serialized as explicit nulls.
type MedicalDiagnosis struct {
	ID                 int64              `json:"id"`
	DiagnosisType      string             `json:"diagnosis_type"`
	AnalysisType       *string            `json:"analysis_type"`
	PredictedClass     string             `json:"predicted_class"`
	ConfidenceScore    float64            `json:"confidence_score"`
	ImageURL           string             `json:"image_url"`
	SegmentationURL    *string            `json:"segmentation_url"`
	Notes              *string            `json:"notes"`
	CreatedAt          string             `json:"created_at"`
	BIRADSResult       *ClassifierOutput  `json:"birads_result"`
	PathologicalResult *ClassifierOutput  `json:"pathological_result"`
	AllProbabilities   map[string]float64 `json:"all_probabilities"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-8601 variants the backend emits. Values
// without an offset are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
