package domain

// Wire shapes returned by the remote diagnosis backend. Field names follow the
// backend's JSON exactly; optional fields are pointers so that an absent value
// and an empty value stay distinguishable.

// ClassifierOutput is one model's verdict inside a breast cancer result.
type ClassifierOutput struct {
	PredictedClass   string             `json:"predicted_class"`
	ConfidenceScore  float64            `json:"confidence_score"`
	AllProbabilities map[string]float64 `json:"all_probabilities,omitempty"`
}

// BrainTumorRecord is a row from the /diagnosis/ collection.
type BrainTumorRecord struct {
	ID              int64   `json:"id"`
	PredictedClass  string  `json:"predicted_class"`
	ConfidenceScore float64 `json:"confidence_score"`
	DiagnosisType   string  `json:"diagnosis_type"`
	ImageURL        string  `json:"image_url"`
	SegmentationURL *string `json:"segmentation_url,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// BreastCancerRecord is a row from the /breast-cancer/ collection.
type BreastCancerRecord struct {
	ID                 int64             `json:"id"`
	DiagnosisType      string            `json:"diagnosis_type"`
	AnalysisType       string            `json:"analysis_type"`
	ImageURL           string            `json:"image_url"`
	Notes              *string           `json:"notes,omitempty"`
	CreatedAt          string            `json:"created_at"`
	PredictedClass     string            `json:"predicted_class"`
	ConfidenceScore    float64           `json:"confidence_score"`
	BIRADSResult       *ClassifierOutput `json:"birads_result,omitempty"`
	PathologicalResult *ClassifierOutput `json:"pathological_result,omitempty"`
}

// StrokeRecord is a row from the /stroke/ collection.
type StrokeRecord struct {
	ID               int64              `json:"id"`
	PredictedClass   string             `json:"predicted_class"`
	ConfidenceScore  float64            `json:"confidence_score"`
	AllProbabilities map[string]float64 `json:"all_probabilities"`
	DiagnosisType    string             `json:"diagnosis_type"`
	ImageURL         string             `json:"image_url"`
	Notes            *string            `json:"notes,omitempty"`
	CreatedAt        string             `json:"created_at"`
}

// ListResponse is the paged envelope every collection returns.
type ListResponse[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
	Page    int `json:"page,omitempty"`
	Size    int `json:"size,omitempty"`
}

// DiagnosisUpdate is the narrow PATCH body accepted by every collection.
type DiagnosisUpdate struct {
	Notes *string `json:"notes,omitempty"`
}

// MessageResponse is returned by delete calls.
type MessageResponse struct {
	Message string `json:"message"`
}

// DashboardStats is the summary returned by /statistics/dashboard.
type DashboardStats struct {
	TotalDiagnoses        int     `json:"total_diagnoses"`
	BrainTumorDiagnoses   int     `json:"brain_tumor_diagnoses"`
	BreastCancerDiagnoses int     `json:"breast_cancer_diagnoses"`
	StrokeDiagnoses       int     `json:"stroke_diagnoses"`
	CriticalFindings      int     `json:"critical_findings"`
	NormalFindings        int     `json:"normal_findings"`
	WarningFindings       int     `json:"warning_findings"`
	AccuracyRate          float64 `json:"accuracy_rate"`
}

// RecentActivity is one row of /statistics/recent-activity.
type RecentActivity struct {
	ID              int64   `json:"id"`
	DiagnosisType   string  `json:"diagnosis_type"`
	PredictedClass  string  `json:"predicted_class"`
	ConfidenceScore float64 `json:"confidence_score"`
	ImageURL        *string `json:"image_url,omitempty"`
	SegmentationURL *string `json:"segmentation_url,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"created_at"`
	Severity        string  `json:"severity"`
}

// TumorTypeDistribution is one slice of the tumor distribution chart.
type TumorTypeDistribution struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// WeeklyAnalytics is one day of the weekly analytics chart.
type WeeklyAnalytics struct {
	Day               string  `json:"day"`
	Date              string  `json:"date"`
	TotalAnalyses     int     `json:"total_analyses"`
	AverageConfidence float64 `json:"average_confidence"`
}

// MonthlyTrends is one month of the trends chart.
type MonthlyTrends struct {
	Month             string  `json:"month"`
	Year              int     `json:"year"`
	TotalDiagnoses    int     `json:"total_diagnoses"`
	CriticalFindings  int     `json:"critical_findings"`
	NormalFindings    int     `json:"normal_findings"`
	AverageConfidence float64 `json:"average_confidence"`
}
