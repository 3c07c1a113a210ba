package external

import (
	"context"

	"github.com/medimaging-diagnosis-hub/internal/domain"
)

// BrainTumorClient talks to the /diagnosis/ collection.
type BrainTumorClient struct {
	collection[domain.BrainTumorRecord]
}

// NewBrainTumorClient creates a brain tumor collection client.
func NewBrainTumorClient(client *Client) *BrainTumorClient {
	return &BrainTumorClient{newCollection[domain.BrainTumorRecord](client, SourceBrainTumor, "/diagnosis/")}
}

// Diagnose uploads a brain MRI for tumor classification.
func (c *BrainTumorClient) Diagnose(ctx context.Context, upload domain.Upload) (*domain.BrainTumorRecord, error) {
	return c.diagnose(ctx, upload, nil)
}

// BreastCancerClient talks to the /breast-cancer/ collection.
type BreastCancerClient struct {
	collection[domain.BreastCancerRecord]
}

// NewBreastCancerClient creates a breast cancer collection client.
func NewBreastCancerClient(client *Client) *BreastCancerClient {
	return &BreastCancerClient{newCollection[domain.BreastCancerRecord](client, SourceBreastCancer, "/breast-cancer/")}
}

// Diagnose uploads a mammogram or histology image. The analysis type is sent
// only when set.
func (c *BreastCancerClient) Diagnose(ctx context.Context, upload domain.Upload) (*domain.BreastCancerRecord, error) {
	var fields map[string]string
	if upload.AnalysisType != "" {
		fields = map[string]string{"analysis_type": string(upload.AnalysisType)}
	}
	return c.diagnose(ctx, upload, fields)
}

// StrokeClient talks to the /stroke/ collection.
type StrokeClient struct {
	collection[domain.StrokeRecord]
}

// NewStrokeClient creates a stroke collection client.
func NewStrokeClient(client *Client) *StrokeClient {
	return &StrokeClient{newCollection[domain.StrokeRecord](client, SourceStroke, "/stroke/")}
}

// Diagnose uploads a brain scan for stroke classification.
func (c *StrokeClient) Diagnose(ctx context.Context, upload domain.Upload) (*domain.StrokeRecord, error) {
	return c.diagnose(ctx, upload, nil)
}

// Sources groups the four backend sources the service layer consumes.
type Sources struct {
	BrainTumor   domain.BrainTumorSource
	BreastCancer domain.BreastCancerSource
	Stroke       domain.StrokeSource
	Statistics   domain.StatisticsSource
}

// NewSources builds plain HTTP clients for every source sharing one resty client.
func NewSources(client *Client) Sources {
	return Sources{
		BrainTumor:   NewBrainTumorClient(client),
		BreastCancer: NewBreastCancerClient(client),
		Stroke:       NewStrokeClient(client),
		Statistics:   NewStatisticsClient(client),
	}
}
