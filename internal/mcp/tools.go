package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/internal/service"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ListDiagnosesParams defines parameters for the list_diagnoses tool
type ListDiagnosesParams struct {
	Skip  int  `json:"skip"`
	Limit *int `json:"limit,omitempty"`
}

// AssessDiagnosisParams defines parameters for the assess_diagnosis tool
type AssessDiagnosisParams struct {
	DiagnosisType   string  `json:"diagnosis_type" validate:"required"`
	AnalysisType    string  `json:"analysis_type,omitempty" validate:"omitempty,oneof=birads pathological both"`
	PredictedClass  string  `json:"predicted_class" validate:"required"`
	ConfidenceScore float64 `json:"confidence_score" validate:"gte=0,lte=1"`
}

// RecordParams identifies one stored diagnosis.
type RecordParams struct {
	DiagnosisType string `json:"diagnosis_type" validate:"required"`
	ID            int64  `json:"id" validate:"gt=0"`
}

// UpdateNotesParams defines parameters for the update_diagnosis_notes tool
type UpdateNotesParams struct {
	RecordParams
	Notes string `json:"notes"`
}

// AnalyticsParams defines parameters for the analytics tool
type AnalyticsParams struct {
	Months int `json:"months,omitempty" validate:"gte=0,lte=60"`
}

type toolFunc func(ctx context.Context, args json.RawMessage) (any, error)

func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        "list_diagnoses",
		Description: "List diagnoses from every domain merged newest first, with severity and display labels.",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{
			"skip":  {Type: "integer", Description: "Records to skip (default 0)"},
			"limit": {Type: "integer", Description: "Page size (default 100)"},
		}),
	}, s.listDiagnoses)

	s.addTool(&mcp.Tool{
		Name:        "dashboard_stats",
		Description: "Dashboard totals per domain, findings by severity and recent activity.",
		InputSchema: objectSchema(nil, nil),
	}, s.dashboardStats)

	s.addTool(&mcp.Tool{
		Name:        "assess_diagnosis",
		Description: "Derive the display label, severity, confidence level and recommendations for a prediction.",
		InputSchema: objectSchema([]string{"diagnosis_type", "predicted_class", "confidence_score"}, map[string]*jsonschema.Schema{
			"diagnosis_type":   {Type: "string", Description: "brain_tumor, breast_cancer or stroke"},
			"analysis_type":    {Type: "string", Description: "Breast cancer only: birads, pathological or both"},
			"predicted_class":  {Type: "string", Description: "Classifier label, e.g. glioma or BI-RADS 4 (Suspicious)"},
			"confidence_score": {Type: "number", Description: "Classifier confidence in [0, 1]"},
		}),
	}, s.assessDiagnosis)

	s.addTool(&mcp.Tool{
		Name:        "update_diagnosis_notes",
		Description: "Replace the clinician notes of a stored diagnosis.",
		InputSchema: objectSchema([]string{"diagnosis_type", "id", "notes"}, map[string]*jsonschema.Schema{
			"diagnosis_type": {Type: "string"},
			"id":             {Type: "integer"},
			"notes":          {Type: "string"},
		}),
	}, s.updateNotes)

	s.addTool(&mcp.Tool{
		Name:        "delete_diagnosis",
		Description: "Delete a stored diagnosis.",
		InputSchema: objectSchema([]string{"diagnosis_type", "id"}, map[string]*jsonschema.Schema{
			"diagnosis_type": {Type: "string"},
			"id":             {Type: "integer"},
		}),
	}, s.deleteDiagnosis)

	s.addTool(&mcp.Tool{
		Name:        "analytics",
		Description: "Tumor distribution, weekly activity and monthly trends.",
		InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{
			"months": {Type: "integer", Description: "Months of trend history (default 6)"},
		}),
	}, s.analytics)
}

func objectSchema(required []string, properties map[string]*jsonschema.Schema) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{Type: "object", Properties: properties, Required: required}
}

// addTool registers run under tool.Name, attaching the caller identity and
// rendering the result as indented JSON text.
func (s *Server) addTool(tool *mcp.Tool, run toolFunc) {
	s.mcpServer.AddTool(tool, s.handler(tool.Name, run))
	s.tools = append(s.tools, tool.Name)
	s.logger.WithField("tool_name", tool.Name).Debug("Registered MCP tool")
}

func (s *Server) handler(name string, run toolFunc) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		result, err := run(s.withCaller(ctx), args)
		if s.observer != nil {
			s.observer.ObserveToolCall(name, err)
		}
		if err != nil {
			s.logger.WithError(err).WithField("tool", name).Warn("Tool call failed")
			return s.createErrorResult(err), nil
		}

		text, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		}, nil
	}
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}

// decodeArgs unmarshals and validates tool arguments. Missing arguments
// decode as the zero value.
func decodeArgs[T any](args json.RawMessage) (T, error) {
	var params T
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return params, fmt.Errorf("invalid parameters: %w", err)
		}
	}
	if err := validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return params, fmt.Errorf("invalid parameters: %s failed on %q", verrs[0].Field(), verrs[0].Tag())
		}
		return params, fmt.Errorf("invalid parameters: %w", err)
	}
	return params, nil
}

func (s *Server) listDiagnoses(ctx context.Context, args json.RawMessage) (any, error) {
	params, err := decodeArgs[ListDiagnosesParams](args)
	if err != nil {
		return nil, err
	}
	limit := service.DefaultPageLimit
	if params.Limit != nil {
		limit = *params.Limit
	}

	page, err := s.service.GetAllDiagnoses(ctx, params.Skip, limit)
	if err != nil {
		return nil, err
	}
	return service.AnnotatePage(page), nil
}

func (s *Server) dashboardStats(ctx context.Context, _ json.RawMessage) (any, error) {
	summary, err := s.service.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	return service.AnnotateDashboard(summary), nil
}

func (s *Server) assessDiagnosis(_ context.Context, args json.RawMessage) (any, error) {
	params, err := decodeArgs[AssessDiagnosisParams](args)
	if err != nil {
		return nil, err
	}

	d := domain.NewDiagnosisRef(params.DiagnosisType, 0)
	base := d.Common()
	base.PredictedClass = params.PredictedClass
	base.ConfidenceScore = params.ConfidenceScore
	if bc, ok := d.(*domain.BreastCancerDiagnosis); ok && params.AnalysisType != "" {
		bc.AnalysisType = domain.AnalysisType(params.AnalysisType)
	}
	return service.Assess(d), nil
}

func (s *Server) updateNotes(ctx context.Context, args json.RawMessage) (any, error) {
	params, err := decodeArgs[UpdateNotesParams](args)
	if err != nil {
		return nil, err
	}

	d, err := s.service.UpdateDiagnosisNotes(ctx, domain.NewDiagnosisRef(params.DiagnosisType, params.ID), params.Notes)
	if err != nil {
		return nil, err
	}
	return service.Detail(d), nil
}

func (s *Server) deleteDiagnosis(ctx context.Context, args json.RawMessage) (any, error) {
	params, err := decodeArgs[RecordParams](args)
	if err != nil {
		return nil, err
	}
	return s.service.DeleteDiagnosis(ctx, domain.NewDiagnosisRef(params.DiagnosisType, params.ID))
}

func (s *Server) analytics(ctx context.Context, args json.RawMessage) (any, error) {
	params, err := decodeArgs[AnalyticsParams](args)
	if err != nil {
		return nil, err
	}
	return s.service.GetAnalytics(ctx, params.Months)
}
