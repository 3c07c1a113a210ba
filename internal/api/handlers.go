package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/internal/preferences"
	"github.com/medimaging-diagnosis-hub/internal/service"
)

// ListQuery is the paging query of GET /diagnoses. Negative values are
// clamped by the service.
type ListQuery struct {
	Skip  int `form:"skip"`
	Limit int `form:"limit,default=100"`
}

// NotesRequest is the body of PATCH /diagnoses/:type/:id.
type NotesRequest struct {
	Notes *string `json:"notes" binding:"required"`
}

func (s *Server) handleListDiagnoses(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.badRequest(c, "skip and limit must be integers", err)
		return
	}

	page, err := s.deps.Service.GetAllDiagnoses(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.AnnotatePage(page))
}

// diagnosisRef reads :type and :id into a dispatchable record.
func (s *Server) diagnosisRef(c *gin.Context) (domain.Diagnosis, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.badRequest(c, "id must be a positive integer", err)
		return nil, false
	}
	return domain.NewDiagnosisRef(c.Param("type"), id), true
}

func (s *Server) handleGetDiagnosis(c *gin.Context) {
	ref, ok := s.diagnosisRef(c)
	if !ok {
		return
	}

	d, err := s.deps.Service.GetDiagnosis(c.Request.Context(), ref)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.Detail(d))
}

func (s *Server) handleUpdateNotes(c *gin.Context) {
	ref, ok := s.diagnosisRef(c)
	if !ok {
		return
	}

	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "body must be {\"notes\": string}", err)
		return
	}

	d, err := s.deps.Service.UpdateDiagnosisNotes(c.Request.Context(), ref, *req.Notes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.Detail(d))
}

func (s *Server) handleDeleteDiagnosis(c *gin.Context) {
	ref, ok := s.diagnosisRef(c)
	if !ok {
		return
	}

	msg, err := s.deps.Service.DeleteDiagnosis(c.Request.Context(), ref)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.badRequest(c, "multipart field \"file\" is required", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		s.badRequest(c, "uploaded file could not be read", err)
		return
	}
	defer file.Close()

	upload := domain.Upload{
		Filename:     fileHeader.Filename,
		Content:      file,
		Notes:        c.PostForm("notes"),
		AnalysisType: domain.AnalysisType(c.PostForm("analysis_type")),
	}

	d, err := s.deps.Service.Analyze(c.Request.Context(), c.Param("type"), upload)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.Detail(d))
}

func (s *Server) handleDashboard(c *gin.Context) {
	summary, err := s.deps.Service.GetDashboardStats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.AnnotateDashboard(summary))
}

func (s *Server) handleAnalytics(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", strconv.Itoa(service.DefaultTrendMonths)))
	if err != nil {
		s.badRequest(c, "months must be an integer", err)
		return
	}

	analytics, err := s.deps.Service.GetAnalytics(c.Request.Context(), months)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (s *Server) handleAnalysisTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"analysis_types":               service.AnalysisTypes(),
		"breast_cancer_analysis_types": service.BreastCancerAnalysisTypes(),
	})
}

func (s *Server) handleGetPreferences(c *gin.Context) {
	prefs, err := s.deps.Preferences.Get(c.Request.Context(), domain.UserKey(c.Request.Context()))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleUpdatePreferences(c *gin.Context) {
	ctx := c.Request.Context()
	userKey := domain.UserKey(ctx)

	var patch preferences.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.badRequest(c, "body must be a preferences object", err)
		return
	}

	current, err := s.deps.Preferences.Get(ctx, userKey)
	if err != nil {
		s.writeError(c, err)
		return
	}

	merged := preferences.Merge(current, patch)
	if err := s.deps.Preferences.Save(ctx, userKey, merged); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, merged)
}

// handleResetPreferences drops the stored document so the caller is back on
// the defaults.
func (s *Server) handleResetPreferences(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.deps.Preferences.Delete(ctx, domain.UserKey(ctx)); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferences.Defaults())
}
