package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/internal/middleware"
	"github.com/medimaging-diagnosis-hub/internal/preferences"
	"github.com/medimaging-diagnosis-hub/pkg/external"
)

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string, string) {
	var apiErr *external.APIError
	var fetchErr *domain.SourceFetchError

	switch {
	case errors.Is(err, domain.ErrUnknownDiagnosisType):
		return http.StatusBadRequest, domain.ErrCodeUnknownType, domain.ErrUnknownDiagnosisType.Error()
	case errors.Is(err, domain.ErrInvalidAnalysisType), errors.Is(err, preferences.ErrInvalidPreferences):
		return http.StatusBadRequest, domain.ErrCodeInvalidInput, err.Error()
	case errors.Is(err, preferences.ErrUserKeyRequired):
		return http.StatusUnauthorized, domain.ErrCodeUnauthorized, "a bearer token is required"
	case errors.Is(err, external.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, domain.ErrCodeUpstreamUnavailable, err.Error()
	case errors.As(err, &apiErr):
		code := domain.ErrCodeUpstream
		if apiErr.StatusCode == http.StatusNotFound {
			code = domain.ErrCodeNotFound
		}
		return apiErr.StatusCode, code, apiErr.Detail
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, domain.ErrCodeTimeout, "the diagnosis backend did not answer in time"
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, domain.ErrCodeUpstream, err.Error()
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternalServer, "internal server error"
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, code, message := classify(err)
	_ = c.Error(err)

	entry := s.logger.WithFields(logrus.Fields{
		"correlation_id": c.GetString(middleware.CorrelationIDKey),
		"code":           code,
		"status":         status,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, "", c.GetString(middleware.CorrelationIDKey)))
}

func (s *Server) badRequest(c *gin.Context, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
		domain.ErrCodeInvalidInput, message, details, c.GetString(middleware.CorrelationIDKey),
	))
}
