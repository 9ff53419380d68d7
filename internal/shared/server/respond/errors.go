package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/apperr"
	"library-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type kindMapping struct {
	status int
	code   string
}

var kindStatus = map[apperr.Kind]kindMapping{
	apperr.KindValidation:        {http.StatusBadRequest, "validation_error"},
	apperr.KindNoRelevantContent: {http.StatusNotFound, "no_relevant_content"},
	apperr.KindIndexing:          {http.StatusBadGateway, "indexing_failed"},
	apperr.KindTransport:         {http.StatusBadGateway, "upstream_failed"},
}

// Error sends a standardized error response. 5xx responses are logged at
// error level, the rest at warn.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if docID := c.GetString("documentId"); docID != "" {
		fields["document_id"] = docID
	}
	if isGuest, ok := c.Get("isGuest"); ok {
		fields["is_guest"] = isGuest
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// AppError maps an apperr kind to its status and code. Errors without a kind,
// and kinds that never fail a request, become 500.
func AppError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if m, ok := kindStatus[appErr.Kind]; ok {
			Error(c, m.status, m.code, apperr.MessageOf(err), nil)
			return
		}
	}
	Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
}
