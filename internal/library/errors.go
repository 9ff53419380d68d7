package library

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/documents"
	"library-backend/internal/shared/apperr"
	"library-backend/internal/shared/server/respond"
)

// writeError maps controller errors onto the standard error envelope.
func writeError(c *gin.Context, err error) {
	if errors.Is(err, documents.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
		return
	}
	respond.AppError(c, err)
}

// warn reports a non-fatal failure next to a successful body.
func warn(c *gin.Context, err error) string {
	msg := apperr.MessageOf(err)
	if errors.Is(err, apperr.ErrSync) {
		respond.Warn(c, respond.WarnStale, msg)
	} else {
		respond.Warn(c, respond.WarnMiscellaneous, msg)
	}
	return msg
}
