package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/server/respond"
	"library-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope and logs the stack with
// the owner and document the request was about.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			}
			if sess, ok := SessionFromContext(c); ok {
				fields["user_id"] = sess.OwnerID
			}
			if docID := c.GetString("documentId"); docID != "" {
				fields["document_id"] = docID
			}
			telemetry.Error("panic", fields)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
