package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request, at warn for 4xx and error for 5xx.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		userID, _ := c.Get(userIDKey)
		if sess, ok := SessionFromContext(c); ok && userID == nil {
			userID = sess.OwnerID
		}
		isGuest, _ := c.Get("isGuest")
		documentID, _ := c.Get("documentId")
		questionID, _ := c.Get("questionId")
		statusTransition := ""
		if raw, ok := c.Get("statusTransition"); ok {
			if s, ok := raw.(string); ok {
				statusTransition = s
			}
		}

		fields := map[string]any{
			"request_id":        reqID,
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            status,
			"status_transition": statusTransition,
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"user_id":           userID,
			"document_id":       documentID,
			"question_id":       questionID,
			"is_guest":          isGuest,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
			"bytes_out":         c.Writer.Size(),
		}
		if c.Request.ContentLength > 0 {
			fields["bytes_in"] = c.Request.ContentLength
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		switch {
		case status >= 500:
			telemetry.Error("request.complete", fields)
		case status >= 400:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
