package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET,POST,DELETE,OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Guest-Id, X-Request-Id"
	// Browsers only expose these to scripts when listed. Warning carries stale
	// history and unsaved answer notices, Retry-After the rate limit backoff.
	corsExposeHeaders = "X-Request-Id, Warning, Retry-After, Content-Disposition"
)

// CORS sets CORS headers for allowed origins and answers preflight requests.
// An allowed origin of "*" admits any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]struct{})
	anyOrigin := false
	for _, o := range allowedOrigins {
		trimmed := strings.TrimRight(strings.TrimSpace(o), "/")
		if trimmed == "*" {
			anyOrigin = true
			continue
		}
		if trimmed != "" {
			origins[trimmed] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			_, ok := origins[origin]
			if ok || anyOrigin {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", "600")
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		c.Next()
	}
}
