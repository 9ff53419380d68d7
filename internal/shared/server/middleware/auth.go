package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library-backend/internal/session"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
)

// publicPaths skip identity checks.
var publicPaths = map[string]struct{}{
	"/api/v1/health": {},
	"/metrics":       {},
}

// Auth validates JWTs or guest headers, stores identity in the gin context and
// attaches a session.Session to the request context.
func Auth(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if _, ok := publicPaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(userIDKey, claims.Subject)
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(userNameKey, claims.Name)
			}
			c.Set("isGuest", false)
			attachSession(c, session.Session{OwnerID: claims.Subject, Email: claims.Email, Name: claims.Name})
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, "guest:"+guestID)
		c.Set("isGuest", true)
		attachSession(c, session.Session{OwnerID: "guest:" + guestID, Guest: true})
		c.Next()
	}
}

func attachSession(c *gin.Context, s session.Session) {
	c.Request = c.Request.WithContext(session.WithContext(c.Request.Context(), s))
}

// SessionFromContext returns the session attached by Auth.
func SessionFromContext(c *gin.Context) (session.Session, bool) {
	if c == nil || c.Request == nil {
		return session.Session{}, false
	}
	return session.FromContext(c.Request.Context())
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}
