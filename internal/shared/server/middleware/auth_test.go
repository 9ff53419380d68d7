package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"library-backend/internal/session"
	"library-backend/internal/shared/auth"
)

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.OPTIONS("/api/v1/documents/current", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/documents/current", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthAttachesGuestSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	var got session.Session
	var ok bool
	router.GET("/api/v1/documents", func(c *gin.Context) {
		got, ok = SessionFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("X-Guest-Id", "abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !ok || got.OwnerID != "guest:abc" || !got.Guest {
		t.Fatalf("unexpected session: %+v ok=%v", got, ok)
	}
}

func TestAuthBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")
	token, err := auth.SignJWT(auth.Claims{Email: "r@example.com", RegisteredClaims: jwt.RegisteredClaims{Subject: "user-9"}})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	router := gin.New()
	router.Use(Auth("dev"))
	router.GET("/api/v1/me", func(c *gin.Context) {
		s, _ := SessionFromContext(c)
		c.String(http.StatusOK, s.OwnerID+"|"+UserEmailFromContext(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || resp.Body.String() != "user-9|r@example.com" {
		t.Fatalf("unexpected response %d %q", resp.Code, resp.Body.String())
	}
}

func TestAuthRejectsMissingIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.GET("/api/v1/documents", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected health to be public, got %d", resp.Code)
	}
}
