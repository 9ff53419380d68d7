package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestIDReusesOrGenerates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/documents", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{name: "client id", header: "abc-123", reuse: true},
		{name: "missing", header: "", reuse: false},
		{name: "spaces", header: "has spaces", reuse: false},
		{name: "too long", header: strings.Repeat("x", 200), reuse: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/documents", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-Id", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-Id")
			if got != w.Body.String() {
				t.Fatalf("header %q and context %q differ", got, w.Body.String())
			}
			if tt.reuse {
				if got != tt.header {
					t.Fatalf("expected client id %q, got %q", tt.header, got)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated uuid, got %q", got)
			}
		})
	}
}
