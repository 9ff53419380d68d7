package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/telemetry"
)

func TestRecoveryReturnsEnvelopeAndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	prev := telemetry.SetOutput(&logs)
	defer telemetry.SetOutput(prev)

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/documents/:id", func(c *gin.Context) {
		c.Set("documentId", c.Param("id"))
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/doc-9", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error.Code != "internal" {
		t.Fatalf("unexpected body %s (%v)", w.Body.String(), err)
	}
	if !bytes.Contains(logs.Bytes(), []byte(`"document_id":"doc-9"`)) {
		t.Fatalf("panic log missing document id: %s", logs.String())
	}
}
