package respond

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Warning codes from RFC 7234 section 5.5.
const (
	// WarnStale marks a body served from a local copy after a failed refresh.
	WarnStale = 110
	// WarnMiscellaneous marks a successful body with a side effect that failed.
	WarnMiscellaneous = 199
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Warn adds a Warning header to the response being built. Call it before
// writing the body.
func Warn(c *gin.Context, code int, text string) {
	text = strings.ReplaceAll(text, `"`, "'")
	c.Writer.Header().Add("Warning", strconv.Itoa(code)+` - "`+text+`"`)
}
