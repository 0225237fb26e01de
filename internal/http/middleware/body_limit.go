package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/response"
)

// LimitBody caps the request body at mb megabytes. Reads past the cap fail
// with *http.MaxBytesError, which response.Fail maps to 413.
func LimitBody(mb int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if mb > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, mb<<20)
			c.Set(response.UploadLimitKey, mb)
		}
		c.Next()
	}
}
