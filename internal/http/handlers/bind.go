package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
)

var errInvalidBody = apierr.Msg(http.StatusBadRequest, "invalid_request", "Invalid request body")

// bindJSON decodes the body into dst. An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return errInvalidBody
	}
	return nil
}
