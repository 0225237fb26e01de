package response

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/ctxutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

// UploadLimitKey holds the active upload limit in MB on the gin context.
const UploadLimitKey = "upload_limit_mb"

const aiRoutePrefix = "/api/ai/"

type settings struct {
	log        *logger.Logger
	production bool
}

var current atomic.Pointer[settings]

// Configure sets the logger and production mode used by Fail.
func Configure(log *logger.Logger, production bool) {
	if log != nil {
		log = log.With("component", "HTTPErrors")
	}
	current.Store(&settings{log: log, production: production})
}

func cfg() *settings {
	if s := current.Load(); s != nil {
		return s
	}
	return &settings{}
}

// UploadError is a multipart parse failure other than the size limit.
type UploadError struct {
	Code string
	Err  error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *UploadError) Unwrap() error { return e.Err }

func NewUploadError(code string, err error) *UploadError {
	return &UploadError{Code: code, Err: err}
}

// Fail writes the error response for err and logs it.
func Fail(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	s := cfg()
	aiRoute := strings.HasPrefix(c.Request.URL.Path, aiRoutePrefix)
	prefix := ""
	if aiRoute {
		prefix = "AI: "
	}

	status := http.StatusInternalServerError
	code := "internal"
	message := err.Error()

	var (
		ae        *apierr.Error
		maxBytes  *http.MaxBytesError
		uploadErr *UploadError
	)
	switch {
	case errors.As(err, &maxBytes) || errors.Is(err, multipart.ErrMessageTooLarge):
		status = http.StatusRequestEntityTooLarge
		code = "file_too_large"
		message = fmt.Sprintf("%sFile too large. Max %d MB.", prefix, uploadLimitMB(c, maxBytes))
	case errors.As(err, &uploadErr):
		status = http.StatusBadRequest
		code = "upload_failed"
		message = fmt.Sprintf("%sUpload failed (%s).", prefix, uploadErr.Code)
	case errors.As(err, &ae):
		if ae.Status != 0 {
			status = ae.Status
		}
		if ae.Code != "" {
			code = ae.Code
		}
		message = ae.Error()
	default:
		if s.production {
			message = "Something went wrong"
		} else {
			message = prefix + message
		}
	}

	logFailure(c, s.log, status, code, err)

	body := gin.H{"success": false, "message": message, "code": code}
	if !s.production {
		body["error"] = gin.H{"name": errorName(err), "message": err.Error()}
	}
	c.AbortWithStatusJSON(status, body)
}

func uploadLimitMB(c *gin.Context, maxBytes *http.MaxBytesError) int64 {
	if v, ok := c.Get(UploadLimitKey); ok {
		if n, ok := v.(int64); ok && n > 0 {
			return n
		}
	}
	if maxBytes != nil && maxBytes.Limit > 0 {
		return maxBytes.Limit >> 20
	}
	return 0
}

func errorName(err error) string {
	if ae, ok := apierr.As(err); ok && ae.Code != "" {
		return ae.Code
	}
	return fmt.Sprintf("%T", err)
}

func logFailure(c *gin.Context, log *logger.Logger, status int, code string, err error) {
	if log == nil {
		return
	}
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"code", code,
	}
	if uid := ctxutil.UserID(c.Request.Context()); uid != uuid.Nil {
		fields = append(fields, "user_id", uid.String())
	}
	if status >= 500 {
		log.Error("Request failed", append(fields, "error", err)...)
		return
	}
	log.Warn("Request failed", append(fields, "message", err.Error())...)
}
