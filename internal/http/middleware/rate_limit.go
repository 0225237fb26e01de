package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/clients/redis"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/http/response"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/observability"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/apierr"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/ctxutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

var ErrTooManyAIRequests = apierr.Msg(http.StatusTooManyRequests, "rate_limited", "Too many AI requests. Please slow down.")

// AIRateLimit applies the per-user AI budget. Limiter failures let the
// request through.
func AIRateLimit(log *logger.Logger, limiter redis.RateLimiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("middleware", "AIRateLimit")
	return func(c *gin.Context) {
		uid := ctxutil.UserID(c.Request.Context())
		if uid == uuid.Nil {
			c.Next()
			return
		}
		ok, err := limiter.Allow(c.Request.Context(), uid.String())
		if err != nil {
			log.Warn("Rate limiter unavailable; allowing request", "error", err)
			c.Next()
			return
		}
		if !ok {
			observability.Current().IncRateLimited()
			response.Fail(c, ErrTooManyAIRequests)
			return
		}
		c.Next()
	}
}
