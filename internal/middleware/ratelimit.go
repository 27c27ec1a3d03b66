package middleware

import (
	"log"

	apierrors "github.com/edtech-labs/learning-task-api/internal/errors"
	"github.com/edtech-labs/learning-task-api/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// LoginRateLimit throttles login attempts per client IP. The limit applies
// whether or not the email exists. A nil limiter disables throttling; an
// unreachable limiter fails open so an outage cannot lock everyone out.
func LoginRateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		result, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Printf("login rate limiter unavailable: %v", err)
			c.Next()
			return
		}

		if !result.Allowed {
			apierrors.TooManyRequests(c, "Too many login attempts, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
