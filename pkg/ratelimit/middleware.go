package ratelimit

import (
	"net/http"
	"strconv"

	"roomly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware applies the default rate limit tier to every request
func Middleware(limiter *RateLimiter) gin.HandlerFunc {
	return MiddlewareWithType(limiter, RateLimitTypeDefault)
}

// MiddlewareWithType applies a specific rate limit tier
func MiddlewareWithType(limiter *RateLimiter, limitType RateLimitType) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || !limiter.config.Enabled {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if limiter.IsWhitelisted(ip) {
			c.Next()
			return
		}

		result, err := limiter.Check(c.Request.Context(), ip, limitType)
		if err != nil {
			// Limiter store unreachable: fail open, the check already allowed it
			logger.GetDefault().WithError(err).Warn("rate limiter unavailable, allowing request")
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

		if !result.Allowed {
			logger.GetDefault().LogRateLimitExceeded(c.Request.Context(), ip, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "rate limit exceeded, retry later",
			})
			return
		}

		c.Next()
	}
}
