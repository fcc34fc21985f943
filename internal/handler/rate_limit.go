package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prperemyshlev/mbti-quiz/internal/dto"
	"github.com/prperemyshlev/mbti-quiz/internal/service"
)

// RateLimitMiddleware limits requests per key. When the limiter itself fails
// the request is let through.
func RateLimitMiddleware(rateLimiter *service.RateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		decision, err := rateLimiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "Too Many Requests",
				Message: "rate limit exceeded, try again in " + decision.RetryAfter.Round(time.Second).String(),
			})
			return
		}

		c.Next()
	}
}

// RouteIPKey keys the limit by route and client IP, so login attempts do not
// eat into the registration budget.
func RouteIPKey(c *gin.Context) string {
	return c.FullPath() + ":" + c.ClientIP()
}
