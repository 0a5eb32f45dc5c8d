package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"photo-versions-backend/internal/models"
)

// UploadRateLimiter is a fixed-window counter per caller, shared across
// replicas through Redis. When Redis misbehaves requests pass through.
type UploadRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    zerolog.Logger
}

func NewUploadRateLimiter(client *redis.Client, limit int, window time.Duration, log zerolog.Logger) *UploadRateLimiter {
	return &UploadRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		log:    log.With().Str("component", "rate-limit").Logger(),
	}
}

// Middleware must run after AuthMiddleware; unauthenticated requests fall
// back to the client IP.
func (l *UploadRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		subject := CallerID(c)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}
		key := fmt.Sprintf("upload_rate_limit:%s", subject)

		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			l.log.Warn().Err(err).Msg("redis unavailable, skipping upload rate limit")
			c.Next()
			return
		}
		if count == 1 {
			if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
				l.log.Warn().Err(err).Str("key", key).Msg("failed to set rate limit window")
			}
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		if int(count) > l.limit {
			ttl, err := l.client.TTL(ctx, key).Result()
			if err != nil || ttl < 0 {
				ttl = l.window
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "too many requests",
				Message: fmt.Sprintf("upload limit of %d per %s reached", l.limit, l.window),
				Code:    "rate_limited",
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(l.limit-int(count)))
		c.Next()
	}
}
