package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func rateLimitKey(ip string) string {
	return "RateLimit:" + ip
}

// RateLimitMiddleware counts requests per client IP in a fixed window.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	if rl.client == nil {
		c.Next()
		return
	}
	key := rateLimitKey(c.ClientIP())
	ctx := c.Request.Context()

	// the first request opens the window
	created, err := rl.client.SetNX(ctx, key, 1, rl.window).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if created {
		c.Next()
		return
	}

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}
	c.Next()
}
