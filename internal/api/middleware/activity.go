package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const userActiveKeyPrefix = "tasknest:user:active:"

// ActivityMiddleware marks authenticated users as recently active.
// Redis errors are ignored; activity tracking is best-effort.
func ActivityMiddleware(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, ok := c.Get(CtxUserID)
		if !ok {
			c.Next()
			return
		}
		userID, ok := userIDVal.(string)
		if !ok || userID == "" {
			c.Next()
			return
		}

		if ttl <= 0 {
			ttl = 10 * time.Minute
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		_ = rdb.Set(ctx, userActiveKeyPrefix+userID, "1", ttl).Err()

		c.Next()
	}
}
