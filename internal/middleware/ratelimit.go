package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware counts requests per path and caller IP in a fixed
// window. Redis trouble fails open: throttling is protection, not a
// dependency.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("ratelimit:%s:%s", c.Path(), c.IP())

		pipe := rdb.TxPipeline()
		count := pipe.Incr(c.Context(), key)
		pipe.ExpireNX(c.Context(), key, window)
		if _, err := pipe.Exec(c.Context()); err != nil {
			return c.Next()
		}

		if count.Val() > int64(limit) {
			c.Set("Retry-After", strconv.Itoa(int(window/time.Second)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}
