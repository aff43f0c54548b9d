package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	CorrelationIDHeader    = "X-Correlation-ID"
	IdempotentReplayHeader = "X-Idempotent-Replay"
)

// IdempotencyMiddleware replays the stored response when a POST/PUT/PATCH arrives again
// with the same X-Correlation-ID from the same user within ttl.
// Only 2xx responses are stored, so a failed generation can be retried with the same ID.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) fiber.Handler {
	log := logger.WithField("component", "idempotency")

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(CorrelationIDHeader)
		if correlationID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s:%s:%s", GetUserID(c), c.Path(), correlationID)

		cached, err := redisClient.Get(c.UserContext(), key).Bytes()
		if err == nil && len(cached) > 0 {
			c.Set(IdempotentReplayHeader, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(cached)
		}

		if err := c.Next(); err != nil {
			return err
		}

		statusCode := c.Response().StatusCode()
		if statusCode < 200 || statusCode >= 300 {
			return nil
		}

		// The response buffer is reused after the handler returns
		body := append([]byte(nil), c.Response().Body()...)
		if len(body) == 0 {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisClient.Set(ctx, key, body, ttl).Err(); err != nil {
			log.WithError(err).Warn("failed to store idempotent response")
		}
		return nil
	}
}
