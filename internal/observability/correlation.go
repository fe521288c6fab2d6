package observability

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CorrelationMiddleware tags every request with a correlation id, taken
// from X-Request-ID or generated, and makes it reachable through the
// request context for downstream logging and event publishing.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.Set(fiber.HeaderXRequestID, correlationID)
		c.Locals(correlationIDKey{}, correlationID)

		return c.Next()
	}
}
