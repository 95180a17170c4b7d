package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates the request identifier across hops.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is where the identifier lives in Fiber's locals; the
	// access logger and the error envelope both read it from there.
	RequestIDLocalKey = "request_id"
)

// RequestID tags every request with an identifier. An inbound X-Request-ID is
// kept so identifiers stay stable across a calling chain; otherwise a fresh
// UUID is generated. The identifier is stored in locals and echoed on the
// response, so a tool caller can quote it when reporting a failed operation.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
