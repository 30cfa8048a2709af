package middleware

import (
	"github.com/gofiber/fiber/v2"

	"scoutapi/internal/identity"
)

// UserIDHeader carries the authenticated principal, as asserted by the
// gateway in front of this service. An absent header means a guest request.
const UserIDHeader = "X-User-ID"

// Auth propagates the asserted user id into the request context so the
// identity resolver can probe it per operation.
func Auth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := c.Get(UserIDHeader); id != "" {
			c.SetUserContext(identity.WithUserID(c.UserContext(), id))
		}
		return c.Next()
	}
}
