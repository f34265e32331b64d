package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pdfreview/internal/auth"
)

// IdentityLocalKey is the key used to store the verified caller in Fiber's context locals.
const IdentityLocalKey = "identity"

// TokenVerifier turns an Authorization header into a caller identity.
type TokenVerifier interface {
	Verify(header string) (auth.Identity, error)
}

// Authenticate rejects requests without a valid bearer token with 401.
func Authenticate(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := v.Verify(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				return fiber.NewError(fiber.StatusUnauthorized, "authorization token is required")
			}
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// RequireAdmin must run after Authenticate. Non-admin callers get 403.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization token is required")
		}
		if !id.IsAdmin() {
			return fiber.NewError(fiber.StatusForbidden, "access forbidden: admins only")
		}
		return c.Next()
	}
}

// IdentityFrom returns the caller stored by Authenticate.
func IdentityFrom(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(auth.Identity)
	return id, ok
}
