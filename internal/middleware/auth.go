package middleware

import (
	"carbon-ledger/internal/ledger"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const orgLocal = "org"

// RequireAuth ensures an organization is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetIdentity(c) == "" {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// RequireRegistered rejects sessions whose identity is no longer registered in the ledger.
func RequireRegistered(l *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.IsRegistered(GetIdentity(c)) {
			return response.Error(c, "Organization is not registered", fiber.StatusForbidden, nil)
		}
		return c.Next()
	}
}

// GetSessionOrg returns the session organization from Locals (nil if not logged in).
func GetSessionOrg(c *fiber.Ctx) interface{} {
	return c.Locals(orgLocal)
}

// GetIdentity returns the logged-in organization's identity, or "".
func GetIdentity(c *fiber.Ctx) ledger.Identity {
	m, ok := c.Locals(orgLocal).(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := m["identity"].(string)
	return ledger.Identity(id)
}
