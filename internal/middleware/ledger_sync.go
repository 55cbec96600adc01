package middleware

import (
	"carbon-ledger/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// SyncLedger reloads l before the request when another process has committed
// to its journal. A failed sync is logged and the request is served from memory.
func SyncLedger(l *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := l.Sync(c.UserContext()); err != nil {
			log.Warn().Err(err).Str("path", c.Path()).Msg("ledger sync failed")
		}
		return c.Next()
	}
}
