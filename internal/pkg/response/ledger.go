package response

import (
	"errors"

	"carbon-ledger/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var ledgerStatus = []struct {
	err  error
	code int
}{
	{ledger.ErrNotRegistered, fiber.StatusNotFound},
	{ledger.ErrAlreadyRegistered, fiber.StatusConflict},
	{ledger.ErrInvalidName, fiber.StatusBadRequest},
	{ledger.ErrInvalidAmount, fiber.StatusBadRequest},
	{ledger.ErrInvalidProject, fiber.StatusBadRequest},
	{ledger.ErrCreditNotFound, fiber.StatusNotFound},
	{ledger.ErrCreditRetired, fiber.StatusConflict},
	{ledger.ErrNotOwner, fiber.StatusForbidden},
	{ledger.ErrStale, fiber.StatusConflict},
}

// StatusFor maps a ledger error to its HTTP status; unknown errors are 500.
func StatusFor(err error) int {
	for _, s := range ledgerStatus {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return fiber.StatusInternalServerError
}

// LedgerError sends err in the standard error format with the status from StatusFor.
// Internal errors are logged and hidden from the client.
func LedgerError(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("ledger operation failed")
		return Error(c, "Internal Server Error", code, nil)
	}
	if errors.Is(err, ledger.ErrStale) {
		log.Warn().Err(err).Str("path", c.Path()).Msg("ledger could not catch up with journal")
		return Error(c, "Ledger was modified concurrently, retry the request", code, nil)
	}
	return Error(c, err.Error(), code, nil)
}
