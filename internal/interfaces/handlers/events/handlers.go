package events

import (
	"strconv"

	eventsvc "carbon-ledger/internal/application/events"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *eventsvc.Service
}

// GET /api/v1/events?after=<seq>&limit=<n>
func (h *Handlers) List(c *fiber.Ctx) error {
	var after uint64
	if s := c.Query("after"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return response.BadRequest(c, "after must be a non-negative integer")
		}
		after = v
	}
	limit := c.QueryInt("limit", eventsvc.DefaultLimit)
	if limit < 0 {
		return response.BadRequest(c, "limit must be positive")
	}

	page, err := h.Service.List(c.UserContext(), after, limit)
	if err != nil {
		log.Error().Err(err).Uint64("after", after).Msg("list events")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Events fetched successfully", page, fiber.Map{"count": len(page.Events)})
}
