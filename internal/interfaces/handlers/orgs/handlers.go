package orgs

import (
	authsvc "carbon-ledger/internal/application/auth"
	orgsvc "carbon-ledger/internal/application/orgs"
	"carbon-ledger/internal/ledger"
	"carbon-ledger/internal/middleware"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for organization endpoints.
type Handlers struct {
	Service *orgsvc.Service
}

// Register POST /api/v1/orgs/register (public).
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in orgsvc.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if in.Identity == "" || in.Secret == "" {
		return response.BadRequest(c, authsvc.ErrIdentitySecretRequired.Error())
	}

	p, err := h.Service.Register(c.UserContext(), in)
	if err != nil {
		switch err {
		case authsvc.ErrInvalidIdentity, authsvc.ErrWeakSecret, authsvc.ErrIdentitySecretRequired:
			return response.BadRequest(c, err.Error())
		}
		return response.LedgerError(c, err)
	}
	return response.SuccessCreated(c, "Organization registered", fiber.Map{"org": p}, nil)
}

// View GET /api/v1/orgs/:identity. Unknown identities return an unregistered zero profile.
func (h *Handlers) View(c *fiber.Ctx) error {
	identity := c.Params("identity")
	if identity == "" {
		return response.BadRequest(c, "identity is required")
	}
	return response.Success(c, "Organization fetched", fiber.Map{"org": h.Service.Profile(ledger.Identity(identity))}, nil)
}

// ReportEmissionsRequest body.
type ReportEmissionsRequest struct {
	Amount int64 `json:"amount"`
}

// ReportEmissions POST /api/v1/emissions/report for the session organization.
func (h *Handlers) ReportEmissions(c *fiber.Ctx) error {
	var req ReportEmissionsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	p, err := h.Service.ReportEmissions(c.UserContext(), middleware.GetIdentity(c), req.Amount)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Emissions reported", fiber.Map{"org": p}, nil)
}
