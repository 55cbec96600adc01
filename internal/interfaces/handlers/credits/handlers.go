package credits

import (
	"strconv"

	creditsvc "carbon-ledger/internal/application/credits"
	"carbon-ledger/internal/ledger"
	"carbon-ledger/internal/middleware"
	"carbon-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for credit endpoints.
type Handlers struct {
	Service *creditsvc.Service
}

// IssueRequest body for POST /credits/issue.
type IssueRequest struct {
	Amount      int64  `json:"amount"`
	ProjectType string `json:"project_type"`
}

// TransferRequest body for POST /credits/transfer.
type TransferRequest struct {
	CreditID  uint64 `json:"credit_id"`
	Recipient string `json:"recipient"`
}

// RetireRequest body for POST /credits/retire.
type RetireRequest struct {
	CreditID uint64 `json:"credit_id"`
}

// Issue mints a credit owned by the session organization.
func (h *Handlers) Issue(c *fiber.Ctx) error {
	var req IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	credit, err := h.Service.Issue(c.UserContext(), middleware.GetIdentity(c), req.Amount, req.ProjectType)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.SuccessCreated(c, "Credit issued", fiber.Map{"credit_id": credit.ID, "credit": credit}, nil)
}

// Transfer moves a credit from the session organization to the recipient.
func (h *Handlers) Transfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CreditID == 0 || req.Recipient == "" {
		return response.BadRequest(c, "credit_id and recipient are required")
	}
	credit, err := h.Service.Transfer(c.UserContext(), middleware.GetIdentity(c), ledger.Identity(req.Recipient), ledger.CreditID(req.CreditID))
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Credit transferred", fiber.Map{"credit": credit}, nil)
}

// Retire consumes a credit held by the session organization.
func (h *Handlers) Retire(c *fiber.Ctx) error {
	var req RetireRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CreditID == 0 {
		return response.BadRequest(c, "credit_id is required")
	}
	credit, err := h.Service.Retire(c.UserContext(), middleware.GetIdentity(c), ledger.CreditID(req.CreditID))
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Credit retired", fiber.Map{"credit": credit}, nil)
}

// View GET /api/v1/credits/:id.
func (h *Handlers) View(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid credit id")
	}
	credit, err := h.Service.Get(ledger.CreditID(id))
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Credit fetched", fiber.Map{"credit": credit}, nil)
}

// Owned GET /api/v1/credits/owned: active credits of the session organization.
func (h *Handlers) Owned(c *fiber.Ctx) error {
	owned := h.Service.Owned(middleware.GetIdentity(c))
	var total int64
	for _, cr := range owned {
		total += cr.Amount
	}
	return response.Success(c, "Owned credits fetched", fiber.Map{"credits": owned}, fiber.Map{
		"count":  len(owned),
		"amount": total,
	})
}

// Stats GET /api/v1/stats.
func (h *Handlers) Stats(c *fiber.Ctx) error {
	return response.Success(c, "Ledger stats fetched", h.Service.Stats(), nil)
}
