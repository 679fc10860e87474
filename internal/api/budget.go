package api

import (
	"github.com/Grindin247/decision-system/internal/service"
	libHTTP "github.com/Grindin247/decision-system/pkg/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetHandler serves budget policy and allowance endpoints.
type BudgetHandler struct {
	budget *service.BudgetService
}

// NewBudgetHandler creates a budget handler.
func NewBudgetHandler(budget *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budget: budget}
}

// SetPolicyInput is the policy update request body. Overrides replace the
// existing override set; omitted members fall back to the default
// allowance.
type SetPolicyInput struct {
	Threshold        decimal.Decimal `json:"threshold_1_to_5" validate:"score_range"`
	PeriodDays       int             `json:"period_days" validate:"required,gte=7,lte=365"`
	DefaultAllowance int             `json:"default_allowance" validate:"gte=0,lte=50"`
	Overrides        map[string]int  `json:"allowance_overrides"`
}

func (h *BudgetHandler) Get(c *fiber.Ctx) error {
	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
	}

	summary, err := h.budget.GetSummary(c.UserContext(), householdID)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, summary)
}

func (h *BudgetHandler) SetPolicy(c *fiber.Ctx) error {
	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
	}

	var input SetPolicyInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	overrides := make(map[uuid.UUID]int, len(input.Overrides))

	for raw, allowance := range input.Overrides {
		memberID, err := uuid.Parse(raw)
		if err != nil {
			return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "allowance override keys must be valid member UUIDs")
		}

		overrides[memberID] = allowance
	}

	summary, err := h.budget.SetPolicy(c.UserContext(), householdID, service.PolicyUpdate{
		Threshold:        input.Threshold,
		PeriodDays:       input.PeriodDays,
		DefaultAllowance: input.DefaultAllowance,
		Overrides:        overrides,
	})
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, summary)
}

func (h *BudgetHandler) ResetPeriod(c *fiber.Ctx) error {
	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
	}

	summary, err := h.budget.ResetPeriod(c.UserContext(), householdID)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, summary)
}
