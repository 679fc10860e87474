package api

import (
	"github.com/Grindin247/decision-system/internal/service"
	libHTTP "github.com/Grindin247/decision-system/pkg/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoalHandler serves goal registry endpoints.
type GoalHandler struct {
	goals *service.GoalService
}

// NewGoalHandler creates a goal handler.
func NewGoalHandler(goals *service.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// CreateGoalInput is the create goal request body.
type CreateGoalInput struct {
	Name        string          `json:"name" validate:"required,max=256"`
	Description string          `json:"description" validate:"max=4096"`
	Weight      decimal.Decimal `json:"weight" validate:"positive_weight"`
	ActionTypes []string        `json:"action_types"`
	Active      *bool           `json:"active"`
}

// UpdateGoalInput is the partial goal update request body.
type UpdateGoalInput struct {
	Name        string           `json:"name" validate:"omitempty,max=256"`
	Description string           `json:"description" validate:"max=4096"`
	Weight      *decimal.Decimal `json:"weight"`
	ActionTypes []string         `json:"action_types"`
	Active      *bool            `json:"active"`
}

func (h *GoalHandler) Create(c *fiber.Ctx) error {
	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
	}

	var input CreateGoalInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	goal, err := h.goals.Create(c.UserContext(), householdID, service.GoalInput{
		Name:        input.Name,
		Description: input.Description,
		Weight:      input.Weight,
		ActionTypes: input.ActionTypes,
		Active:      input.Active,
	})
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.Created(c, goal)
}

func (h *GoalHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the goal id must be a valid UUID")
	}

	var input UpdateGoalInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	update := service.GoalInput{
		Name:        input.Name,
		Description: input.Description,
		ActionTypes: input.ActionTypes,
		Active:      input.Active,
	}

	if input.Weight != nil {
		if !input.Weight.IsPositive() {
			return libHTTP.BadRequest(c, "validation_error", "Validation Error", "'weight' must be a positive weight")
		}

		update.Weight = *input.Weight
	}

	goal, err := h.goals.Update(c.UserContext(), id, update)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, goal)
}

func (h *GoalHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the goal id must be a valid UUID")
	}

	goal, err := h.goals.Get(c.UserContext(), id)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, goal)
}

func (h *GoalHandler) List(c *fiber.Ctx) error {
	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
	}

	activeOnly := c.QueryBool("active_only")

	goals, err := h.goals.List(c.UserContext(), householdID, activeOnly)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, fiber.Map{"items": goals})
}
