// Package api exposes the REST surface on fiber: request DTOs, handlers,
// and route registration.
package api

import (
	"github.com/Grindin247/decision-system/internal/service"
	"github.com/Grindin247/decision-system/pkg/model"
	libHTTP "github.com/Grindin247/decision-system/pkg/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HouseholdHandler serves household and member endpoints.
type HouseholdHandler struct {
	households *service.HouseholdService
}

// NewHouseholdHandler creates a household handler.
func NewHouseholdHandler(households *service.HouseholdService) *HouseholdHandler {
	return &HouseholdHandler{households: households}
}

// CreateHouseholdInput is the create household request body.
type CreateHouseholdInput struct {
	Name string `json:"name" validate:"required,max=256"`
}

// AddMemberInput is the add member request body.
type AddMemberInput struct {
	Email       string `json:"email" validate:"required,email,max=256"`
	DisplayName string `json:"display_name" validate:"required,max=256"`
	Role        string `json:"role" validate:"omitempty,oneof=admin editor viewer"`
}

func (h *HouseholdHandler) Create(c *fiber.Ctx) error {
	var input CreateHouseholdInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	household, err := h.households.Create(c.UserContext(), input.Name)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.Created(c, household)
}

func (h *HouseholdHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
	}

	household, err := h.households.Get(c.UserContext(), id)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, household)
}

func (h *HouseholdHandler) List(c *fiber.Ctx) error {
	households, err := h.households.List(c.UserContext())
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, fiber.Map{"items": households})
}

func (h *HouseholdHandler) AddMember(c *fiber.Ctx) error {
	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
	}

	var input AddMemberInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	member, err := h.households.AddMember(c.UserContext(), householdID,
		input.Email, input.DisplayName, model.Role(input.Role))
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.Created(c, member)
}

func (h *HouseholdHandler) ListMembers(c *fiber.Ctx) error {
	householdID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
	}

	members, err := h.households.Members(c.UserContext(), householdID)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, fiber.Map{"items": members})
}
