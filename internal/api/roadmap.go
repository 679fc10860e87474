package api

import (
	"time"

	"github.com/Grindin247/decision-system/internal/service"
	"github.com/Grindin247/decision-system/pkg/model"
	libHTTP "github.com/Grindin247/decision-system/pkg/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RoadmapHandler serves roadmap scheduling and timeline endpoints.
type RoadmapHandler struct {
	roadmap *service.RoadmapService
}

// NewRoadmapHandler creates a roadmap handler.
func NewRoadmapHandler(roadmap *service.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{roadmap: roadmap}
}

// ScheduleItemInput is the roadmap placement request body.
type ScheduleItemInput struct {
	DecisionID   uuid.UUID   `json:"decision_id" validate:"required"`
	Bucket       string      `json:"bucket" validate:"required,max=128"`
	StartDate    *time.Time  `json:"start_date"`
	EndDate      *time.Time  `json:"end_date"`
	Dependencies []uuid.UUID `json:"dependencies"`
	UseBudget    bool        `json:"use_discretionary_budget"`
	MemberID     *uuid.UUID  `json:"member_id"`
}

// UpdateItemInput is the partial roadmap item update request body. Explicit
// nulls for the dates are expressed through the clear flags.
type UpdateItemInput struct {
	Bucket       *string      `json:"bucket" validate:"omitempty,max=128"`
	StartDate    *time.Time   `json:"start_date"`
	ClearStart   bool         `json:"clear_start_date"`
	EndDate      *time.Time   `json:"end_date"`
	ClearEnd     bool         `json:"clear_end_date"`
	Status       *string      `json:"status" validate:"omitempty,oneof=Scheduled In-Progress Done"`
	Dependencies *[]uuid.UUID `json:"dependencies"`
}

func (h *RoadmapHandler) Schedule(c *fiber.Ctx) error {
	var input ScheduleItemInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	item, err := h.roadmap.Schedule(c.UserContext(), service.ScheduleInput{
		DecisionID:   input.DecisionID,
		Bucket:       input.Bucket,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Dependencies: input.Dependencies,
		UseBudget:    input.UseBudget,
		MemberID:     input.MemberID,
	})
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.Created(c, item)
}

func (h *RoadmapHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the roadmap item id must be a valid UUID")
	}

	item, err := h.roadmap.Get(c.UserContext(), id)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, item)
}

func (h *RoadmapHandler) List(c *fiber.Ctx) error {
	var householdID *uuid.UUID

	if raw := c.Query("household_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
		}

		householdID = &id
	}

	items, err := h.roadmap.List(c.UserContext(), householdID)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, fiber.Map{"items": items})
}

func (h *RoadmapHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the roadmap item id must be a valid UUID")
	}

	var input UpdateItemInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	update := service.ItemUpdate{
		Bucket:       input.Bucket,
		StartDate:    input.StartDate,
		ClearStart:   input.ClearStart,
		EndDate:      input.EndDate,
		ClearEnd:     input.ClearEnd,
		Dependencies: input.Dependencies,
	}

	if input.Status != nil {
		status := model.RoadmapStatus(*input.Status)
		update.Status = &status
	}

	item, err := h.roadmap.Update(c.UserContext(), id, update)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, item)
}

func (h *RoadmapHandler) Remove(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the roadmap item id must be a valid UUID")
	}

	if err := h.roadmap.Remove(c.UserContext(), id); err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.NoContent(c)
}

// Timeline returns the normalized timeline layout for a household.
func (h *RoadmapHandler) Timeline(c *fiber.Ctx) error {
	raw := c.Query("household_id")
	if raw == "" {
		return libHTTP.BadRequest(c, "missing_household", "Missing Household", "the household_id query parameter is required")
	}

	householdID, err := uuid.Parse(raw)
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
	}

	timeline, err := h.roadmap.Timeline(c.UserContext(), householdID)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, timeline)
}
