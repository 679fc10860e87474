package api

import (
	"time"

	"github.com/Grindin247/decision-system/internal/service"
	"github.com/Grindin247/decision-system/pkg/model"
	libHTTP "github.com/Grindin247/decision-system/pkg/net/http"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecisionHandler serves decision lifecycle endpoints: CRUD, scoring, and
// routing.
type DecisionHandler struct {
	decisions *service.DecisionService
	scoring   *service.ScoringService
	routing   *service.RoutingService
	budget    *service.BudgetService
}

// NewDecisionHandler creates a decision handler.
func NewDecisionHandler(
	decisions *service.DecisionService,
	scoring *service.ScoringService,
	routing *service.RoutingService,
	budget *service.BudgetService,
) *DecisionHandler {
	return &DecisionHandler{decisions: decisions, scoring: scoring, routing: routing, budget: budget}
}

// CreateDecisionInput is the create decision request body.
type CreateDecisionInput struct {
	HouseholdID       uuid.UUID        `json:"household_id" validate:"required"`
	CreatedByMemberID uuid.UUID        `json:"created_by_member_id" validate:"required"`
	OwnerMemberID     *uuid.UUID       `json:"owner_member_id"`
	Title             string           `json:"title" validate:"required,max=512"`
	Description       string           `json:"description" validate:"max=8192"`
	Cost              *decimal.Decimal `json:"cost"`
	Urgency           *int             `json:"urgency" validate:"omitempty,gte=1,lte=5"`
	TargetDate        *time.Time       `json:"target_date"`
	Tags              []string         `json:"tags"`
	Notes             string           `json:"notes" validate:"max=8192"`
}

// UpdateDecisionInput is the partial decision update request body.
type UpdateDecisionInput struct {
	OwnerMemberID *uuid.UUID       `json:"owner_member_id"`
	Title         *string          `json:"title" validate:"omitempty,max=512"`
	Description   *string          `json:"description" validate:"omitempty,max=8192"`
	Cost          *decimal.Decimal `json:"cost"`
	Urgency       *int             `json:"urgency" validate:"omitempty,gte=1,lte=5"`
	TargetDate    *time.Time       `json:"target_date"`
	Tags          *[]string        `json:"tags"`
	Notes         *string          `json:"notes" validate:"omitempty,max=8192"`
	Status        *string          `json:"status" validate:"omitempty,oneof=Draft Rejected Archived"`
}

// GoalScoreInputDTO is one rating in a scoring request.
type GoalScoreInputDTO struct {
	GoalID    uuid.UUID       `json:"goal_id" validate:"required"`
	Score     decimal.Decimal `json:"score_1_to_5" validate:"score_range"`
	Rationale string          `json:"rationale" validate:"max=4096"`
}

// ScoreDecisionInput is the scoring request body. Threshold optionally
// overrides the household policy threshold for this scoring event only.
type ScoreDecisionInput struct {
	Scores     []GoalScoreInputDTO `json:"scores" validate:"required,min=1,dive"`
	Threshold  *decimal.Decimal    `json:"threshold_1_to_5" validate:"omitempty,score_range"`
	ComputedBy string              `json:"computed_by" validate:"omitempty,oneof=human automated"`
}

// RouteDecisionInput is the routing request body.
type RouteDecisionInput struct {
	UseBudget bool       `json:"use_discretionary_budget"`
	MemberID  *uuid.UUID `json:"member_id"`
}

func (h *DecisionHandler) Create(c *fiber.Ctx) error {
	var input CreateDecisionInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	decision, err := h.decisions.Create(c.UserContext(), service.DecisionInput{
		HouseholdID:       input.HouseholdID,
		CreatedByMemberID: input.CreatedByMemberID,
		OwnerMemberID:     input.OwnerMemberID,
		Title:             input.Title,
		Description:       input.Description,
		Cost:              input.Cost,
		Urgency:           input.Urgency,
		TargetDate:        input.TargetDate,
		Tags:              input.Tags,
		Notes:             input.Notes,
	})
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.Created(c, decision)
}

func (h *DecisionHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the decision id must be a valid UUID")
	}

	decision, err := h.decisions.Get(c.UserContext(), id)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, decision)
}

func (h *DecisionHandler) List(c *fiber.Ctx) error {
	var householdID *uuid.UUID

	if raw := c.Query("household_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the household id must be a valid UUID")
		}

		householdID = &id
	}

	decisions, err := h.decisions.List(c.UserContext(), householdID)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, fiber.Map{"items": decisions})
}

func (h *DecisionHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the decision id must be a valid UUID")
	}

	var input UpdateDecisionInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	update := service.DecisionUpdate{
		OwnerMemberID: input.OwnerMemberID,
		Title:         input.Title,
		Description:   input.Description,
		Cost:          input.Cost,
		Urgency:       input.Urgency,
		TargetDate:    input.TargetDate,
		Tags:          input.Tags,
		Notes:         input.Notes,
	}

	if input.Status != nil {
		status := model.DecisionStatus(*input.Status)
		update.Status = &status
	}

	decision, err := h.decisions.Update(c.UserContext(), id, update)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, decision)
}

// Score computes and stores a new score summary version. Scoring never
// touches the budget ledger; routing is a separate call.
func (h *DecisionHandler) Score(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the decision id must be a valid UUID")
	}

	var input ScoreDecisionInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	ctx := c.UserContext()

	decision, err := h.decisions.Get(ctx, id)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	threshold := decimal.Decimal{}
	if input.Threshold != nil {
		threshold = *input.Threshold
	} else {
		threshold, err = h.budget.Threshold(ctx, decision.HouseholdID)
		if err != nil {
			return libHTTP.RenderError(c, err)
		}
	}

	computedBy := model.ComputedByHuman
	if input.ComputedBy != "" {
		computedBy = model.ComputedBy(input.ComputedBy)
	}

	req := service.ScoreRequest{
		Threshold:  threshold,
		ComputedBy: computedBy,
		GoalScores: make([]service.GoalScoreInput, 0, len(input.Scores)),
	}

	for _, score := range input.Scores {
		req.GoalScores = append(req.GoalScores, service.GoalScoreInput{
			GoalID:    score.GoalID,
			Score:     score.Score,
			Rationale: score.Rationale,
		})
	}

	summary, decision, err := h.scoring.Score(ctx, id, req)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.Created(c, fiber.Map{
		"summary":  summary,
		"decision": decision,
	})
}

// CurrentScore returns the decision's latest score summary.
func (h *DecisionHandler) CurrentScore(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the decision id must be a valid UUID")
	}

	ctx := c.UserContext()

	decision, err := h.decisions.Get(ctx, id)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	summary, err := h.scoring.CurrentSummary(ctx, decision)
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, summary)
}

// Route runs the routing coordinator on the decision's latest score.
func (h *DecisionHandler) Route(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return libHTTP.BadRequest(c, "invalid_id", "Invalid Identifier", "the decision id must be a valid UUID")
	}

	var input RouteDecisionInput
	if err := libHTTP.ParseBodyAndValidate(c, &input); err != nil {
		return libHTTP.RenderError(c, err)
	}

	result, err := h.routing.RouteDecision(c.UserContext(), id, service.RouteRequest{
		UseBudget: input.UseBudget,
		MemberID:  input.MemberID,
	})
	if err != nil {
		return libHTTP.RenderError(c, err)
	}

	return libHTTP.OK(c, result)
}
