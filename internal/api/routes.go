package api

import (
	"github.com/Grindin247/decision-system/pkg/log"
	libHTTP "github.com/Grindin247/decision-system/pkg/net/http"
	"github.com/gofiber/fiber/v2"
)

// Handlers bundles every route handler of the service.
type Handlers struct {
	Households *HouseholdHandler
	Goals      *GoalHandler
	Decisions  *DecisionHandler
	Budget     *BudgetHandler
	Roadmap    *RoadmapHandler
}

// NewApp builds the fiber application with middleware and all routes
// registered.
func NewApp(handlers Handlers, logger log.Logger, version string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "decision-system",
		DisableStartupMessage: true,
	})

	app.Use(libHTTP.WithRequestID())
	app.Use(libHTTP.WithLogger(logger))
	app.Use(libHTTP.WithTelemetry("decision-system"))
	app.Use(libHTTP.WithLogging())

	app.Get("/", libHTTP.Welcome("decision-system",
		"Household decision scoring and discretionary budget routing"))
	app.Get("/ping", libHTTP.Ping)
	app.Get("/version", libHTTP.Version(version))

	v1 := app.Group("/v1")

	households := v1.Group("/households")
	households.Post("/", handlers.Households.Create)
	households.Get("/", handlers.Households.List)
	households.Get("/:id", handlers.Households.Get)
	households.Post("/:id/members", handlers.Households.AddMember)
	households.Get("/:id/members", handlers.Households.ListMembers)

	households.Post("/:id/goals", handlers.Goals.Create)
	households.Get("/:id/goals", handlers.Goals.List)

	households.Get("/:id/budget", handlers.Budget.Get)
	households.Put("/:id/budget/policy", handlers.Budget.SetPolicy)
	households.Post("/:id/budget/reset", handlers.Budget.ResetPeriod)

	goals := v1.Group("/goals")
	goals.Get("/:id", handlers.Goals.Get)
	goals.Patch("/:id", handlers.Goals.Update)

	decisions := v1.Group("/decisions")
	decisions.Post("/", handlers.Decisions.Create)
	decisions.Get("/", handlers.Decisions.List)
	decisions.Get("/:id", handlers.Decisions.Get)
	decisions.Patch("/:id", handlers.Decisions.Update)
	decisions.Post("/:id/score", handlers.Decisions.Score)
	decisions.Get("/:id/score", handlers.Decisions.CurrentScore)
	decisions.Post("/:id/route", handlers.Decisions.Route)

	roadmap := v1.Group("/roadmap")
	roadmap.Post("/", handlers.Roadmap.Schedule)
	roadmap.Get("/", handlers.Roadmap.List)
	roadmap.Get("/timeline", handlers.Roadmap.Timeline)
	roadmap.Get("/:id", handlers.Roadmap.Get)
	roadmap.Patch("/:id", handlers.Roadmap.Update)
	roadmap.Delete("/:id", handlers.Roadmap.Remove)

	return app
}
