package bootstrap

import (
	"context"
	"fmt"

	"github.com/Grindin247/decision-system/internal/api"
	"github.com/Grindin247/decision-system/internal/event"
	"github.com/Grindin247/decision-system/internal/repository/memory"
	"github.com/Grindin247/decision-system/internal/repository/postgres"
	"github.com/Grindin247/decision-system/internal/repository/rediscache"
	"github.com/Grindin247/decision-system/internal/service"
	"github.com/Grindin247/decision-system/pkg/log"
	libZap "github.com/Grindin247/decision-system/pkg/zap"
	"github.com/redis/go-redis/v9"
)

// App is the fully wired application.
type App struct {
	Config Config
	Logger log.Logger
	Server *Server
}

// NewApp builds the dependency graph from configuration: logger, stores,
// cache, event publisher, services, handlers, and the HTTP server.
func NewApp(ctx context.Context, cfg Config) (*App, error) {
	logger, _, err := libZap.New(libZap.Config{
		Environment: libZap.Environment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	var (
		households service.HouseholdRepository
		goals      service.GoalRepository
		decisions  service.DecisionRepository
		budgets    service.BudgetRepository
		roadmap    service.RoadmapRepository
		closers    []func() error
	)

	if cfg.PostgresPrimaryDSN != "" {
		conn := &postgres.Connection{
			ConnectionStringPrimary: cfg.PostgresPrimaryDSN,
			ConnectionStringReplica: cfg.PostgresReplicaDSN,
			DatabaseName:            cfg.PostgresDBName,
			MigrationsPath:          cfg.MigrationsPath,
			Logger:                  logger,
		}

		if err := conn.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		closers = append(closers, conn.Close)

		households = postgres.NewHouseholdRepository(conn)
		goals = postgres.NewGoalRepository(conn)
		decisions = postgres.NewDecisionRepository(conn)
		budgets = postgres.NewBudgetRepository(conn)
		roadmap = postgres.NewRoadmapRepository(conn)
	} else {
		logger.Log(ctx, log.LevelWarn, "no database configured, using in-memory stores")

		households = memory.NewHouseholdRepository()
		goals = memory.NewGoalRepository()
		decisions = memory.NewDecisionRepository()
		budgets = memory.NewBudgetRepository()
		roadmap = memory.NewRoadmapRepository()
	}

	if cfg.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		closers = append(closers, client.Close)

		goals = rediscache.NewGoalRepository(goals, client, logger)
	}

	var events service.EventPublisher

	if cfg.RabbitURI != "" {
		publisher, err := event.NewPublisher(cfg.RabbitURI, cfg.RabbitExchange, logger)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}

		closers = append(closers, publisher.Close)
		events = publisher
	} else {
		events = event.NewNop()
	}

	budgetService := service.NewBudgetService(budgets, households)
	scoringService := service.NewScoringService(goals, decisions, events)
	routingService := service.NewRoutingService(decisions, budgetService, events)
	roadmapService := service.NewRoadmapService(roadmap, decisions, budgetService, events)
	householdService := service.NewHouseholdService(households)
	goalService := service.NewGoalService(goals)
	decisionService := service.NewDecisionService(decisions, households)

	handlers := api.Handlers{
		Households: api.NewHouseholdHandler(householdService),
		Goals:      api.NewGoalHandler(goalService),
		Decisions:  api.NewDecisionHandler(decisionService, scoringService, routingService, budgetService),
		Budget:     api.NewBudgetHandler(budgetService),
		Roadmap:    api.NewRoadmapHandler(roadmapService),
	}

	fiberApp := api.NewApp(handlers, logger, cfg.Version)

	server := NewServer(fiberApp, cfg.HTTPAddress, logger)
	for _, closer := range closers {
		server.OnShutdown(closer)
	}

	server.OnShutdown(func() error { return logger.Sync(context.Background()) })

	return &App{Config: cfg, Logger: logger, Server: server}, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	return a.Server.Run()
}
