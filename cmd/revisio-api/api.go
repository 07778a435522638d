// Package main provides the Revisio API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/revisio/revisio/pkg/eventbus"
	"github.com/revisio/revisio/pkg/persistence"
	"github.com/revisio/revisio/pkg/services"
	"github.com/revisio/revisio/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	revisionService := services.NewRevision(a.persistence, a.eventBus, a.logger)
	queryService := services.NewQuery(a.persistence, a.logger)

	handlers := web.NewAPIHandlers(revisionService, queryService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Revisio API")
	})

	tr := app.Group("/transformations")
	tr.Get("/", handlers.GetTransformations)
	tr.Post("/", handlers.CreateTransformation)
	tr.Get("/:id", handlers.GetTransformation)
	tr.Put("/:id", handlers.UpdateTransformation)
	tr.Delete("/:id", handlers.DeleteTransformation)
	tr.Post("/:id/release", handlers.ReleaseTransformation)
	tr.Post("/:id/disable", handlers.DisableTransformation)
	tr.Get("/:id/descendants", handlers.GetDescendants)
	tr.Get("/:id/ancestors", handlers.GetAncestors)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
