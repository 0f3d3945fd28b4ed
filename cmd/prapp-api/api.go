// Package main provides the prapp API server implementation.
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/prapp/prapp/pkg/cache"
	"github.com/prapp/prapp/pkg/eventbus"
	"github.com/prapp/prapp/pkg/otelhelper"
	"github.com/prapp/prapp/pkg/persistence"
	"github.com/prapp/prapp/pkg/services"
	"github.com/prapp/prapp/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	viewCache   cache.ViewCache
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	ctx context.Context,
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	viewCache cache.ViewCache,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		viewCache:   viewCache,
		tracer:      newTracer(ctx, logger),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// nolint:ireturn
func newTracer(ctx context.Context, logger *slog.Logger) trace.Tracer {
	if os.Getenv("OTEL_ENABLED") != "true" {
		return noop.NewTracerProvider().Tracer("prapp-api")
	}

	tracer, err := otelhelper.NewTracer(ctx, "prapp-api")
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize tracer, tracing disabled", "error", err)

		return noop.NewTracerProvider().Tracer("prapp-api")
	}

	return tracer
}

func (a *API) App() *fiber.App {
	processService := services.NewProcess(a.persistence, a.eventBus, a.tracer)
	executionService := services.NewExecution(a.persistence, a.eventBus, a.viewCache, a.tracer, a.logger)

	handlers := web.NewAPIHandlers(processService, executionService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("prapp API")
	})

	p := app.Group("/processes")
	p.Get("/", handlers.GetProcesses)
	p.Post("/", handlers.CreateProcess)
	p.Get("/:groupId", handlers.GetProcess)
	p.Put("/:groupId", handlers.SaveRevision)
	p.Get("/:groupId/revisions/:revision", handlers.GetProcessRevision)
	p.Post("/:groupId/executions", handlers.StartExecution)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/history", handlers.GetExecutionHistory)
	e.Post("/:id/steps/:stepId/start", handlers.StartStep)
	e.Post("/:id/steps/:stepId/done", handlers.CompleteStep)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
