package server

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/FangWolf96/corepoint-ingest/internal/config"
	"github.com/FangWolf96/corepoint-ingest/internal/http/handlers"
	"github.com/FangWolf96/corepoint-ingest/internal/http/middleware"
	"github.com/FangWolf96/corepoint-ingest/internal/infra/logging"
	"github.com/FangWolf96/corepoint-ingest/internal/tokens"
)

// Deps carries everything the HTTP layer needs. Redis and Tokens may be nil;
// the app then runs without workbook persistence and without API keys.
type Deps struct {
	Config config.Config
	Redis  *redis.Client
	Tokens *tokens.Cache
}

// New creates and configures the Fiber app.
func New(deps Deps) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		BodyLimit:             cfg.Limits.MaxUploadBytes + 64*1024, // multipart overhead
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	middleware.Register(app, cfg, deps.Tokens)
	registerRoutes(app, cfg, deps.Redis)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// registerRoutes mounts all route handlers to the app
func registerRoutes(app *fiber.App, cfg config.Config, rdb *redis.Client) {
	// One shared service instance so uploads and downloads share the store.
	svc := handlers.NewReportService(cfg, rdb)

	app.Get("/", svc.HandleIndex)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")
	v1.Post("/reports", svc.HandleAnalyze)
	v1.Get("/reports/:id/workbook", svc.HandleWorkbookDownload)
	v1.Get("/monitor", monitor.New())
}
