package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cvelens/cvelens/graphql"
	"github.com/cvelens/cvelens/internal/metrics"
	"github.com/cvelens/cvelens/internal/store"
	"github.com/cvelens/cvelens/internal/suggest"
	"github.com/cvelens/cvelens/restapi"
	"github.com/cvelens/cvelens/web"
)

// Deps carries the shared state the HTTP surface reads.
type Deps struct {
	Store   *store.Store
	Suggest *suggest.Service
}

// NewApp creates and configures a Fiber app with REST and GraphQL routes
func NewApp(deps Deps) *fiber.App {
	schema, err := graphql.CreateSchema(deps.Store)
	if err != nil {
		log.Fatalf("Failed to create GraphQL schema: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:     "cvelens API v1.0",
		ReadTimeout: 60 * time.Second,
	})

	// Middleware
	app.Use(fiberrecover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, HEAD, OPTIONS",
	}))

	app.Use(logger.New())

	// Health check endpoint
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Default.Handler()))

	// REST and GraphQL routes
	restapi.SetupRoutes(app, deps.Store, deps.Suggest, schema)

	// Embedded web UI, mounted last so the API routes win
	app.Use("/", filesystem.New(filesystem.Config{
		Root:       http.FS(web.Static),
		PathPrefix: "static",
		Index:      "index.html",
	}))

	return app
}
