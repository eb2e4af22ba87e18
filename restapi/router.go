// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/cvelens/cvelens/internal/logging"
	"github.com/cvelens/cvelens/internal/store"
	"github.com/cvelens/cvelens/internal/suggest"
	"github.com/cvelens/cvelens/restapi/modules/ai"
	"github.com/cvelens/cvelens/restapi/modules/records"
)

var logger = logging.InitLogger()

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, st *store.Store, svc *suggest.Service, schema graphql.Schema) {
	api := app.Group("/api")

	api.Post("/graphql", GraphQLHandler(schema))

	api.Get("/cve", records.GetRecords(st))
	api.Get("/cve/:id", records.GetRecord(st))
	api.Get("/skipped", records.GetSkipped(st))
	api.Get("/ai", ai.GetSuggestion(st, svc))

	logger.Sugar().Info("API routes initialized")
}
