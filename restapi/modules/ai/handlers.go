// Package ai implements the REST API handler for remediation suggestions.
package ai

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cvelens/cvelens/internal/store"
	"github.com/cvelens/cvelens/internal/suggest"
	"github.com/cvelens/cvelens/model"
)

// GetSuggestion handles GET requests for the remediation advice of one
// record, addressed by the cve_id query parameter.
func GetSuggestion(st *store.Store, svc *suggest.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Query("cve_id")
		if id == "" {
			return c.Status(fiber.StatusBadRequest).JSON(model.ErrorResponse{
				Success: false,
				Message: "cve_id query parameter is required",
			})
		}

		rec, ok := st.Record(id)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(model.ErrorResponse{
				Success: false,
				Message: id + " is not part of the loaded result set",
			})
		}

		advice, err := svc.For(c.UserContext(), rec)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(model.ErrorResponse{
				Success: false,
				Message: "AI suggestion is not available right now, try again later",
			})
		}

		return c.JSON(model.SuggestionResponse{ID: rec.Metadata.ID, Suggestion: advice})
	}
}
