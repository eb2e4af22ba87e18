// Package records implements the REST API handlers for record reads.
package records

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cvelens/cvelens/internal/store"
	"github.com/cvelens/cvelens/model"
)

// GetRecords handles GET requests for the full record set.
// Passing sort=severity returns a copy ordered most severe first.
func GetRecords(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("sort") == "severity" {
			return c.JSON(st.BySeverity())
		}
		return c.JSON(st.Records())
	}
}

// GetRecord handles GET requests for a single record by identifier.
func GetRecord(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		rec, ok := st.Record(id)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(model.ErrorResponse{
				Success: false,
				Message: id + " is not part of the loaded result set",
			})
		}
		return c.JSON(rec)
	}
}

// GetSkipped handles GET requests for the skip log of the current batch.
func GetSkipped(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		skipped := st.Skipped()
		return c.JSON(model.SkippedResponse{Total: len(skipped), Skipped: skipped})
	}
}
