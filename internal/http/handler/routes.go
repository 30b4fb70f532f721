package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"personapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// db may be nil when persons are kept in memory.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.PersonService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	persons := app.Group("/person")
	persons.Post("/", CreatePerson(svc))
	persons.Get("/", ListPersons(svc))
	persons.Get("/:id", GetPerson(svc))
	persons.Put("/:id", UpdatePerson(svc))
	persons.Delete("/:id", DeletePerson(svc))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Pings the database. Always healthy when persons are kept in memory.
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.JSON(fiber.Map{"status": "healthy"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags ops
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
