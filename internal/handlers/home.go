package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/mbeckett/herald/internal/store"
)

const version = "1.0.0"

// HomeHandler reports service identity and a directory summary so a
// bare GET / doubles as a liveness probe.
func HomeHandler(reps *store.RepresentativeStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		body := fiber.Map{
			"service": "herald",
			"version": version,
			"status":  "ok",
		}

		total, withEmail, states, err := reps.DirectoryCounts(ctx)
		if err != nil {
			log.Printf("Error counting representatives: %v", err)
		} else {
			body["representatives"] = total
			body["representatives_with_email"] = withEmail
			body["states_covered"] = states
		}

		return c.JSON(body)
	}
}
