package handlers

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/mbeckett/herald/internal/auth"
)

type errorResponse struct {
	Error string `json:"error"`
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorResponse{Error: message})
}

// nullableStr renders empty strings as JSON null.
func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optStr(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return &ns.String
}

// RequireUser verifies the bearer token and stashes the identity for the
// rest of the chain.
func RequireUser(verifier *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := verifier.VerifyBearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return jsonError(c, fiber.StatusUnauthorized, "a valid bearer token is required")
		}
		c.Locals("identity", identity)
		return c.Next()
	}
}

// Identity returns the verified identity stored by RequireUser.
func Identity(c *fiber.Ctx) *auth.Identity {
	identity, _ := c.Locals("identity").(*auth.Identity)
	return identity
}

// AdminOnly gates a route behind the shared admin secret.
func AdminOnly(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !auth.AdminAllowed(secret, c.Get("X-Admin-Secret")) {
			return jsonError(c, fiber.StatusUnauthorized, "admin secret required")
		}
		return c.Next()
	}
}
