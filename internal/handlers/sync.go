package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mbeckett/herald/internal/service"
)

// SeedResponse reports how many seats a sync call filled.
type SeedResponse struct {
	OK     bool `json:"ok"`
	Seeded struct {
		Senate int `json:"senate"`
		House  int `json:"house"`
	} `json:"seeded"`
}

// SyncFederalHandler seeds a state's federal seats: both senators, plus
// one House seat when house_district is given.
func SyncFederalHandler(syncer *service.Syncer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		state := strings.ToUpper(strings.TrimSpace(c.Query("state")))
		if !service.ValidState(state) {
			return jsonError(c, fiber.StatusBadRequest, "state is required (two-letter code)")
		}

		seed, err := syncer.SyncFederal(ctx, state, strings.TrimSpace(c.Query("house_district")))
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		resp := SeedResponse{OK: true}
		resp.Seeded.Senate = seed.Senate
		resp.Seeded.House = seed.House
		return c.JSON(resp)
	}
}

// SyncStateHandler seeds one state senate seat and one state house seat.
func SyncStateHandler(syncer *service.Syncer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		state := strings.ToUpper(strings.TrimSpace(c.Query("state")))
		if !service.ValidState(state) {
			return jsonError(c, fiber.StatusBadRequest, "state is required (two-letter code)")
		}

		sd := strings.TrimSpace(c.Query("sd"))
		hd := strings.TrimSpace(c.Query("hd"))
		if sd == "" && hd == "" {
			return jsonError(c, fiber.StatusBadRequest, "sd or hd (district number) is required")
		}

		seed, err := syncer.SyncState(ctx, state, sd, hd)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		resp := SeedResponse{OK: true}
		resp.Seeded.Senate = seed.Senate
		resp.Seeded.House = seed.House
		return c.JSON(resp)
	}
}

// SyncCivicHandler seeds every office the civic aggregator returns for a
// full street address.
func SyncCivicHandler(syncer *service.Syncer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		address := strings.TrimSpace(c.Query("address"))
		if address == "" {
			return jsonError(c, fiber.StatusBadRequest, "address is required")
		}

		seeded, err := syncer.SyncByAddress(ctx, address)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{"ok": true, "seeded": seeded})
	}
}
