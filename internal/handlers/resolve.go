package handlers

import (
	"context"
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/mbeckett/herald/internal/model"
	"github.com/mbeckett/herald/internal/service"
	"github.com/mbeckett/herald/internal/store"
)

// ResolveRequest is the address payload the browser submits.
type ResolveRequest struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	SaveStreet bool   `json:"save_street"`
}

// ResolveResponse reports the resolved districts. Unresolved fields are
// null and the note says what would help.
type ResolveResponse struct {
	State *string `json:"state"`
	CD    *string `json:"cd"`
	SD    *string `json:"sd"`
	HD    *string `json:"hd"`
	Note  string  `json:"note,omitempty"`
	Saved bool    `json:"saved,omitempty"`
}

func toResolveResponse(res service.Resolution) ResolveResponse {
	return ResolveResponse{
		State: nullableStr(res.State),
		CD:    nullableStr(res.CongressionalDistrict),
		SD:    nullableStr(res.StateSenateDistrict),
		HD:    nullableStr(res.StateHouseDistrict),
		Note:  res.Note,
	}
}

// ResolveHandler turns an address into legislative districts. It always
// answers 200: bad or ambiguous input comes back empty with a note rather
// than an error, so browser callers never need an error path.
func ResolveHandler(resolver *service.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		var req ResolveRequest
		if err := c.BodyParser(&req); err != nil {
			return c.JSON(ResolveResponse{
				Note: "Could not read that address. Send line1, city, state and postal_code as JSON.",
			})
		}

		res := resolver.Resolve(ctx, service.AddressInput{
			Line1:      req.Line1,
			City:       req.City,
			State:      req.State,
			PostalCode: req.PostalCode,
		})

		return c.JSON(toResolveResponse(res))
	}
}

// DetectHandler resolves the caller's address and records the outcome on
// their primary address. The street line is persisted only when the caller
// opts in with save_street.
func DetectHandler(resolver *service.Resolver, addresses *store.AddressStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		identity := Identity(c)

		var req ResolveRequest
		if err := c.BodyParser(&req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
		}

		res := resolver.Resolve(ctx, service.AddressInput{
			Line1:      req.Line1,
			City:       req.City,
			State:      req.State,
			PostalCode: req.PostalCode,
		})

		resp := toResolveResponse(res)
		if res.State == "" {
			return c.JSON(resp)
		}

		existing, err := addresses.GetPrimaryByUser(ctx, identity.UserID)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "failed to load address")
		}

		if existing == nil {
			addr := &model.Address{
				UserID:                identity.UserID,
				City:                  sql.NullString{String: req.City, Valid: req.City != ""},
				State:                 sql.NullString{String: res.State, Valid: true},
				Zip:                   sql.NullString{String: req.PostalCode, Valid: req.PostalCode != ""},
				CongressionalDistrict: sql.NullString{String: res.CongressionalDistrict, Valid: res.CongressionalDistrict != ""},
				StateSenateDistrict:   sql.NullString{String: res.StateSenateDistrict, Valid: res.StateSenateDistrict != ""},
				StateHouseDistrict:    sql.NullString{String: res.StateHouseDistrict, Valid: res.StateHouseDistrict != ""},
			}
			if req.SaveStreet {
				addr.Line1 = sql.NullString{String: req.Line1, Valid: req.Line1 != ""}
			}
			if err := addresses.UpsertPrimary(ctx, addr); err != nil {
				return jsonError(c, fiber.StatusInternalServerError, "failed to save address")
			}
		} else {
			err := addresses.UpdateDistricts(ctx, identity.UserID,
				res.State, res.CongressionalDistrict, res.StateSenateDistrict, res.StateHouseDistrict)
			if err != nil {
				return jsonError(c, fiber.StatusInternalServerError, "failed to save districts")
			}
			if req.SaveStreet && req.Line1 != "" {
				if err := addresses.UpdateStreet(ctx, identity.UserID, req.Line1); err != nil {
					return jsonError(c, fiber.StatusInternalServerError, "failed to save street")
				}
			}
		}

		resp.Saved = true
		return c.JSON(resp)
	}
}
