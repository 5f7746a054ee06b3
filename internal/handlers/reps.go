package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/mbeckett/herald/internal/model"
	"github.com/mbeckett/herald/internal/service"
	"github.com/mbeckett/herald/internal/store"
)

// RepView is the JSON shape of a directory row.
type RepView struct {
	ID          int64   `json:"id"`
	FullName    string  `json:"full_name"`
	OfficeTitle string  `json:"office_title"`
	Level       string  `json:"level"`
	Chamber     *string `json:"chamber,omitempty"`
	State       string  `json:"state"`
	District    *string `json:"district,omitempty"`
	Party       *string `json:"party,omitempty"`
	Email       *string `json:"email,omitempty"`
	Website     *string `json:"website,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	PhotoURL    *string `json:"photo_url,omitempty"`
	DivisionID  string  `json:"division_id"`
}

func toRepView(r model.Representative) RepView {
	return RepView{
		ID:          r.ID,
		FullName:    r.FullName,
		OfficeTitle: r.OfficeTitle,
		Level:       r.Level,
		Chamber:     optStr(r.Chamber),
		State:       r.State,
		District:    optStr(r.District),
		Party:       optStr(r.Party),
		Email:       optStr(r.Email),
		Website:     optStr(r.WebsiteURL),
		Phone:       optStr(r.Phone),
		PhotoURL:    optStr(r.PhotoURL),
		DivisionID:  r.DivisionID,
	}
}

// AssignResponse reports a mapping run.
type AssignResponse struct {
	Assigned int     `json:"assigned"`
	State    *string `json:"state"`
	Message  string  `json:"message,omitempty"`
}

// AssignHandler binds the caller to the representatives for their resolved
// districts. A response with zero assigned and a message means the mapper
// refused and left the caller's existing bindings untouched.
func AssignHandler(mapper *service.Mapper) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		identity := Identity(c)

		assignment, err := mapper.AssignForUser(ctx, identity.UserID)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "failed to assign representatives")
		}

		return c.JSON(AssignResponse{
			Assigned: assignment.Assigned,
			State:    nullableStr(assignment.State),
			Message:  assignment.Message,
		})
	}
}

// ListRepsHandler returns the caller's mapped representatives.
func ListRepsHandler(bindings *store.BindingStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		identity := Identity(c)

		reps, err := bindings.ListRepresentativesForUser(ctx, identity.UserID)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "failed to load representatives")
		}

		views := make([]RepView, 0, len(reps))
		for _, r := range reps {
			views = append(views, toRepView(r))
		}

		return c.JSON(fiber.Map{"representatives": views})
	}
}
