package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mbeckett/herald/internal/auth"
	"github.com/mbeckett/herald/internal/model"
	"github.com/mbeckett/herald/internal/service"
	"github.com/mbeckett/herald/internal/store"
)

// RequestView is the JSON shape of an outreach request.
type RequestView struct {
	ID               int64      `json:"id"`
	PrayerID         string     `json:"prayer_id"`
	RepresentativeID int64      `json:"representative_id"`
	Channels         []string   `json:"channels"`
	Status           string     `json:"status"`
	Error            *string    `json:"error,omitempty"`
	SendDate         string     `json:"send_date"`
	CreatedAt        time.Time  `json:"created_at"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
}

func toRequestView(r model.OutreachRequest) RequestView {
	view := RequestView{
		ID:               r.ID,
		PrayerID:         r.PrayerID.String(),
		RepresentativeID: r.RepresentativeID,
		Channels:         r.Channels,
		Status:           r.Status,
		Error:            optStr(r.ErrorMessage),
		SendDate:         r.SendDate.Format("2006-01-02"),
		CreatedAt:        r.CreatedAt,
	}
	if r.SentAt.Valid {
		view.SentAt = &r.SentAt.Time
	}
	return view
}

// outreachBody is the action-discriminated payload for POST /api/outreach.
type outreachBody struct {
	Action            string   `json:"action"`
	PrayerID          string   `json:"prayer_id"`
	RequestID         int64    `json:"request_id"`
	Channels          []string `json:"channels"`
	RepresentativeIDs []int64  `json:"representative_ids"`
	IDs               []int64  `json:"ids"`
	Limit             int      `json:"limit"`
}

// OutreachHandler multiplexes queue actions behind one endpoint. User
// actions (enqueue, deliver_single) authenticate with a bearer token;
// operator actions (deliver_queued, mark_sent) with the admin secret.
func OutreachHandler(dispatcher *service.Dispatcher, verifier *auth.Verifier, adminSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		var body outreachBody
		if err := c.BodyParser(&body); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
		}

		switch body.Action {
		case "enqueue":
			identity, err := verifier.VerifyBearer(c.Get(fiber.HeaderAuthorization))
			if err != nil {
				return jsonError(c, fiber.StatusUnauthorized, "a valid bearer token is required")
			}
			prayerID, err := uuid.Parse(body.PrayerID)
			if err != nil {
				return jsonError(c, fiber.StatusBadRequest, "prayer_id must be a UUID")
			}

			requests, err := dispatcher.Enqueue(ctx, identity.UserID, prayerID, body.Channels, body.RepresentativeIDs)
			if err != nil {
				return jsonError(c, fiber.StatusBadRequest, err.Error())
			}

			views := make([]RequestView, 0, len(requests))
			for _, r := range requests {
				views = append(views, toRequestView(r))
			}
			return c.JSON(fiber.Map{"queued": len(views), "requests": views})

		case "deliver_single":
			identity, err := verifier.VerifyBearer(c.Get(fiber.HeaderAuthorization))
			if err != nil {
				return jsonError(c, fiber.StatusUnauthorized, "a valid bearer token is required")
			}

			prayerID := uuid.Nil
			if body.PrayerID != "" {
				prayerID, err = uuid.Parse(body.PrayerID)
				if err != nil {
					return jsonError(c, fiber.StatusBadRequest, "prayer_id must be a UUID")
				}
			}
			if body.RequestID == 0 && prayerID == uuid.Nil {
				return jsonError(c, fiber.StatusBadRequest, "request_id or prayer_id is required")
			}

			detail, err := dispatcher.DeliverSingle(ctx, identity.UserID, body.RequestID, prayerID)
			if errors.Is(err, service.ErrNotFound) {
				return jsonError(c, fiber.StatusNotFound, "no queued request found")
			}
			if err != nil {
				return jsonError(c, fiber.StatusInternalServerError, err.Error())
			}
			return c.JSON(detail)

		case "deliver_queued":
			if !auth.AdminAllowed(adminSecret, c.Get("X-Admin-Secret")) {
				return jsonError(c, fiber.StatusUnauthorized, "admin secret required")
			}

			result, err := dispatcher.DeliverQueued(ctx, body.Limit)
			if err != nil {
				return jsonError(c, fiber.StatusInternalServerError, err.Error())
			}
			return c.JSON(result)

		case "mark_sent":
			if !auth.AdminAllowed(adminSecret, c.Get("X-Admin-Secret")) {
				return jsonError(c, fiber.StatusUnauthorized, "admin secret required")
			}
			if len(body.IDs) == 0 {
				return jsonError(c, fiber.StatusBadRequest, "ids is required")
			}

			updated, err := dispatcher.MarkSent(ctx, body.IDs)
			if err != nil {
				return jsonError(c, fiber.StatusInternalServerError, err.Error())
			}
			return c.JSON(fiber.Map{"updated": updated})

		default:
			return jsonError(c, fiber.StatusBadRequest, fmt.Sprintf("unknown action %q", body.Action))
		}
	}
}

// RequestsHandler returns the caller's outreach history, newest first.
func RequestsHandler(outreach *store.OutreachStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		identity := Identity(c)

		limit := c.QueryInt("limit", 50)
		if limit < 1 || limit > 200 {
			limit = 50
		}

		requests, err := outreach.ListForUser(ctx, identity.UserID, limit)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "failed to load requests")
		}

		views := make([]RequestView, 0, len(requests))
		for _, r := range requests {
			views = append(views, toRequestView(r))
		}

		return c.JSON(fiber.Map{"requests": views})
	}
}

// StatsHandler returns queue and directory counts for operators.
func StatsHandler(stats *service.StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()

		s, err := stats.Calculate(ctx)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "failed to calculate stats")
		}

		return c.JSON(s)
	}
}
