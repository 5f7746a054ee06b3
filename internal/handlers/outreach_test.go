package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mbeckett/herald/internal/auth"
	"github.com/mbeckett/herald/internal/model"
	"github.com/mbeckett/herald/internal/service"
)

// emptyQueue answers every delivery listing with nothing. The embedded
// interface panics on anything else, which is the point: these tests only
// reach the methods they mean to.
type emptyQueue struct{ service.OutreachQueue }

func (emptyQueue) ListQueued(ctx context.Context, limit int) ([]model.OutreachRequest, error) {
	return nil, nil
}

func (emptyQueue) MarkSentBulk(ctx context.Context, ids []int64) (int64, error) {
	return int64(len(ids)), nil
}

const outreachTokenSecret = "outreach-test-secret"

func newOutreachApp(adminSecret string) *fiber.App {
	dispatcher := service.NewDispatcher(emptyQueue{}, nil, nil, nil, nil, nil)
	app := fiber.New()
	app.Post("/api/outreach", OutreachHandler(dispatcher, auth.NewVerifier(outreachTokenSecret), adminSecret))
	return app
}

func bearerHeader(t *testing.T) map[string]string {
	t.Helper()
	token, err := auth.Sign(uuid.New(), "dana@example.com", outreachTokenSecret, time.Hour)
	require.NoError(t, err)
	return map[string]string{fiber.HeaderAuthorization: "Bearer " + token}
}

func TestOutreachRouteUnknownAction(t *testing.T) {
	app := newOutreachApp("")

	resp := request(t, app, fiber.MethodPost, "/api/outreach", `{"action": "bogus"}`, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	decodeInto(t, resp, &body)
	require.Equal(t, `unknown action "bogus"`, body.Error)
}

func TestOutreachRouteBadBody(t *testing.T) {
	app := newOutreachApp("")

	resp := request(t, app, fiber.MethodPost, "/api/outreach", `{"action": `, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	decodeInto(t, resp, &body)
	require.Equal(t, "invalid JSON body", body.Error)
}

func TestOutreachRouteEnqueueRequiresBearer(t *testing.T) {
	app := newOutreachApp("")

	resp := request(t, app, fiber.MethodPost, "/api/outreach", `{"action": "enqueue"}`, nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body errorResponse
	decodeInto(t, resp, &body)
	require.Equal(t, "a valid bearer token is required", body.Error)
}

func TestOutreachRouteEnqueueRejectsBadPrayerID(t *testing.T) {
	app := newOutreachApp("")

	resp := request(t, app, fiber.MethodPost, "/api/outreach",
		`{"action": "enqueue", "prayer_id": "not-a-uuid"}`, bearerHeader(t))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	decodeInto(t, resp, &body)
	require.Equal(t, "prayer_id must be a UUID", body.Error)
}

func TestOutreachRouteDeliverSingleNeedsReference(t *testing.T) {
	app := newOutreachApp("")

	resp := request(t, app, fiber.MethodPost, "/api/outreach", `{"action": "deliver_single"}`, bearerHeader(t))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	decodeInto(t, resp, &body)
	require.Equal(t, "request_id or prayer_id is required", body.Error)
}

func TestOutreachRouteOperatorActionsRequireAdminSecret(t *testing.T) {
	app := newOutreachApp("ops-secret")

	for _, action := range []string{"deliver_queued", "mark_sent"} {
		resp := request(t, app, fiber.MethodPost, "/api/outreach", `{"action": "`+action+`"}`, nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, action)

		var body errorResponse
		decodeInto(t, resp, &body)
		require.Equal(t, "admin secret required", body.Error)
	}
}

func TestOutreachRouteDeliverQueuedEmpty(t *testing.T) {
	app := newOutreachApp("ops-secret")

	resp := request(t, app, fiber.MethodPost, "/api/outreach", `{"action": "deliver_queued"}`,
		map[string]string{"X-Admin-Secret": "ops-secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body service.DeliveryResult
	decodeInto(t, resp, &body)
	require.Zero(t, body.Processed)
	require.Zero(t, body.Sent)
	require.Zero(t, body.Failed)
}

func TestOutreachRouteMarkSent(t *testing.T) {
	app := newOutreachApp("ops-secret")

	resp := request(t, app, fiber.MethodPost, "/api/outreach",
		`{"action": "mark_sent", "ids": [4, 5]}`,
		map[string]string{"X-Admin-Secret": "ops-secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Updated int64 `json:"updated"`
	}
	decodeInto(t, resp, &body)
	require.Equal(t, int64(2), body.Updated)
}

func TestOutreachRouteMarkSentRequiresIDs(t *testing.T) {
	app := newOutreachApp("ops-secret")

	resp := request(t, app, fiber.MethodPost, "/api/outreach", `{"action": "mark_sent"}`,
		map[string]string{"X-Admin-Secret": "ops-secret"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	decodeInto(t, resp, &body)
	require.Equal(t, "ids is required", body.Error)
}
