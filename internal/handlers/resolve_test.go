package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/mbeckett/herald/internal/service"
)

const censusMatch = `{
	"result": {
		"addressMatches": [
			{
				"matchedAddress": "2101 PEARL ST, AUSTIN, TX, 78705",
				"addressComponents": {"city": "AUSTIN", "state": "TX", "zip": "78705"},
				"geographies": {
					"119th Congressional Districts": [{"NAME": "Congressional District 21", "GEOID": "4821"}],
					"2024 State Legislative Districts - Upper": [{"NAME": "State Senate District 14", "GEOID": "48014"}],
					"2024 State Legislative Districts - Lower": [{"NAME": "State House District 49", "GEOID": "48049"}]
				}
			}
		]
	}
}`

// newUpstream starts a fake upstream API and closes it with the test.
func newUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// request runs one request through the app. A non-empty body is sent as
// JSON.
func request(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) *http.Response {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func newResolveApp(censusURL string) *fiber.App {
	resolver := service.NewResolver(service.NewCensusClient(censusURL, time.Second), nil)

	app := fiber.New()
	app.Post("/api/geo/resolve", ResolveHandler(resolver))
	app.Options("/api/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestResolveRoute(t *testing.T) {
	upstream := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(censusMatch))
	})
	app := newResolveApp(upstream.URL)

	resp := request(t, app, fiber.MethodPost, "/api/geo/resolve",
		`{"line1": "2101 Pearl St", "city": "Austin", "state": "TX", "postal_code": "78705"}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body ResolveResponse
	decodeInto(t, resp, &body)
	require.NotNil(t, body.State)
	require.Equal(t, "TX", *body.State)
	require.Equal(t, "21", *body.CD)
	require.Equal(t, "14", *body.SD)
	require.Equal(t, "49", *body.HD)
	require.Empty(t, body.Note)
}

func TestResolveRouteZipOnly(t *testing.T) {
	upstream := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("zip-only input must not reach the geocoder: %s", r.URL)
	})
	app := newResolveApp(upstream.URL)

	resp := request(t, app, fiber.MethodPost, "/api/geo/resolve", `{"postal_code": "78705"}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body ResolveResponse
	decodeInto(t, resp, &body)
	require.Nil(t, body.State)
	require.Nil(t, body.CD)
	require.Contains(t, body.Note, "spans several districts")
}

func TestResolveRouteBadBody(t *testing.T) {
	app := newResolveApp("http://127.0.0.1:0")

	resp := request(t, app, fiber.MethodPost, "/api/geo/resolve", `{"line1": 5`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body ResolveResponse
	decodeInto(t, resp, &body)
	require.Nil(t, body.State)
	require.Contains(t, body.Note, "Could not read that address")
}

func TestResolveRouteMethodNotAllowed(t *testing.T) {
	app := newResolveApp("http://127.0.0.1:0")

	resp := request(t, app, fiber.MethodGet, "/api/geo/resolve", "", nil)
	require.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
}

func TestResolveRoutePreflight(t *testing.T) {
	app := newResolveApp("http://127.0.0.1:0")

	resp := request(t, app, fiber.MethodOptions, "/api/geo/resolve", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
