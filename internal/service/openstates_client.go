package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mbeckett/herald/internal/model"
)

// OpenStatesClient handles communication with the OpenStates people API.
type OpenStatesClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOpenStatesClient creates a new OpenStates client.
func NewOpenStatesClient(baseURL, apiKey string, timeout time.Duration) *OpenStatesClient {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &OpenStatesClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// peopleResponse represents the API response for /people
type peopleResponse struct {
	Results []personJSON `json:"results"`
}

type personJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Party       string `json:"party"`
	Email       string `json:"email"`
	Image       string `json:"image"`
	CurrentRole struct {
		Title             string `json:"title"`
		OrgClassification string `json:"org_classification"`
		District          string `json:"district"`
		DivisionID        string `json:"division_id"`
	} `json:"current_role"`
	OpenstatesURL string `json:"openstates_url"`
}

// normalize converts a person payload into a directory row.
func (p personJSON) normalize(state string) model.Representative {
	rep := model.Representative{
		ExternalID: nullString(p.ID),
		FullName:   p.Name,
		Level:      model.LevelState,
		State:      state,
		Party:      nullString(p.Party),
		Email:      nullString(p.Email),
		PhotoURL:   nullString(p.Image),
		WebsiteURL: nullString(p.OpenstatesURL),
		DivisionID: p.CurrentRole.DivisionID,
		Source:     model.SourceOpenStates,
	}

	switch p.CurrentRole.OrgClassification {
	case "upper":
		rep.Chamber = nullString(model.ChamberUpper)
		rep.OfficeTitle = "State Senator"
	case "lower":
		rep.Chamber = nullString(model.ChamberLower)
		rep.OfficeTitle = "State Representative"
	default:
		rep.OfficeTitle = p.CurrentRole.Title
	}
	if rep.OfficeTitle == "" {
		rep.OfficeTitle = p.CurrentRole.Title
	}

	if p.CurrentRole.District != "" {
		rep.District = nullString(districtNumber(p.CurrentRole.District))
	}

	return rep
}

// Legislator retrieves the current legislator for one chamber and
// district. The API keys jurisdictions by full state name, so the postal
// code is translated before the query.
func (c *OpenStatesClient) Legislator(ctx context.Context, state, orgClassification, district string) ([]model.Representative, error) {
	jurisdiction, err := StateName(state)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("jurisdiction", jurisdiction)
	params.Set("org_classification", orgClassification)
	params.Set("district", district)
	params.Set("per_page", "10")
	params.Set("apikey", c.apiKey)

	u := c.baseURL + "/people?" + params.Encode()

	body, err := fetchWithRetry(ctx, c.client, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s legislator for %s-%s: %w", orgClassification, state, district, err)
	}

	var resp peopleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse people response: %w", err)
	}

	reps := make([]model.Representative, 0, len(resp.Results))
	for _, p := range resp.Results {
		reps = append(reps, p.normalize(state))
	}

	return reps, nil
}
