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

// CivicClient handles communication with the Google Civic Information API.
type CivicClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCivicClient creates a new civic aggregator client.
func NewCivicClient(baseURL, apiKey string, timeout time.Duration) *CivicClient {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &CivicClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// representativesResponse represents the API response for /representatives.
// Offices point into the officials array by index.
type representativesResponse struct {
	Divisions map[string]struct {
		Name          string `json:"name"`
		OfficeIndices []int  `json:"officeIndices"`
	} `json:"divisions"`
	Offices []struct {
		Name            string   `json:"name"`
		DivisionID      string   `json:"divisionId"`
		Levels          []string `json:"levels"`
		Roles           []string `json:"roles"`
		OfficialIndices []int    `json:"officialIndices"`
	} `json:"offices"`
	Officials []struct {
		Name     string   `json:"name"`
		Party    string   `json:"party"`
		Phones   []string `json:"phones"`
		URLs     []string `json:"urls"`
		PhotoURL string   `json:"photoUrl"`
		Emails   []string `json:"emails"`
		Channels []struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		} `json:"channels"`
	} `json:"officials"`
}

// civicLevel maps the aggregator's level vocabulary onto ours.
func civicLevel(levels []string) string {
	if len(levels) == 0 {
		return model.LevelLocal
	}
	switch levels[0] {
	case "country":
		return model.LevelFederal
	case "administrativeArea1":
		return model.LevelState
	default:
		return model.LevelLocal
	}
}

// civicChamber maps a legislative role onto a chamber for the level.
// Non-legislative offices (governors, executives) carry no chamber.
func civicChamber(roles []string, level string) string {
	for _, role := range roles {
		switch role {
		case "legislatorUpperBody":
			if level == model.LevelFederal {
				return model.ChamberSenate
			}
			return model.ChamberUpper
		case "legislatorLowerBody":
			if level == model.LevelFederal {
				return model.ChamberHouse
			}
			return model.ChamberLower
		}
	}
	return ""
}

// RepresentativesByAddress retrieves every official the aggregator knows
// for a full street address, normalized into directory rows.
func (c *CivicClient) RepresentativesByAddress(ctx context.Context, address string) ([]model.Representative, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	body, err := fetchOnce(ctx, c.client, c.baseURL+"/representatives?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to query civic aggregator: %w", err)
	}

	var resp representativesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse civic response: %w", err)
	}

	var reps []model.Representative
	for _, office := range resp.Offices {
		state, _, district := parseDivision(office.DivisionID)
		if state == "" {
			continue
		}

		level := civicLevel(office.Levels)
		chamber := civicChamber(office.Roles, level)

		for _, idx := range office.OfficialIndices {
			if idx < 0 || idx >= len(resp.Officials) {
				continue
			}
			official := resp.Officials[idx]

			rep := model.Representative{
				FullName:    official.Name,
				OfficeTitle: office.Name,
				Level:       level,
				State:       state,
				Party:       nullString(official.Party),
				PhotoURL:    nullString(official.PhotoURL),
				DivisionID:  office.DivisionID,
				Source:      model.SourceCivic,
			}
			if chamber != "" {
				rep.Chamber = nullString(chamber)
			}
			if district != "" {
				rep.District = nullString(district)
			}
			if len(official.Emails) > 0 {
				rep.Email = nullString(official.Emails[0])
			}
			if len(official.Phones) > 0 {
				rep.Phone = nullString(official.Phones[0])
			}
			if len(official.URLs) > 0 {
				rep.WebsiteURL = nullString(official.URLs[0])
			}
			for _, ch := range official.Channels {
				if ch.Type == "Twitter" {
					rep.Twitter = nullString(ch.ID)
					break
				}
			}

			reps = append(reps, rep)
		}
	}

	return reps, nil
}

// DivisionsByAddress retrieves just the division identifiers covering an
// address, keyed by division id. Used as a geocoding fallback.
func (c *CivicClient) DivisionsByAddress(ctx context.Context, address string) (map[string]string, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("includeOffices", "false")
	params.Set("key", c.apiKey)

	body, err := fetchOnce(ctx, c.client, c.baseURL+"/representatives?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to query civic aggregator: %w", err)
	}

	var resp representativesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse civic response: %w", err)
	}

	divisions := make(map[string]string, len(resp.Divisions))
	for id, div := range resp.Divisions {
		divisions[id] = div.Name
	}

	return divisions, nil
}
