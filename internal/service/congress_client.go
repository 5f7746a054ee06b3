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

// CongressClient handles communication with the congress.gov API.
type CongressClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCongressClient creates a new congress.gov client.
func NewCongressClient(baseURL, apiKey string, timeout time.Duration) *CongressClient {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &CongressClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// memberListResponse represents the API response for /member/{state}
type memberListResponse struct {
	Members []memberJSON `json:"members"`
}

// memberJSON represents one member in list responses. Schema details vary
// by API vintage, so optional fields are pointers.
type memberJSON struct {
	BioguideID    string `json:"bioguideId"`
	Name          string `json:"name"`
	PartyName     string `json:"partyName"`
	State         string `json:"state"`
	District      *int   `json:"district"`
	CurrentMember *bool  `json:"currentMember"`
	Depiction     struct {
		ImageURL string `json:"imageUrl"`
	} `json:"depiction"`
	Terms struct {
		Item []struct {
			Chamber   string `json:"chamber"`
			StartYear int    `json:"startYear"`
			EndYear   *int   `json:"endYear"`
		} `json:"item"`
	} `json:"terms"`
}

// memberDetailResponse represents the API response for /member/{bioguideId}
type memberDetailResponse struct {
	Member struct {
		OfficialWebsiteURL string `json:"officialWebsiteUrl"`
		AddressInformation struct {
			OfficeAddress string `json:"officeAddress"`
			PhoneNumber   string `json:"phoneNumber"`
		} `json:"addressInformation"`
	} `json:"member"`
}

// MemberContact carries the contact fields only the per-member detail
// endpoint exposes.
type MemberContact struct {
	WebsiteURL string
	Phone      string
}

// current reports whether a member is currently serving. Newer API
// vintages carry an explicit flag; older ones are inferred from a blank
// end year on the latest term.
func (m memberJSON) current() bool {
	if m.CurrentMember != nil {
		return *m.CurrentMember
	}
	items := m.Terms.Item
	if len(items) == 0 {
		return false
	}
	last := items[len(items)-1]
	return last.EndYear == nil || *last.EndYear == 0
}

// normalize converts a member payload into a directory row. The state code
// comes from the query, not the payload, because the API spells states out
// in full.
func (m memberJSON) normalize(state string) model.Representative {
	rep := model.Representative{
		ExternalID: nullString(m.BioguideID),
		FullName:   m.Name,
		Level:      model.LevelFederal,
		State:      state,
		Party:      nullString(m.PartyName),
		PhotoURL:   nullString(m.Depiction.ImageURL),
		Source:     model.SourceCongress,
	}

	chamber := ""
	if n := len(m.Terms.Item); n > 0 {
		chamber = m.Terms.Item[n-1].Chamber
	}
	switch {
	case chamber == "Senate":
		rep.Chamber = nullString(model.ChamberSenate)
		rep.OfficeTitle = "U.S. Senator"
	default:
		rep.Chamber = nullString(model.ChamberHouse)
		rep.OfficeTitle = "U.S. Representative"
		if m.District != nil {
			if *m.District == 0 {
				rep.District = nullString(model.AtLargeDistrict)
			} else {
				rep.District = nullString(fmt.Sprintf("%d", *m.District))
			}
		}
	}

	return rep
}

// CurrentMembers retrieves the currently serving members for a state,
// senators and representatives alike.
func (c *CongressClient) CurrentMembers(ctx context.Context, state string) ([]model.Representative, error) {
	u := fmt.Sprintf("%s/member/%s?currentMember=true&limit=250&format=json&api_key=%s",
		c.baseURL, url.PathEscape(state), url.QueryEscape(c.apiKey))

	body, err := fetchWithRetry(ctx, c.client, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members for %s: %w", state, err)
	}

	var resp memberListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse members response: %w", err)
	}

	var reps []model.Representative
	for _, m := range resp.Members {
		if !m.current() {
			continue
		}
		reps = append(reps, m.normalize(state))
	}

	return reps, nil
}

// MemberForDistrict retrieves the current House member for one district.
// The at-large sentinel maps to district 0, the upstream's convention for
// single-district states.
func (c *CongressClient) MemberForDistrict(ctx context.Context, state, district string) ([]model.Representative, error) {
	d := district
	if d == model.AtLargeDistrict {
		d = "0"
	}

	u := fmt.Sprintf("%s/member/%s/%s?currentMember=true&format=json&api_key=%s",
		c.baseURL, url.PathEscape(state), url.PathEscape(d), url.QueryEscape(c.apiKey))

	body, err := fetchWithRetry(ctx, c.client, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member for %s-%s: %w", state, district, err)
	}

	var resp memberListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse members response: %w", err)
	}

	var reps []model.Representative
	for _, m := range resp.Members {
		if !m.current() {
			continue
		}
		rep := m.normalize(state)
		rep.District = nullString(district)
		reps = append(reps, rep)
	}

	return reps, nil
}

// MemberDetail retrieves the contact fields for one member.
func (c *CongressClient) MemberDetail(ctx context.Context, bioguideID string) (*MemberContact, error) {
	u := fmt.Sprintf("%s/member/%s?format=json&api_key=%s",
		c.baseURL, url.PathEscape(bioguideID), url.QueryEscape(c.apiKey))

	body, err := fetchWithRetry(ctx, c.client, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member %s: %w", bioguideID, err)
	}

	var resp memberDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse member response: %w", err)
	}

	return &MemberContact{
		WebsiteURL: resp.Member.OfficialWebsiteURL,
		Phone:      resp.Member.AddressInformation.PhoneNumber,
	}, nil
}
