package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	censusBenchmark = "Public_AR_Current"
	censusVintage   = "Current_Current"
)

// CensusClient handles communication with the Census Bureau geocoder.
type CensusClient struct {
	baseURL string
	client  *http.Client
}

// NewCensusClient creates a new geocoder client.
func NewCensusClient(baseURL string, timeout time.Duration) *CensusClient {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &CensusClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// censusResponse represents the geocoder's geographies payload.
type censusResponse struct {
	Result struct {
		AddressMatches []censusMatch `json:"addressMatches"`
	} `json:"result"`
}

type censusMatch struct {
	MatchedAddress    string `json:"matchedAddress"`
	AddressComponents struct {
		City  string `json:"city"`
		State string `json:"state"`
		Zip   string `json:"zip"`
	} `json:"addressComponents"`
	Geographies map[string][]struct {
		Name     string `json:"NAME"`
		BaseName string `json:"BASENAME"`
		GeoID    string `json:"GEOID"`
	} `json:"geographies"`
}

// GeographyMatch is one normalized address match: the state plus every
// geography layer keyed exactly as the upstream returned it.
type GeographyMatch struct {
	MatchedAddress string
	State          string
	Layers         map[string][]string
}

// LookupStructured queries the geocoder with discrete street, city, state
// and zip fields. The street is required by the upstream.
func (c *CensusClient) LookupStructured(ctx context.Context, street, city, state, zip string) ([]GeographyMatch, error) {
	params := url.Values{}
	params.Set("street", street)
	if city != "" {
		params.Set("city", city)
	}
	if state != "" {
		params.Set("state", state)
	}
	if zip != "" {
		params.Set("zip", zip)
	}

	return c.lookup(ctx, "/geographies/address", params)
}

// LookupOneLine queries the geocoder with a single concatenated address.
func (c *CensusClient) LookupOneLine(ctx context.Context, address string) ([]GeographyMatch, error) {
	params := url.Values{}
	params.Set("address", address)

	return c.lookup(ctx, "/geographies/onelineaddress", params)
}

func (c *CensusClient) lookup(ctx context.Context, path string, params url.Values) ([]GeographyMatch, error) {
	params.Set("benchmark", censusBenchmark)
	params.Set("vintage", censusVintage)
	params.Set("layers", "all")
	params.Set("format", "json")

	body, err := fetchOnce(ctx, c.client, c.baseURL+path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to query geocoder: %w", err)
	}

	var resp censusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse geocoder response: %w", err)
	}

	matches := make([]GeographyMatch, 0, len(resp.Result.AddressMatches))
	for _, m := range resp.Result.AddressMatches {
		match := GeographyMatch{
			MatchedAddress: m.MatchedAddress,
			State:          m.AddressComponents.State,
			Layers:         make(map[string][]string, len(m.Geographies)),
		}
		for key, entries := range m.Geographies {
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				if e.Name != "" {
					names = append(names, e.Name)
				} else {
					names = append(names, e.BaseName)
				}
			}
			match.Layers[key] = names
		}
		matches = append(matches, match)
	}

	return matches, nil
}
