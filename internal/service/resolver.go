package service

import (
	"context"
	"log"
	"os"
	"strings"
)

// AddressInput is the free-form address a user supplies. Any field may be
// blank.
type AddressInput struct {
	Line1      string
	City       string
	State      string
	PostalCode string
}

// Resolution is the resolver's answer. It is always usable: input that
// cannot be resolved comes back with empty fields and a note telling the
// user what would help.
type Resolution struct {
	State                 string
	CongressionalDistrict string
	StateSenateDistrict   string
	StateHouseDistrict    string
	Note                  string
}

type resolveOutcome int

const (
	outcomeResolved resolveOutcome = iota
	outcomeAmbiguous
	outcomeFailed
)

// strategy is one way of turning an address into districts. Strategies
// run in order and the first resolved outcome wins.
type strategy struct {
	name string
	run  func(ctx context.Context, in AddressInput) (Resolution, resolveOutcome)
}

const (
	zipOnlyNote    = "A ZIP code alone often spans several districts. Add a street address and city, then try again."
	unresolvedNote = "We couldn't match that address to a district. A full street address and city usually helps; leave off ZIP+4 extensions."
)

// Resolver turns addresses into legislative districts.
type Resolver struct {
	census     *CensusClient
	civic      *CivicClient
	strategies []strategy
	logger     *log.Logger
}

// NewResolver creates a resolver backed by the Census geocoder, with the
// civic aggregator as an optional last-resort strategy.
func NewResolver(census *CensusClient, civic *CivicClient) *Resolver {
	r := &Resolver{
		census: census,
		civic:  civic,
		logger: log.New(os.Stdout, "", log.LstdFlags),
	}

	r.strategies = []strategy{
		{name: "census-structured", run: r.structured},
		{name: "census-oneline", run: r.oneline},
	}
	if civic != nil {
		r.strategies = append(r.strategies, strategy{name: "civic-divisions", run: r.civicDivisions})
	}

	return r
}

// Resolve determines the state and districts for an address. It never
// returns an error; the caller always gets a Resolution it can show.
func (r *Resolver) Resolve(ctx context.Context, in AddressInput) Resolution {
	in = trimInput(in)

	if zipOnly(in) {
		return Resolution{Note: zipOnlyNote}
	}

	for _, s := range r.strategies {
		res, outcome := s.run(ctx, in)
		if outcome == outcomeResolved {
			return res
		}
		r.logger.Printf("resolver: strategy %s did not resolve (outcome %d)", s.name, outcome)
	}

	return Resolution{Note: unresolvedNote}
}

func trimInput(in AddressInput) AddressInput {
	in.Line1 = strings.TrimSpace(in.Line1)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	return in
}

// zipOnly reports whether the input is nothing but a postal code. Those
// are rejected up front: a ZIP can span multiple districts, so resolving
// one would silently misassign representatives.
func zipOnly(in AddressInput) bool {
	return in.PostalCode != "" && in.Line1 == "" && in.City == "" && in.State == ""
}

func (r *Resolver) structured(ctx context.Context, in AddressInput) (Resolution, resolveOutcome) {
	if in.Line1 == "" {
		return Resolution{}, outcomeFailed
	}

	matches, err := r.census.LookupStructured(ctx, in.Line1, in.City, in.State, in.PostalCode)
	if err != nil {
		r.logger.Printf("resolver: structured lookup failed: %v", err)
		return Resolution{}, outcomeFailed
	}
	if len(matches) == 0 {
		return Resolution{}, outcomeAmbiguous
	}

	return matchToResolution(matches[0]), outcomeResolved
}

func (r *Resolver) oneline(ctx context.Context, in AddressInput) (Resolution, resolveOutcome) {
	line := oneLine(in)
	if line == "" {
		return Resolution{}, outcomeFailed
	}

	matches, err := r.census.LookupOneLine(ctx, line)
	if err != nil {
		r.logger.Printf("resolver: oneline lookup failed: %v", err)
		return Resolution{}, outcomeFailed
	}
	if len(matches) == 0 {
		return Resolution{}, outcomeAmbiguous
	}

	return matchToResolution(matches[0]), outcomeResolved
}

func (r *Resolver) civicDivisions(ctx context.Context, in AddressInput) (Resolution, resolveOutcome) {
	line := oneLine(in)
	if line == "" {
		return Resolution{}, outcomeFailed
	}

	divisions, err := r.civic.DivisionsByAddress(ctx, line)
	if err != nil {
		r.logger.Printf("resolver: civic lookup failed: %v", err)
		return Resolution{}, outcomeFailed
	}

	var res Resolution
	for id := range divisions {
		state, kind, district := parseDivision(id)
		if state != "" && res.State == "" {
			res.State = state
		}
		switch kind {
		case "cd":
			res.CongressionalDistrict = district
		case "sldu":
			res.StateSenateDistrict = district
		case "sldl":
			res.StateHouseDistrict = district
		}
	}

	if res.State == "" {
		return Resolution{}, outcomeAmbiguous
	}

	return res, outcomeResolved
}

// oneLine joins whatever address parts are present into a single line.
func oneLine(in AddressInput) string {
	var parts []string
	for _, p := range []string{in.Line1, in.City, in.State, in.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// matchToResolution extracts the state and the three district layers from
// one geocoder match. Missing layers stay empty; a layer with no digits in
// its name is an at-large seat.
func matchToResolution(m GeographyMatch) Resolution {
	res := Resolution{State: m.State}

	if name, ok := findLayer(m.Layers, "congressional district"); ok {
		res.CongressionalDistrict = districtNumber(name)
	}
	if name, ok := findLayer(m.Layers, "state legislative districts - upper", "sldu"); ok {
		res.StateSenateDistrict = districtNumber(name)
	}
	if name, ok := findLayer(m.Layers, "state legislative districts - lower", "sldl"); ok {
		res.StateHouseDistrict = districtNumber(name)
	}

	return res
}
