package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/mbeckett/herald/internal/model"
)

// FederalSeed reports how many federal seats a sync filled.
type FederalSeed struct {
	Senate int
	House  int
}

// StateSeed reports how many state legislature seats a sync filled.
type StateSeed struct {
	Senate int
	House  int
}

// Directory is the slice of the representative store the syncer writes.
type Directory interface {
	ReplaceSlot(ctx context.Context, slot model.Slot, reps []*model.Representative) (int, error)
	ReplaceDivision(ctx context.Context, divisionID, officeTitle string, reps []*model.Representative) (int, error)
}

// FederalSource lists currently serving federal legislators.
type FederalSource interface {
	CurrentMembers(ctx context.Context, state string) ([]model.Representative, error)
	MemberForDistrict(ctx context.Context, state, district string) ([]model.Representative, error)
	MemberDetail(ctx context.Context, externalID string) (*MemberContact, error)
}

// StateSource lists currently serving state legislators.
type StateSource interface {
	Legislator(ctx context.Context, state, orgClassification, district string) ([]model.Representative, error)
}

// CivicSource lists every official covering a full street address.
type CivicSource interface {
	RepresentativesByAddress(ctx context.Context, address string) ([]model.Representative, error)
}

// Syncer keeps the representative directory current. Every sync replaces a
// seat's occupants wholesale, so re-runs refresh rather than accumulate.
type Syncer struct {
	federal   FederalSource
	state     StateSource
	civic     CivicSource
	directory Directory
	logger    *log.Logger
	errLogger *log.Logger
}

// NewSyncer creates a new Syncer. The civic source may be nil when no
// aggregator key is configured.
func NewSyncer(federal FederalSource, state StateSource, civic CivicSource, directory Directory) *Syncer {
	return &Syncer{
		federal:   federal,
		state:     state,
		civic:     civic,
		directory: directory,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// SyncFederal refreshes a state's two US Senate seats, plus one House seat
// when a district is given.
func (s *Syncer) SyncFederal(ctx context.Context, state, houseDistrict string) (*FederalSeed, error) {
	seed := &FederalSeed{}

	s.logger.Printf("Syncing federal members for %s...", state)
	members, err := s.federal.CurrentMembers(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members for %s: %w", state, err)
	}

	var senators []*model.Representative
	for i := range members {
		m := members[i]
		if m.Chamber.String != model.ChamberSenate {
			continue
		}
		m.DivisionID = ocdDivisionID(state, "", "")
		senators = append(senators, &m)
	}
	if len(senators) != 2 {
		s.errLogger.Printf("Expected 2 senators for %s, got %d", state, len(senators))
	}

	s.enrichContacts(ctx, senators)

	n, err := s.directory.ReplaceSlot(ctx, model.Slot{
		Level:   model.LevelFederal,
		Chamber: model.ChamberSenate,
		State:   state,
	}, senators)
	if err != nil {
		return nil, fmt.Errorf("failed to replace senate seats for %s: %w", state, err)
	}
	seed.Senate = n

	if houseDistrict == "" {
		return seed, nil
	}

	s.logger.Printf("Syncing House member for %s-%s...", state, houseDistrict)
	members, err = s.federal.MemberForDistrict(ctx, state, houseDistrict)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch House member for %s-%s: %w", state, houseDistrict, err)
	}

	var houseReps []*model.Representative
	for i := range members {
		m := members[i]
		if m.Chamber.String != model.ChamberHouse {
			continue
		}
		m.District = nullString(houseDistrict)
		m.DivisionID = ocdDivisionID(state, "cd", houseDistrict)
		houseReps = append(houseReps, &m)
	}
	if len(houseReps) != 1 {
		s.errLogger.Printf("Expected 1 House member for %s-%s, got %d", state, houseDistrict, len(houseReps))
	}

	s.enrichContacts(ctx, houseReps)

	n, err = s.directory.ReplaceSlot(ctx, model.Slot{
		Level:    model.LevelFederal,
		Chamber:  model.ChamberHouse,
		State:    state,
		District: houseDistrict,
	}, houseReps)
	if err != nil {
		return nil, fmt.Errorf("failed to replace House seat for %s-%s: %w", state, houseDistrict, err)
	}
	seed.House = n

	return seed, nil
}

// enrichContacts fills website and phone from per-member detail lookups.
// The fan-out is at most three seats, so a small concurrent group is
// plenty. Failures just leave the contact fields empty.
func (s *Syncer) enrichContacts(ctx context.Context, reps []*model.Representative) {
	var g errgroup.Group
	g.SetLimit(3)

	for _, rep := range reps {
		if !rep.ExternalID.Valid {
			continue
		}
		rep := rep
		g.Go(func() error {
			contact, err := s.federal.MemberDetail(ctx, rep.ExternalID.String)
			if err != nil {
				s.errLogger.Printf("Detail fetch failed for %s: %v", rep.ExternalID.String, err)
				return nil
			}
			if !rep.WebsiteURL.Valid {
				rep.WebsiteURL = nullString(contact.WebsiteURL)
			}
			if !rep.Phone.Valid {
				rep.Phone = nullString(contact.Phone)
			}
			return nil
		})
	}

	g.Wait()
}

// SyncState refreshes one state senate seat and one state house seat.
// Either district may be blank to skip that chamber.
func (s *Syncer) SyncState(ctx context.Context, state, senateDistrict, houseDistrict string) (*StateSeed, error) {
	if !ValidState(state) {
		return nil, fmt.Errorf("unknown state code %q", state)
	}

	seed := &StateSeed{}

	if senateDistrict != "" {
		s.logger.Printf("Syncing state senate seat %s-%s...", state, senateDistrict)
		n, err := s.syncStateSeat(ctx, state, model.ChamberUpper, senateDistrict)
		if err != nil {
			return nil, err
		}
		seed.Senate = n
	}

	if houseDistrict != "" {
		s.logger.Printf("Syncing state house seat %s-%s...", state, houseDistrict)
		n, err := s.syncStateSeat(ctx, state, model.ChamberLower, houseDistrict)
		if err != nil {
			return nil, err
		}
		seed.House = n
	}

	return seed, nil
}

func (s *Syncer) syncStateSeat(ctx context.Context, state, chamber, district string) (int, error) {
	people, err := s.state.Legislator(ctx, state, chamber, district)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s seat for %s-%s: %w", chamber, state, district, err)
	}
	if len(people) != 1 {
		s.errLogger.Printf("Expected 1 legislator for %s %s-%s, got %d", chamber, state, district, len(people))
	}

	kind := "sldu"
	if chamber == model.ChamberLower {
		kind = "sldl"
	}

	var reps []*model.Representative
	for i := range people {
		p := people[i]
		p.State = state
		p.District = nullString(district)
		if p.DivisionID == "" {
			p.DivisionID = ocdDivisionID(state, kind, district)
		}
		reps = append(reps, &p)
	}

	n, err := s.directory.ReplaceSlot(ctx, model.Slot{
		Level:    model.LevelState,
		Chamber:  chamber,
		State:    state,
		District: district,
	}, reps)
	if err != nil {
		return 0, fmt.Errorf("failed to replace %s seat for %s-%s: %w", chamber, state, district, err)
	}

	return n, nil
}

// SyncByAddress seeds the directory with everything the civic aggregator
// returns for a full address. Replacement is keyed per office within a
// division, since statewide divisions carry several offices.
func (s *Syncer) SyncByAddress(ctx context.Context, address string) (int, error) {
	if s.civic == nil {
		return 0, errors.New("civic aggregator not configured")
	}

	s.logger.Printf("Syncing officials for address...")
	reps, err := s.civic.RepresentativesByAddress(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch officials: %w", err)
	}

	type officeKey struct {
		division string
		title    string
	}
	var order []officeKey
	groups := make(map[officeKey][]*model.Representative)
	for i := range reps {
		rep := &reps[i]
		key := officeKey{division: rep.DivisionID, title: rep.OfficeTitle}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rep)
	}

	total := 0
	for _, key := range order {
		n, err := s.directory.ReplaceDivision(ctx, key.division, key.title, groups[key])
		if err != nil {
			return total, fmt.Errorf("failed to replace office %q: %w", key.title, err)
		}
		total += n
	}

	return total, nil
}
