package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/mbeckett/herald/internal/model"
)

// Assignment is the outcome of binding a user to their representatives.
// A zero Assigned with a Message means the mapper refused rather than
// guessed.
type Assignment struct {
	Assigned int
	State    string
	Message  string
}

// AddressReader loads a user's primary address.
type AddressReader interface {
	GetPrimaryByUser(ctx context.Context, userID uuid.UUID) (*model.Address, error)
}

// DirectoryReader queries directory rows for the mapper's seat lookups.
type DirectoryReader interface {
	FederalSenators(ctx context.Context, state string) ([]model.Representative, error)
	FederalHouseMember(ctx context.Context, state, district string) ([]model.Representative, error)
	StateLegislators(ctx context.Context, state, chamber, district string) ([]model.Representative, error)
	CountSlot(ctx context.Context, slot model.Slot) (int, error)
}

// BindingWriter replaces a user's representative bindings.
type BindingWriter interface {
	ReplaceForUser(ctx context.Context, userID uuid.UUID, bindings []model.UserRepresentative) error
}

// SlotSyncer fills directory slots that have not been synced yet.
type SlotSyncer interface {
	SyncFederal(ctx context.Context, state, houseDistrict string) (*FederalSeed, error)
	SyncState(ctx context.Context, state, senateDistrict, houseDistrict string) (*StateSeed, error)
}

// Mapper binds users to the representatives for their resolved districts:
// two senators, one House member, and one legislator per state chamber.
type Mapper struct {
	addresses AddressReader
	directory DirectoryReader
	bindings  BindingWriter
	syncer    SlotSyncer
	logger    *log.Logger
	errLogger *log.Logger
}

// NewMapper creates a new Mapper.
func NewMapper(addresses AddressReader, directory DirectoryReader, bindings BindingWriter, syncer SlotSyncer) *Mapper {
	return &Mapper{
		addresses: addresses,
		directory: directory,
		bindings:  bindings,
		syncer:    syncer,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// AssignForUser replaces a user's bindings with the current occupants of
// their district seats. When the address has no resolved state, or no seat
// matches, the mapper refuses and reports why; it never binds a user to
// representatives outside their districts.
func (m *Mapper) AssignForUser(ctx context.Context, userID uuid.UUID) (*Assignment, error) {
	addr, err := m.addresses.GetPrimaryByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load address for user %s: %w", userID, err)
	}
	if addr == nil || !addr.State.Valid || addr.State.String == "" {
		return &Assignment{Message: "No resolved state on file. Run district detection on your address first."}, nil
	}

	state := addr.State.String
	cd := addr.CongressionalDistrict.String
	sd := addr.StateSenateDistrict.String
	hd := addr.StateHouseDistrict.String

	m.ensureDirectory(ctx, state, cd, sd, hd)

	var reps []model.Representative

	senators, err := m.directory.FederalSenators(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to load senators for %s: %w", state, err)
	}
	reps = append(reps, senators...)

	if cd != "" {
		house, err := m.directory.FederalHouseMember(ctx, state, cd)
		if err != nil {
			return nil, fmt.Errorf("failed to load House member for %s-%s: %w", state, cd, err)
		}
		reps = append(reps, house...)
	}

	if sd != "" {
		upper, err := m.directory.StateLegislators(ctx, state, model.ChamberUpper, sd)
		if err != nil {
			return nil, fmt.Errorf("failed to load state senators for %s-%s: %w", state, sd, err)
		}
		reps = append(reps, upper...)
	}

	if hd != "" {
		lower, err := m.directory.StateLegislators(ctx, state, model.ChamberLower, hd)
		if err != nil {
			return nil, fmt.Errorf("failed to load state house members for %s-%s: %w", state, hd, err)
		}
		reps = append(reps, lower...)
	}

	if len(reps) == 0 {
		return &Assignment{
			State:   state,
			Message: "No representatives matched your districts. Re-run district detection on your address.",
		}, nil
	}

	bindings := make([]model.UserRepresentative, 0, len(reps))
	seen := make(map[int64]bool, len(reps))
	for _, rep := range reps {
		if seen[rep.ID] {
			continue
		}
		seen[rep.ID] = true

		level := rep.Level
		if level == "" {
			level = inferLevel(rep.OfficeTitle)
		}
		bindings = append(bindings, model.UserRepresentative{
			UserID:           userID,
			RepresentativeID: rep.ID,
			Level:            level,
		})
	}

	if err := m.bindings.ReplaceForUser(ctx, userID, bindings); err != nil {
		return nil, fmt.Errorf("failed to replace bindings for user %s: %w", userID, err)
	}

	m.logger.Printf("Assigned %d representatives to user %s (%s)", len(bindings), userID, state)

	return &Assignment{Assigned: len(bindings), State: state}, nil
}

// ensureDirectory syncs any seat slot the directory has not resolved yet.
// Sync failures are logged and left for the zero-match refusal to surface;
// the mapper must never bind a user to a seat the directory has not
// actually resolved.
func (m *Mapper) ensureDirectory(ctx context.Context, state, cd, sd, hd string) {
	count, err := m.directory.CountSlot(ctx, model.Slot{
		Level:   model.LevelFederal,
		Chamber: model.ChamberSenate,
		State:   state,
	})
	needSenate := err == nil && count < 2

	needHouse := false
	if cd != "" {
		count, err = m.directory.CountSlot(ctx, model.Slot{
			Level:    model.LevelFederal,
			Chamber:  model.ChamberHouse,
			State:    state,
			District: cd,
		})
		needHouse = err == nil && count < 1
	}

	if needSenate || needHouse {
		district := ""
		if needHouse {
			district = cd
		}
		if _, err := m.syncer.SyncFederal(ctx, state, district); err != nil {
			m.errLogger.Printf("Federal sync failed for %s: %v", state, err)
		}
	}

	needUpper := false
	if sd != "" {
		count, err = m.directory.CountSlot(ctx, model.Slot{
			Level:    model.LevelState,
			Chamber:  model.ChamberUpper,
			State:    state,
			District: sd,
		})
		needUpper = err == nil && count < 1
	}

	needLower := false
	if hd != "" {
		count, err = m.directory.CountSlot(ctx, model.Slot{
			Level:    model.LevelState,
			Chamber:  model.ChamberLower,
			State:    state,
			District: hd,
		})
		needLower = err == nil && count < 1
	}

	if needUpper || needLower {
		upperDistrict, lowerDistrict := "", ""
		if needUpper {
			upperDistrict = sd
		}
		if needLower {
			lowerDistrict = hd
		}
		if _, err := m.syncer.SyncState(ctx, state, upperDistrict, lowerDistrict); err != nil {
			m.errLogger.Printf("State sync failed for %s: %v", state, err)
		}
	}
}

// inferLevel guesses a government level from an office title when a
// directory row does not carry one.
func inferLevel(officeTitle string) string {
	title := strings.ToLower(officeTitle)

	if strings.Contains(title, "united states") || strings.Contains(title, "u.s.") {
		switch {
		case strings.Contains(title, "senat"),
			strings.Contains(title, "house"),
			strings.Contains(title, "represent"),
			strings.Contains(title, "president"),
			strings.Contains(title, "congress"):
			return model.LevelFederal
		}
	}

	for _, kw := range []string{"state senator", "state house", "state representative", "assembly", "legislature"} {
		if strings.Contains(title, kw) {
			return model.LevelState
		}
	}

	return model.LevelLocal
}
