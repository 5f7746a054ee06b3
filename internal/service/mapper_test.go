package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mbeckett/herald/internal/model"
)

type fakeAddressReader struct {
	addr *model.Address
}

func (f *fakeAddressReader) GetPrimaryByUser(ctx context.Context, userID uuid.UUID) (*model.Address, error) {
	return f.addr, nil
}

type fakeMapperDirectory struct {
	senators []model.Representative
	house    map[string][]model.Representative
	upper    map[string][]model.Representative
	lower    map[string][]model.Representative
	counts   map[model.Slot]int
}

func (f *fakeMapperDirectory) FederalSenators(ctx context.Context, state string) ([]model.Representative, error) {
	return f.senators, nil
}

func (f *fakeMapperDirectory) FederalHouseMember(ctx context.Context, state, district string) ([]model.Representative, error) {
	return f.house[district], nil
}

func (f *fakeMapperDirectory) StateLegislators(ctx context.Context, state, chamber, district string) ([]model.Representative, error) {
	if chamber == model.ChamberUpper {
		return f.upper[district], nil
	}
	return f.lower[district], nil
}

func (f *fakeMapperDirectory) CountSlot(ctx context.Context, slot model.Slot) (int, error) {
	return f.counts[slot], nil
}

type fakeBindingWriter struct {
	called   bool
	received []model.UserRepresentative
}

func (f *fakeBindingWriter) ReplaceForUser(ctx context.Context, userID uuid.UUID, bindings []model.UserRepresentative) error {
	f.called = true
	f.received = bindings
	return nil
}

type fakeSlotSyncer struct {
	federalCalls []string
	stateCalls   []string
}

func (f *fakeSlotSyncer) SyncFederal(ctx context.Context, state, houseDistrict string) (*FederalSeed, error) {
	f.federalCalls = append(f.federalCalls, state+"/"+houseDistrict)
	return &FederalSeed{}, nil
}

func (f *fakeSlotSyncer) SyncState(ctx context.Context, state, senateDistrict, houseDistrict string) (*StateSeed, error) {
	f.stateCalls = append(f.stateCalls, state+"/"+senateDistrict+"/"+houseDistrict)
	return &StateSeed{}, nil
}

func resolvedAddress(userID uuid.UUID, state, cd, sd, hd string) *model.Address {
	return &model.Address{
		UserID:                userID,
		State:                 nullString(state),
		CongressionalDistrict: nullString(cd),
		StateSenateDistrict:   nullString(sd),
		StateHouseDistrict:    nullString(hd),
		IsPrimary:             true,
	}
}

func directoryRep(id int64, name, title, level string) model.Representative {
	return model.Representative{ID: id, FullName: name, OfficeTitle: title, Level: level}
}

// fullDirectory returns a directory already populated for TX-21-14-49,
// with slot counts that keep the freshness check quiet.
func fullDirectory() *fakeMapperDirectory {
	d := &fakeMapperDirectory{
		senators: []model.Representative{
			directoryRep(1, "Cruz, Ted", "U.S. Senator", model.LevelFederal),
			directoryRep(2, "Cornyn, John", "U.S. Senator", model.LevelFederal),
		},
		house: map[string][]model.Representative{
			"21": {directoryRep(3, "Roy, Chip", "U.S. Representative", model.LevelFederal)},
		},
		upper: map[string][]model.Representative{
			"14": {directoryRep(4, "Sarah Eckhardt", "State Senator", model.LevelState)},
		},
		lower: map[string][]model.Representative{
			"49": {directoryRep(5, "Gina Hinojosa", "State Representative", model.LevelState)},
		},
		counts: map[model.Slot]int{},
	}
	d.counts[model.Slot{Level: model.LevelFederal, Chamber: model.ChamberSenate, State: "TX"}] = 2
	d.counts[model.Slot{Level: model.LevelFederal, Chamber: model.ChamberHouse, State: "TX", District: "21"}] = 1
	d.counts[model.Slot{Level: model.LevelState, Chamber: model.ChamberUpper, State: "TX", District: "14"}] = 1
	d.counts[model.Slot{Level: model.LevelState, Chamber: model.ChamberLower, State: "TX", District: "49"}] = 1
	return d
}

func TestAssignForUserNoAddress(t *testing.T) {
	bindings := &fakeBindingWriter{}
	mapper := NewMapper(&fakeAddressReader{}, fullDirectory(), bindings, &fakeSlotSyncer{})

	got, err := mapper.AssignForUser(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Zero(t, got.Assigned)
	require.Contains(t, got.Message, "district detection")
	require.False(t, bindings.called)
}

func TestAssignForUserNoResolvedState(t *testing.T) {
	userID := uuid.New()
	addr := &model.Address{UserID: userID, IsPrimary: true}
	bindings := &fakeBindingWriter{}
	mapper := NewMapper(&fakeAddressReader{addr: addr}, fullDirectory(), bindings, &fakeSlotSyncer{})

	got, err := mapper.AssignForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Zero(t, got.Assigned)
	require.Contains(t, got.Message, "No resolved state")
	require.False(t, bindings.called)
}

func TestAssignForUser(t *testing.T) {
	userID := uuid.New()
	bindings := &fakeBindingWriter{}
	syncer := &fakeSlotSyncer{}
	mapper := NewMapper(
		&fakeAddressReader{addr: resolvedAddress(userID, "TX", "21", "14", "49")},
		fullDirectory(),
		bindings,
		syncer,
	)

	got, err := mapper.AssignForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Assigned)
	require.Equal(t, "TX", got.State)
	require.Empty(t, got.Message)

	require.True(t, bindings.called)
	require.Len(t, bindings.received, 5)

	levels := map[int64]string{}
	for _, b := range bindings.received {
		require.Equal(t, userID, b.UserID)
		levels[b.RepresentativeID] = b.Level
	}
	require.Equal(t, model.LevelFederal, levels[1])
	require.Equal(t, model.LevelFederal, levels[3])
	require.Equal(t, model.LevelState, levels[4])
	require.Equal(t, model.LevelState, levels[5])

	// Directory was already fresh, so no sync was triggered.
	require.Empty(t, syncer.federalCalls)
	require.Empty(t, syncer.stateCalls)
}

func TestAssignForUserSenatorsOnly(t *testing.T) {
	userID := uuid.New()
	bindings := &fakeBindingWriter{}
	mapper := NewMapper(
		&fakeAddressReader{addr: resolvedAddress(userID, "TX", "", "", "")},
		fullDirectory(),
		bindings,
		&fakeSlotSyncer{},
	)

	got, err := mapper.AssignForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Assigned)
	require.Len(t, bindings.received, 2)
}

func TestAssignForUserZeroMatchesRefuses(t *testing.T) {
	userID := uuid.New()
	bindings := &fakeBindingWriter{}
	syncer := &fakeSlotSyncer{}
	empty := &fakeMapperDirectory{}
	mapper := NewMapper(
		&fakeAddressReader{addr: resolvedAddress(userID, "TX", "21", "14", "49")},
		empty,
		bindings,
		syncer,
	)

	got, err := mapper.AssignForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Zero(t, got.Assigned)
	require.Equal(t, "TX", got.State)
	require.Contains(t, got.Message, "No representatives matched")

	// The refusal never falls back to binding unrelated state officials,
	// and never writes an empty set over the user's existing bindings.
	require.False(t, bindings.called)

	// The under-populated slots did trigger a directory sync attempt.
	require.Equal(t, []string{"TX/21"}, syncer.federalCalls)
	require.Equal(t, []string{"TX/14/49"}, syncer.stateCalls)
}

func TestAssignForUserSyncsOnlyMissingSlots(t *testing.T) {
	userID := uuid.New()
	directory := fullDirectory()
	// The house and lower seats have not been synced yet.
	directory.counts[model.Slot{Level: model.LevelFederal, Chamber: model.ChamberHouse, State: "TX", District: "21"}] = 0
	directory.counts[model.Slot{Level: model.LevelState, Chamber: model.ChamberLower, State: "TX", District: "49"}] = 0

	syncer := &fakeSlotSyncer{}
	mapper := NewMapper(
		&fakeAddressReader{addr: resolvedAddress(userID, "TX", "21", "14", "49")},
		directory,
		&fakeBindingWriter{},
		syncer,
	)

	_, err := mapper.AssignForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, []string{"TX/21"}, syncer.federalCalls)
	require.Equal(t, []string{"TX//49"}, syncer.stateCalls, "the already-synced senate district stays out of the sync call")
}

func TestAssignForUserDeduplicates(t *testing.T) {
	userID := uuid.New()
	directory := fullDirectory()
	// The same senator shows up twice, as happens when two sources feed
	// one seat.
	directory.senators = append(directory.senators, directory.senators[0])

	bindings := &fakeBindingWriter{}
	mapper := NewMapper(
		&fakeAddressReader{addr: resolvedAddress(userID, "TX", "21", "14", "49")},
		directory,
		bindings,
		&fakeSlotSyncer{},
	)

	got, err := mapper.AssignForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Assigned)
	require.Len(t, bindings.received, 5)
}

func TestAssignForUserInfersMissingLevel(t *testing.T) {
	userID := uuid.New()
	directory := fullDirectory()
	directory.senators = []model.Representative{
		directoryRep(1, "Cruz, Ted", "U.S. Senator", ""),
		directoryRep(2, "Cornyn, John", "U.S. Senator", ""),
	}

	bindings := &fakeBindingWriter{}
	mapper := NewMapper(
		&fakeAddressReader{addr: resolvedAddress(userID, "TX", "", "", "")},
		directory,
		bindings,
		&fakeSlotSyncer{},
	)

	_, err := mapper.AssignForUser(context.Background(), userID)
	require.NoError(t, err)
	for _, b := range bindings.received {
		require.Equal(t, model.LevelFederal, b.Level)
	}
}

func TestInferLevel(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "U.S. Senator", want: model.LevelFederal},
		{title: "United States House of Representatives", want: model.LevelFederal},
		{title: "President of the United States", want: model.LevelFederal},
		{title: "State Senator", want: model.LevelState},
		{title: "State Representative", want: model.LevelState},
		{title: "Member of the State Assembly", want: model.LevelState},
		{title: "Mayor", want: model.LevelLocal},
		{title: "County Judge", want: model.LevelLocal},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			require.Equal(t, tt.want, inferLevel(tt.title))
		})
	}
}
