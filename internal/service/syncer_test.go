package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbeckett/herald/internal/model"
)

type fakeFederalSource struct {
	members     []model.Representative
	byDistrict  []model.Representative
	contacts    map[string]*MemberContact
	membersErr  error
	detailCalls int
}

func (f *fakeFederalSource) CurrentMembers(ctx context.Context, state string) ([]model.Representative, error) {
	return f.members, f.membersErr
}

func (f *fakeFederalSource) MemberForDistrict(ctx context.Context, state, district string) ([]model.Representative, error) {
	return f.byDistrict, nil
}

func (f *fakeFederalSource) MemberDetail(ctx context.Context, externalID string) (*MemberContact, error) {
	f.detailCalls++
	contact, ok := f.contacts[externalID]
	if !ok {
		return nil, errors.New("no such member")
	}
	return contact, nil
}

type fakeStateSource struct {
	people map[string][]model.Representative
}

func (f *fakeStateSource) Legislator(ctx context.Context, state, orgClassification, district string) ([]model.Representative, error) {
	return f.people[orgClassification+"-"+district], nil
}

type fakeDirectory struct {
	slots     map[model.Slot][]*model.Representative
	divisions map[string][]*model.Representative
	order     []string
}

func (d *fakeDirectory) ReplaceSlot(ctx context.Context, slot model.Slot, reps []*model.Representative) (int, error) {
	if d.slots == nil {
		d.slots = make(map[model.Slot][]*model.Representative)
	}
	d.slots[slot] = reps
	return len(reps), nil
}

func (d *fakeDirectory) ReplaceDivision(ctx context.Context, divisionID, officeTitle string, reps []*model.Representative) (int, error) {
	if d.divisions == nil {
		d.divisions = make(map[string][]*model.Representative)
	}
	key := divisionID + "|" + officeTitle
	d.divisions[key] = reps
	d.order = append(d.order, key)
	return len(reps), nil
}

func federalSenator(id, name string) model.Representative {
	return model.Representative{
		ExternalID:  nullString(id),
		FullName:    name,
		OfficeTitle: "U.S. Senator",
		Level:       model.LevelFederal,
		State:       "TX",
		Chamber:     nullString(model.ChamberSenate),
		Source:      model.SourceCongress,
	}
}

func federalHouseMember(id, name, district string) model.Representative {
	return model.Representative{
		ExternalID:  nullString(id),
		FullName:    name,
		OfficeTitle: "U.S. Representative",
		Level:       model.LevelFederal,
		State:       "TX",
		Chamber:     nullString(model.ChamberHouse),
		District:    nullString(district),
		Source:      model.SourceCongress,
	}
}

func TestSyncFederalSenateOnly(t *testing.T) {
	federal := &fakeFederalSource{
		members: []model.Representative{
			federalSenator("C001098", "Cruz, Ted"),
			federalSenator("C001056", "Cornyn, John"),
			federalHouseMember("R000614", "Roy, Chip", "21"),
		},
	}
	directory := &fakeDirectory{}
	syncer := NewSyncer(federal, &fakeStateSource{}, nil, directory)

	seed, err := syncer.SyncFederal(context.Background(), "TX", "")
	require.NoError(t, err)
	require.Equal(t, 2, seed.Senate)
	require.Equal(t, 0, seed.House)

	slot := model.Slot{Level: model.LevelFederal, Chamber: model.ChamberSenate, State: "TX"}
	senators := directory.slots[slot]
	require.Len(t, senators, 2, "the House member must not land in the senate slot")
	for _, s := range senators {
		require.Equal(t, "ocd-division/country:us/state:tx", s.DivisionID)
	}
}

func TestSyncFederalWithHouseDistrict(t *testing.T) {
	federal := &fakeFederalSource{
		members: []model.Representative{
			federalSenator("C001098", "Cruz, Ted"),
			federalSenator("C001056", "Cornyn, John"),
		},
		byDistrict: []model.Representative{
			federalHouseMember("R000614", "Roy, Chip", "21"),
		},
	}
	directory := &fakeDirectory{}
	syncer := NewSyncer(federal, &fakeStateSource{}, nil, directory)

	seed, err := syncer.SyncFederal(context.Background(), "TX", "21")
	require.NoError(t, err)
	require.Equal(t, 2, seed.Senate)
	require.Equal(t, 1, seed.House)

	slot := model.Slot{Level: model.LevelFederal, Chamber: model.ChamberHouse, State: "TX", District: "21"}
	house := directory.slots[slot]
	require.Len(t, house, 1)
	require.Equal(t, "21", house[0].District.String)
	require.Equal(t, "ocd-division/country:us/state:tx/cd:21", house[0].DivisionID)

	// Re-running replaces the same slots rather than accumulating.
	seed, err = syncer.SyncFederal(context.Background(), "TX", "21")
	require.NoError(t, err)
	require.Equal(t, 2, seed.Senate)
	require.Equal(t, 1, seed.House)
	require.Len(t, directory.slots, 2)
}

func TestSyncFederalContactEnrichment(t *testing.T) {
	withSite := federalSenator("C001098", "Cruz, Ted")
	withSite.WebsiteURL = nullString("https://already.example.com")

	federal := &fakeFederalSource{
		members: []model.Representative{
			withSite,
			federalSenator("C001056", "Cornyn, John"),
		},
		contacts: map[string]*MemberContact{
			"C001098": {WebsiteURL: "https://www.cruz.senate.gov", Phone: "(202) 224-5922"},
			"C001056": {WebsiteURL: "https://www.cornyn.senate.gov", Phone: "(202) 224-2934"},
		},
	}
	directory := &fakeDirectory{}
	syncer := NewSyncer(federal, &fakeStateSource{}, nil, directory)

	_, err := syncer.SyncFederal(context.Background(), "TX", "")
	require.NoError(t, err)
	require.Equal(t, 2, federal.detailCalls)

	slot := model.Slot{Level: model.LevelFederal, Chamber: model.ChamberSenate, State: "TX"}
	senators := directory.slots[slot]
	require.Len(t, senators, 2)

	byName := map[string]*model.Representative{}
	for _, s := range senators {
		byName[s.FullName] = s
	}
	// A website from the list payload wins over the detail fetch.
	require.Equal(t, "https://already.example.com", byName["Cruz, Ted"].WebsiteURL.String)
	require.Equal(t, "(202) 224-5922", byName["Cruz, Ted"].Phone.String)
	require.Equal(t, "https://www.cornyn.senate.gov", byName["Cornyn, John"].WebsiteURL.String)
}

func TestSyncFederalDetailFailureIsNonFatal(t *testing.T) {
	federal := &fakeFederalSource{
		members: []model.Representative{
			federalSenator("C001098", "Cruz, Ted"),
			federalSenator("C001056", "Cornyn, John"),
		},
		// Empty contacts map, so every detail fetch errors.
		contacts: map[string]*MemberContact{},
	}
	directory := &fakeDirectory{}
	syncer := NewSyncer(federal, &fakeStateSource{}, nil, directory)

	seed, err := syncer.SyncFederal(context.Background(), "TX", "")
	require.NoError(t, err)
	require.Equal(t, 2, seed.Senate)

	slot := model.Slot{Level: model.LevelFederal, Chamber: model.ChamberSenate, State: "TX"}
	for _, s := range directory.slots[slot] {
		require.False(t, s.WebsiteURL.Valid)
		require.False(t, s.Phone.Valid)
	}
}

func TestSyncFederalUpstreamError(t *testing.T) {
	federal := &fakeFederalSource{membersErr: errors.New("congress.gov is down")}
	syncer := NewSyncer(federal, &fakeStateSource{}, nil, &fakeDirectory{})

	_, err := syncer.SyncFederal(context.Background(), "TX", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "congress.gov is down")
}

func TestSyncState(t *testing.T) {
	withDivision := model.Representative{
		ExternalID:  nullString("ocd-person/1111"),
		FullName:    "Sarah Eckhardt",
		OfficeTitle: "State Senator",
		Level:       model.LevelState,
		Chamber:     nullString(model.ChamberUpper),
		DivisionID:  "ocd-division/country:us/state:tx/sldu:14",
		Source:      model.SourceOpenStates,
	}
	withoutDivision := model.Representative{
		ExternalID:  nullString("ocd-person/2222"),
		FullName:    "Gina Hinojosa",
		OfficeTitle: "State Representative",
		Level:       model.LevelState,
		Chamber:     nullString(model.ChamberLower),
		Source:      model.SourceOpenStates,
	}

	state := &fakeStateSource{people: map[string][]model.Representative{
		"upper-14": {withDivision},
		"lower-49": {withoutDivision},
	}}
	directory := &fakeDirectory{}
	syncer := NewSyncer(&fakeFederalSource{}, state, nil, directory)

	seed, err := syncer.SyncState(context.Background(), "TX", "14", "49")
	require.NoError(t, err)
	require.Equal(t, 1, seed.Senate)
	require.Equal(t, 1, seed.House)

	upper := directory.slots[model.Slot{Level: model.LevelState, Chamber: model.ChamberUpper, State: "TX", District: "14"}]
	require.Len(t, upper, 1)
	require.Equal(t, "ocd-division/country:us/state:tx/sldu:14", upper[0].DivisionID)

	lower := directory.slots[model.Slot{Level: model.LevelState, Chamber: model.ChamberLower, State: "TX", District: "49"}]
	require.Len(t, lower, 1)
	require.Equal(t, "49", lower[0].District.String)
	require.Equal(t, "ocd-division/country:us/state:tx/sldl:49", lower[0].DivisionID,
		"a payload with no division id gets the constructed one")
}

func TestSyncStateUnknownState(t *testing.T) {
	syncer := NewSyncer(&fakeFederalSource{}, &fakeStateSource{}, nil, &fakeDirectory{})

	_, err := syncer.SyncState(context.Background(), "ZZ", "1", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state code")
}

type fakeCivicSource struct {
	reps []model.Representative
}

func (f *fakeCivicSource) RepresentativesByAddress(ctx context.Context, address string) ([]model.Representative, error) {
	return f.reps, nil
}

func TestSyncByAddress(t *testing.T) {
	civic := &fakeCivicSource{reps: []model.Representative{
		{FullName: "Ted Cruz", OfficeTitle: "U.S. Senator", Level: model.LevelFederal, State: "TX", DivisionID: "ocd-division/country:us/state:tx", Source: model.SourceCivic},
		{FullName: "John Cornyn", OfficeTitle: "U.S. Senator", Level: model.LevelFederal, State: "TX", DivisionID: "ocd-division/country:us/state:tx", Source: model.SourceCivic},
		{FullName: "Greg Abbott", OfficeTitle: "Governor", Level: model.LevelState, State: "TX", DivisionID: "ocd-division/country:us/state:tx", Source: model.SourceCivic},
	}}
	directory := &fakeDirectory{}
	syncer := NewSyncer(&fakeFederalSource{}, &fakeStateSource{}, civic, directory)

	total, err := syncer.SyncByAddress(context.Background(), "2101 Pearl St, Austin, TX")
	require.NoError(t, err)
	require.Equal(t, 3, total)

	// Both senators share one office group; the governor is his own.
	require.Len(t, directory.order, 2)
	require.Equal(t, "ocd-division/country:us/state:tx|U.S. Senator", directory.order[0])
	require.Len(t, directory.divisions[directory.order[0]], 2)
	require.Len(t, directory.divisions["ocd-division/country:us/state:tx|Governor"], 1)
}

func TestSyncByAddressNotConfigured(t *testing.T) {
	syncer := NewSyncer(&fakeFederalSource{}, &fakeStateSource{}, nil, &fakeDirectory{})

	_, err := syncer.SyncByAddress(context.Background(), "anywhere")
	require.Error(t, err)
	require.Contains(t, err.Error(), "civic aggregator not configured")
}
