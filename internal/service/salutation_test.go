package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbeckett/herald/internal/model"
)

func TestSalutation(t *testing.T) {
	tests := []struct {
		name   string
		full   string
		office string
		want   string
	}{
		{name: "senator first-last", full: "Ted Cruz", office: "U.S. Senator", want: "Dear Sen. Cruz"},
		{name: "senator last-first", full: "Cruz, Ted", office: "U.S. Senator", want: "Dear Sen. Cruz"},
		{name: "house member", full: "Greg Casar", office: "U.S. Representative", want: "Dear Rep. Casar"},
		{name: "congress keyword", full: "Jane Doe", office: "Member of Congress", want: "Dear Rep. Doe"},
		{name: "state senator", full: "Sarah Eckhardt", office: "State Senator", want: "Dear Sen. Eckhardt"},
		{name: "president", full: "The Incumbent", office: "President of the United States", want: "Dear President Incumbent"},
		{name: "unknown office", full: "Pat Smith", office: "County Clerk", want: "Dear Hon. Smith"},
		{name: "generational suffix", full: "Henry Cuellar Jr.", office: "U.S. Representative", want: "Dear Rep. Cuellar"},
		{name: "last-first with suffix part", full: "Carter, John, III", office: "U.S. Representative", want: "Dear Rep. Carter"},
		{name: "single word", full: "Cher", office: "U.S. Senator", want: "Dear Sen. Cher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &model.Representative{FullName: tt.full, OfficeTitle: tt.office}
			require.Equal(t, tt.want, Salutation(rep))
		})
	}
}

func TestLastNameAllSuffixes(t *testing.T) {
	// A name that is nothing but suffixes falls back to the full name.
	rep := &model.Representative{FullName: "Jr. III", OfficeTitle: "U.S. Senator"}
	require.Equal(t, "Dear Sen. Jr. III", Salutation(rep))
}
