package service

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/mbeckett/herald/internal/model"
)

// Geography layer keys drift with data vintage ("116th Congressional
// Districts" one year, "119th ..." the next), so layers are matched by
// case-insensitive substring rather than exact key.

// findLayer returns the name of the first entry in the first layer whose
// key contains any of the given substrings.
func findLayer(layers map[string][]string, substrs ...string) (string, bool) {
	for key, names := range layers {
		lowered := strings.ToLower(key)
		for _, sub := range substrs {
			if strings.Contains(lowered, sub) && len(names) > 0 {
				return names[0], true
			}
		}
	}
	return "", false
}

// districtNumber extracts the first integer in a geography name, with
// leading zeros dropped. A name with no digits is an at-large seat.
func districtNumber(name string) string {
	start := -1
	for i, r := range name {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return model.AtLargeDistrict
	}

	end := start
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return model.AtLargeDistrict
	}
	return strconv.Itoa(n)
}

// ocdDivisionID builds the hierarchical jurisdiction identifier for a
// seat, e.g. ocd-division/country:us/state:tx/cd:10. Statewide seats take
// no kind or district.
func ocdDivisionID(state, kind, district string) string {
	id := "ocd-division/country:us/state:" + strings.ToLower(strings.TrimSpace(state))
	if kind != "" && district != "" {
		id += "/" + kind + ":" + strings.ToLower(district)
	}
	return id
}

// parseDivision extracts the state and district facts carried by an OCD
// division identifier.
func parseDivision(id string) (state, kind, district string) {
	for _, seg := range strings.Split(id, "/") {
		k, v, ok := strings.Cut(seg, ":")
		if !ok {
			continue
		}
		switch k {
		case "state", "district", "territory":
			state = strings.ToUpper(v)
		case "cd", "sldu", "sldl":
			kind = k
			if strings.EqualFold(v, "at-large") {
				district = model.AtLargeDistrict
			} else {
				district = districtNumber(v)
			}
		}
	}
	return state, kind, district
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
