package model

import (
	"database/sql"
	"time"
)

// Government levels a representative can serve at.
const (
	LevelFederal = "federal"
	LevelState   = "state"
	LevelLocal   = "local"
)

// Chambers. Federal seats use senate/house; state seats use upper/lower.
const (
	ChamberSenate = "senate"
	ChamberHouse  = "house"
	ChamberUpper  = "upper"
	ChamberLower  = "lower"
)

// Directory sources a representative row can originate from.
const (
	SourceCongress   = "congress"
	SourceOpenStates = "openstates"
	SourceCivic      = "civic"
)

// AtLargeDistrict marks a seat that covers a whole state. It keeps
// at-large districts distinct from numbered ones in every key and query.
const AtLargeDistrict = "At-Large"

// Representative is one current occupant of an elected seat.
type Representative struct {
	ID             int64
	ExternalID     sql.NullString
	FullName       string
	OfficeTitle    string
	Level          string
	Chamber        sql.NullString
	State          string
	District       sql.NullString
	Party          sql.NullString
	Email          sql.NullString
	ContactFormURL sql.NullString
	WebsiteURL     sql.NullString
	Phone          sql.NullString
	Twitter        sql.NullString
	PhotoURL       sql.NullString
	DivisionID     string
	Source         string
	SyncedAt       time.Time
}

// Slot identifies an elected seat independent of who occupies it.
// District is empty for statewide seats such as US Senate.
type Slot struct {
	Level    string
	Chamber  string
	State    string
	District string
}
