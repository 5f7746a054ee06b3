package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Address is a user's postal address plus the legislative districts
// resolved for it. Each user has at most one primary address.
type Address struct {
	ID                    int64
	UserID                uuid.UUID
	Line1                 sql.NullString
	City                  sql.NullString
	State                 sql.NullString
	Zip                   sql.NullString
	CongressionalDistrict sql.NullString
	StateSenateDistrict   sql.NullString
	StateHouseDistrict    sql.NullString
	IsPrimary             bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// UserRepresentative binds a user to one representative in the directory.
type UserRepresentative struct {
	UserID           uuid.UUID
	RepresentativeID int64
	Level            string
	CreatedAt        time.Time
}
