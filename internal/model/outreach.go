package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Outreach request statuses.
const (
	StatusQueued    = "queued"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusThrottled = "throttled"
)

// Outreach channels. Email is the only deliverable channel today; social
// is accepted at enqueue time so the schema is ready for it.
const (
	ChannelEmail  = "email"
	ChannelSocial = "social"
)

// OutreachRequest is one queued, sent or failed delivery of a prayer to a
// representative. Rows are never deleted; they are the audit trail.
type OutreachRequest struct {
	ID               int64
	UserID           uuid.UUID
	PrayerID         uuid.UUID
	RepresentativeID int64
	Channels         []string
	Status           string
	Subject          sql.NullString
	Body             sql.NullString
	ErrorMessage     sql.NullString
	SendDate         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	SentAt           sql.NullTime
}
