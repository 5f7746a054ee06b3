package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Subscription tiers. The tier decides which outreach channels a user may
// deliver on.
const (
	TierFree      = "free"
	TierSupporter = "supporter"
	TierPatron    = "patron"
)

// Prayer is owned by the social platform. Herald only reads the content
// and author when composing outreach.
type Prayer struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     sql.NullString
	Content   string
	CreatedAt time.Time
}

// Profile is owned by the identity platform. Herald reads contact details
// for reply-to headers and the subscription tier for channel gating.
type Profile struct {
	UserID           uuid.UUID
	Email            sql.NullString
	FullName         sql.NullString
	SubscriptionTier string
}
