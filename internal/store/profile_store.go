package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mbeckett/herald/internal/model"
)

// ProfileStore reads profiles written by the identity platform. Herald
// never mutates this table.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore creates a new ProfileStore
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetProfile retrieves a profile by user id, or nil if it does not exist.
func (s *ProfileStore) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	query := `
		SELECT user_id, email, full_name, subscription_tier
		FROM profiles
		WHERE user_id = $1
	`

	var p model.Profile
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Email,
		&p.FullName,
		&p.SubscriptionTier,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", userID, err)
	}

	return &p, nil
}

// GetTier returns a user's subscription tier. Users without a profile are
// treated as free tier.
func (s *ProfileStore) GetTier(ctx context.Context, userID uuid.UUID) (string, error) {
	query := `
		SELECT subscription_tier
		FROM profiles
		WHERE user_id = $1
	`

	var tier string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&tier)
	if err == sql.ErrNoRows {
		return model.TierFree, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get tier for user %s: %w", userID, err)
	}
	if tier == "" {
		return model.TierFree, nil
	}

	return tier, nil
}
