package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mbeckett/herald/internal/model"
)

// AddressStore handles database operations for user addresses
type AddressStore struct {
	db *sql.DB
}

// NewAddressStore creates a new AddressStore
func NewAddressStore(db *sql.DB) *AddressStore {
	return &AddressStore{db: db}
}

// GetPrimaryByUser retrieves a user's primary address, or nil if none exists
func (s *AddressStore) GetPrimaryByUser(ctx context.Context, userID uuid.UUID) (*model.Address, error) {
	query := `
		SELECT id, user_id, line1, city, state, zip,
		       congressional_district, state_senate_district, state_house_district,
		       is_primary, created_at, updated_at
		FROM addresses
		WHERE user_id = $1 AND is_primary
	`

	var a model.Address
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.Line1,
		&a.City,
		&a.State,
		&a.Zip,
		&a.CongressionalDistrict,
		&a.StateSenateDistrict,
		&a.StateHouseDistrict,
		&a.IsPrimary,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get primary address for user %s: %w", userID, err)
	}

	return &a, nil
}

// UpsertPrimary inserts or updates the user's primary address. Empty
// string fields are stored as NULL.
func (s *AddressStore) UpsertPrimary(ctx context.Context, a *model.Address) error {
	query := `
		INSERT INTO addresses (user_id, line1, city, state, zip,
		                       congressional_district, state_senate_district,
		                       state_house_district, is_primary)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''),
		        NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), TRUE)
		ON CONFLICT (user_id) WHERE is_primary DO UPDATE SET
			line1 = EXCLUDED.line1,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip = EXCLUDED.zip,
			congressional_district = EXCLUDED.congressional_district,
			state_senate_district = EXCLUDED.state_senate_district,
			state_house_district = EXCLUDED.state_house_district,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		a.UserID,
		a.Line1.String,
		a.City.String,
		a.State.String,
		a.Zip.String,
		a.CongressionalDistrict.String,
		a.StateSenateDistrict.String,
		a.StateHouseDistrict.String,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert address for user %s: %w", a.UserID, err)
	}

	return nil
}

// UpdateStreet records the street line on the user's primary address.
func (s *AddressStore) UpdateStreet(ctx context.Context, userID uuid.UUID, line1 string) error {
	query := `
		UPDATE addresses SET
			line1 = NULLIF($2, ''),
			updated_at = now()
		WHERE user_id = $1 AND is_primary
	`

	if _, err := s.db.ExecContext(ctx, query, userID, line1); err != nil {
		return fmt.Errorf("failed to update street for user %s: %w", userID, err)
	}

	return nil
}

// UpdateDistricts records resolved districts on the user's primary address
// without touching the postal fields. Empty values are stored as NULL.
func (s *AddressStore) UpdateDistricts(ctx context.Context, userID uuid.UUID, state, cd, sd, hd string) error {
	query := `
		UPDATE addresses SET
			state = COALESCE(NULLIF($2, ''), state),
			congressional_district = NULLIF($3, ''),
			state_senate_district = NULLIF($4, ''),
			state_house_district = NULLIF($5, ''),
			updated_at = now()
		WHERE user_id = $1 AND is_primary
	`

	res, err := s.db.ExecContext(ctx, query, userID, state, cd, sd, hd)
	if err != nil {
		return fmt.Errorf("failed to update districts for user %s: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no primary address on file for user %s", userID)
	}

	return nil
}
