package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mbeckett/herald/internal/model"
)

// PrayerStore reads prayers written by the platform. Herald never mutates
// this table.
type PrayerStore struct {
	db *sql.DB
}

// NewPrayerStore creates a new PrayerStore
func NewPrayerStore(db *sql.DB) *PrayerStore {
	return &PrayerStore{db: db}
}

// GetPrayer retrieves a prayer by id, or nil if it does not exist.
func (s *PrayerStore) GetPrayer(ctx context.Context, id uuid.UUID) (*model.Prayer, error) {
	query := `
		SELECT id, user_id, title, content, created_at
		FROM prayers
		WHERE id = $1
	`

	var p model.Prayer
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Content,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prayer %s: %w", id, err)
	}

	return &p, nil
}
