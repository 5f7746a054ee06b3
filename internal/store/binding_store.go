package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mbeckett/herald/internal/model"
)

// BindingStore handles database operations for user-representative bindings
type BindingStore struct {
	db *sql.DB
}

// NewBindingStore creates a new BindingStore
func NewBindingStore(db *sql.DB) *BindingStore {
	return &BindingStore{db: db}
}

// ReplaceForUser swaps a user's entire set of bindings in one transaction.
// Re-running the mapper is therefore idempotent and never accumulates
// bindings from older districts.
func (s *BindingStore) ReplaceForUser(ctx context.Context, userID uuid.UUID, bindings []model.UserRepresentative) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_representatives WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear bindings for user %s: %w", userID, err)
	}

	insertQuery := `
		INSERT INTO user_representatives (user_id, representative_id, level)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, representative_id) DO NOTHING
	`

	for _, b := range bindings {
		if _, err := tx.ExecContext(ctx, insertQuery, userID, b.RepresentativeID, b.Level); err != nil {
			return fmt.Errorf("failed to insert binding for representative %d: %w", b.RepresentativeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListIDsForUser returns the representative ids bound to a user.
func (s *BindingStore) ListIDsForUser(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	query := `
		SELECT representative_id
		FROM user_representatives
		WHERE user_id = $1
		ORDER BY representative_id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings for user %s: %w", userID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan binding: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ListRepresentativesForUser returns the directory rows a user is bound
// to, federal seats first.
func (s *BindingStore) ListRepresentativesForUser(ctx context.Context, userID uuid.UUID) ([]model.Representative, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM representatives r
		INNER JOIN user_representatives ur ON ur.representative_id = r.id
		WHERE ur.user_id = $1
		ORDER BY CASE r.level WHEN 'federal' THEN 0 WHEN 'state' THEN 1 ELSE 2 END, r.full_name
	`, prefixedRepColumns("r."))

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list representatives for user %s: %w", userID, err)
	}
	defer rows.Close()

	var reps []model.Representative
	for rows.Next() {
		r, err := scanRep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan representative: %w", err)
		}
		reps = append(reps, r)
	}

	return reps, rows.Err()
}

// CountMappedUsers returns how many distinct users hold at least one binding.
func (s *BindingStore) CountMappedUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT user_id) FROM user_representatives`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count mapped users: %w", err)
	}
	return count, nil
}
