package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/mbeckett/herald/internal/model"
)

const repColumns = `id, external_id, full_name, office_title, level, chamber, state,
	       district, party, email, contact_form_url, website_url, phone, twitter,
	       photo_url, division_id, source, synced_at`

func prefixedRepColumns(prefix string) string {
	cols := strings.Split(repColumns, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanRep(scanner interface{ Scan(...interface{}) error }) (model.Representative, error) {
	var r model.Representative
	err := scanner.Scan(
		&r.ID,
		&r.ExternalID,
		&r.FullName,
		&r.OfficeTitle,
		&r.Level,
		&r.Chamber,
		&r.State,
		&r.District,
		&r.Party,
		&r.Email,
		&r.ContactFormURL,
		&r.WebsiteURL,
		&r.Phone,
		&r.Twitter,
		&r.PhotoURL,
		&r.DivisionID,
		&r.Source,
		&r.SyncedAt,
	)
	return r, err
}

// RepresentativeStore handles database operations for the directory
type RepresentativeStore struct {
	db *sql.DB
}

// NewRepresentativeStore creates a new RepresentativeStore
func NewRepresentativeStore(db *sql.DB) *RepresentativeStore {
	return &RepresentativeStore{db: db}
}

// ReplaceSlot swaps the occupants of one seat for the given rows in a
// single transaction. Re-running a sync therefore never accumulates
// stale occupants. An empty slot district matches NULL.
func (s *RepresentativeStore) ReplaceSlot(ctx context.Context, slot model.Slot, reps []*model.Representative) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleteQuery := `
		DELETE FROM representatives
		WHERE level = $1 AND state = $2
		  AND (chamber = $3 OR ($3 = '' AND chamber IS NULL))
		  AND (district = $4 OR ($4 = '' AND district IS NULL))
	`

	if _, err := tx.ExecContext(ctx, deleteQuery, slot.Level, slot.State, slot.Chamber, slot.District); err != nil {
		return 0, fmt.Errorf("failed to clear slot %+v: %w", slot, err)
	}

	for _, rep := range reps {
		if err := insertRep(ctx, tx, rep); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(reps), nil
}

// ReplaceDivision swaps the occupants of one office within a division.
// Statewide divisions carry several offices (governor, senators), so the
// office title is part of the replacement key.
func (s *RepresentativeStore) ReplaceDivision(ctx context.Context, divisionID, officeTitle string, reps []*model.Representative) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleteQuery := `
		DELETE FROM representatives
		WHERE division_id = $1 AND office_title = $2
	`

	if _, err := tx.ExecContext(ctx, deleteQuery, divisionID, officeTitle); err != nil {
		return 0, fmt.Errorf("failed to clear office %q in %s: %w", officeTitle, divisionID, err)
	}

	for _, rep := range reps {
		if err := insertRep(ctx, tx, rep); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(reps), nil
}

func insertRep(ctx context.Context, tx *sql.Tx, rep *model.Representative) error {
	query := `
		INSERT INTO representatives (external_id, full_name, office_title, level,
		                             chamber, state, district, party, email,
		                             contact_form_url, website_url, phone, twitter,
		                             photo_url, division_id, source, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
		RETURNING id, synced_at
	`

	err := tx.QueryRowContext(ctx, query,
		rep.ExternalID,
		rep.FullName,
		rep.OfficeTitle,
		rep.Level,
		rep.Chamber,
		rep.State,
		rep.District,
		rep.Party,
		rep.Email,
		rep.ContactFormURL,
		rep.WebsiteURL,
		rep.Phone,
		rep.Twitter,
		rep.PhotoURL,
		rep.DivisionID,
		rep.Source,
	).Scan(&rep.ID, &rep.SyncedAt)

	if err != nil {
		return fmt.Errorf("failed to insert representative %q: %w", rep.FullName, err)
	}

	return nil
}

// CountSlot returns the number of current occupants of a seat.
func (s *RepresentativeStore) CountSlot(ctx context.Context, slot model.Slot) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM representatives
		WHERE level = $1 AND state = $2
		  AND (chamber = $3 OR ($3 = '' AND chamber IS NULL))
		  AND (district = $4 OR ($4 = '' AND district IS NULL))
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, slot.Level, slot.State, slot.Chamber, slot.District).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count slot %+v: %w", slot, err)
	}

	return count, nil
}

// FederalSenators retrieves the US senators on file for a state.
func (s *RepresentativeStore) FederalSenators(ctx context.Context, state string) ([]model.Representative, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM representatives
		WHERE level = 'federal' AND state = $1 AND district IS NULL
		  AND (chamber = 'senate' OR (chamber IS NULL AND office_title ILIKE '%%senat%%'))
		ORDER BY full_name
	`, repColumns)

	return s.queryReps(ctx, query, state)
}

// FederalHouseMember retrieves the US House member on file for a district.
func (s *RepresentativeStore) FederalHouseMember(ctx context.Context, state, district string) ([]model.Representative, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM representatives
		WHERE level = 'federal' AND state = $1 AND district = $2
		  AND (chamber = 'house' OR (chamber IS NULL AND (office_title ILIKE '%%represent%%' OR office_title ILIKE '%%house%%')))
		ORDER BY full_name
	`, repColumns)

	return s.queryReps(ctx, query, state, district)
}

// StateLegislators retrieves the state legislators on file for a chamber
// and district. Rows from sources that leave the chamber blank are matched
// by office title instead.
func (s *RepresentativeStore) StateLegislators(ctx context.Context, state, chamber, district string) ([]model.Representative, error) {
	var chamberClause string
	switch chamber {
	case model.ChamberUpper:
		chamberClause = `(chamber = 'upper' OR (chamber IS NULL AND office_title ILIKE '%senat%'))`
	case model.ChamberLower:
		chamberClause = `(chamber = 'lower' OR (chamber IS NULL AND (office_title ILIKE '%house%' OR office_title ILIKE '%represent%' OR office_title ILIKE '%assembl%')))`
	default:
		return nil, fmt.Errorf("unknown state chamber %q", chamber)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM representatives
		WHERE level = 'state' AND state = $1 AND district = $2 AND %s
		ORDER BY full_name
	`, repColumns, chamberClause)

	return s.queryReps(ctx, query, state, district)
}

// GetByID retrieves a representative by id, or nil if the row is gone.
func (s *RepresentativeStore) GetByID(ctx context.Context, id int64) (*model.Representative, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM representatives
		WHERE id = $1
	`, repColumns)

	r, err := scanRep(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get representative %d: %w", id, err)
	}

	return &r, nil
}

// ListByIDs retrieves the representatives for a set of ids. Missing ids
// are silently absent from the result.
func (s *RepresentativeStore) ListByIDs(ctx context.Context, ids []int64) ([]model.Representative, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM representatives
		WHERE id = ANY($1)
		ORDER BY level, full_name
	`, repColumns)

	return s.queryReps(ctx, query, pq.Array(ids))
}

// DirectoryCounts returns how many representatives are on file, how many
// carry an email address, and how many states are covered.
func (s *RepresentativeStore) DirectoryCounts(ctx context.Context) (total, withEmail, states int, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(email),
		       COUNT(DISTINCT state)
		FROM representatives
	`

	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &withEmail, &states); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count directory: %w", err)
	}

	return total, withEmail, states, nil
}

func (s *RepresentativeStore) queryReps(ctx context.Context, query string, args ...interface{}) ([]model.Representative, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query representatives: %w", err)
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
