package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mbeckett/herald/internal/model"
)

const requestColumns = `id, user_id, prayer_id, representative_id, channels, status,
	       subject, body, error_message, send_date, created_at, updated_at, sent_at`

func scanRequest(scanner interface{ Scan(...interface{}) error }) (model.OutreachRequest, error) {
	var r model.OutreachRequest
	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.PrayerID,
		&r.RepresentativeID,
		pq.Array(&r.Channels),
		&r.Status,
		&r.Subject,
		&r.Body,
		&r.ErrorMessage,
		&r.SendDate,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.SentAt,
	)
	return r, err
}

// OutreachStore handles database operations for the outreach queue
type OutreachStore struct {
	db *sql.DB
}

// NewOutreachStore creates a new OutreachStore
func NewOutreachStore(db *sql.DB) *OutreachStore {
	return &OutreachStore{db: db}
}

// FindBySendDate retrieves the request for one (user, representative,
// prayer, day) key, or nil if none exists yet.
func (s *OutreachStore) FindBySendDate(ctx context.Context, userID uuid.UUID, repID int64, prayerID uuid.UUID, day time.Time) (*model.OutreachRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM outreach_requests
		WHERE user_id = $1 AND representative_id = $2 AND prayer_id = $3 AND send_date = $4
	`, requestColumns)

	r, err := scanRequest(s.db.QueryRowContext(ctx, query, userID, repID, prayerID, day))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find request for user %s: %w", userID, err)
	}

	return &r, nil
}

// Insert creates a queued request row.
func (s *OutreachStore) Insert(ctx context.Context, r *model.OutreachRequest) error {
	query := `
		INSERT INTO outreach_requests (user_id, prayer_id, representative_id,
		                               channels, status, subject, body, send_date)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		r.UserID,
		r.PrayerID,
		r.RepresentativeID,
		pq.Array(r.Channels),
		r.Status,
		r.Subject.String,
		r.Body.String,
		r.SendDate,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert request for user %s: %w", r.UserID, err)
	}

	return nil
}

// Requeue resets a failed or throttled request in place: same row, status
// back to queued, error cleared. Queued and sent rows are left untouched.
func (s *OutreachStore) Requeue(ctx context.Context, id int64) error {
	query := `
		UPDATE outreach_requests SET
			status = 'queued',
			error_message = NULL,
			updated_at = now()
		WHERE id = $1 AND status IN ('failed', 'throttled')
	`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to requeue request %d: %w", id, err)
	}

	return nil
}

// ListQueued retrieves up to limit queued requests, oldest first.
func (s *OutreachStore) ListQueued(ctx context.Context, limit int) ([]model.OutreachRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM outreach_requests
		WHERE status = 'queued'
		ORDER BY created_at
		LIMIT $1
	`, requestColumns)

	return s.queryRequests(ctx, query, limit)
}

// GetOwnedQueued retrieves a queued request only if it belongs to the
// given user. Anything else, including another user's request, is nil.
func (s *OutreachStore) GetOwnedQueued(ctx context.Context, id int64, userID uuid.UUID) (*model.OutreachRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM outreach_requests
		WHERE id = $1 AND user_id = $2 AND status = 'queued'
	`, requestColumns)

	r, err := scanRequest(s.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request %d: %w", id, err)
	}

	return &r, nil
}

// OldestQueuedForPrayer retrieves the user's oldest queued request for a
// prayer, or nil if nothing is queued.
func (s *OutreachStore) OldestQueuedForPrayer(ctx context.Context, userID, prayerID uuid.UUID) (*model.OutreachRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM outreach_requests
		WHERE user_id = $1 AND prayer_id = $2 AND status = 'queued'
		ORDER BY created_at
		LIMIT 1
	`, requestColumns)

	r, err := scanRequest(s.db.QueryRowContext(ctx, query, userID, prayerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queued request for prayer %s: %w", prayerID, err)
	}

	return &r, nil
}

// MarkSent flips a request to sent and stamps the delivery time.
func (s *OutreachStore) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE outreach_requests SET
			status = 'sent',
			error_message = NULL,
			sent_at = now(),
			updated_at = now()
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark request %d sent: %w", id, err)
	}

	return nil
}

// MarkFailed records a delivery failure on a request.
func (s *OutreachStore) MarkFailed(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE outreach_requests SET
			status = 'failed',
			error_message = $2,
			updated_at = now()
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, id, message); err != nil {
		return fmt.Errorf("failed to mark request %d failed: %w", id, err)
	}

	return nil
}

// MarkSentBulk flips a set of queued requests to sent and reports how many
// rows actually changed. Non-queued rows are skipped.
func (s *OutreachStore) MarkSentBulk(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE outreach_requests SET
			status = 'sent',
			error_message = NULL,
			sent_at = now(),
			updated_at = now()
		WHERE id = ANY($1) AND status = 'queued'
	`

	res, err := s.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to mark requests sent: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return updated, nil
}

// ListForUser retrieves a user's requests, newest first.
func (s *OutreachStore) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.OutreachRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM outreach_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, requestColumns)

	return s.queryRequests(ctx, query, userID, limit)
}

// CountByStatus returns request counts grouped by status.
func (s *OutreachStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM outreach_requests
		GROUP BY status
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// CountSentOn returns how many requests were delivered on a calendar day.
func (s *OutreachStore) CountSentOn(ctx context.Context, day time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM outreach_requests
		WHERE status = 'sent' AND sent_at::date = $1::date
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, day).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sent requests: %w", err)
	}

	return count, nil
}

func (s *OutreachStore) queryRequests(ctx context.Context, query string, args ...interface{}) ([]model.OutreachRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []model.OutreachRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}

	return requests, rows.Err()
}
