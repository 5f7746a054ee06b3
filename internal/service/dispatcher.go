package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mbeckett/herald/internal/model"
)

// ErrNotFound is returned when a delivery targets a request that does not
// exist, is not queued, or belongs to someone else.
var ErrNotFound = errors.New("request not found")

const (
	defaultSubject       = "A prayer from your constituent"
	defaultDeliveryLimit = 50
)

// tierChannels is the channel policy per subscription tier. Email is the
// only deliverable channel today; the gate exists so paid channels can be
// added without touching enqueue.
var tierChannels = map[string]map[string]bool{
	model.TierFree:      {model.ChannelEmail: true},
	model.TierSupporter: {model.ChannelEmail: true},
	model.TierPatron:    {model.ChannelEmail: true},
}

// OutreachQueue is the slice of the outreach store the dispatcher drives.
type OutreachQueue interface {
	FindBySendDate(ctx context.Context, userID uuid.UUID, repID int64, prayerID uuid.UUID, day time.Time) (*model.OutreachRequest, error)
	Insert(ctx context.Context, r *model.OutreachRequest) error
	Requeue(ctx context.Context, id int64) error
	ListQueued(ctx context.Context, limit int) ([]model.OutreachRequest, error)
	GetOwnedQueued(ctx context.Context, id int64, userID uuid.UUID) (*model.OutreachRequest, error)
	OldestQueuedForPrayer(ctx context.Context, userID, prayerID uuid.UUID) (*model.OutreachRequest, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, message string) error
	MarkSentBulk(ctx context.Context, ids []int64) (int64, error)
}

// RepReader loads directory rows for delivery.
type RepReader interface {
	GetByID(ctx context.Context, id int64) (*model.Representative, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Representative, error)
}

// BindingReader lists a user's mapped representative ids.
type BindingReader interface {
	ListIDsForUser(ctx context.Context, userID uuid.UUID) ([]int64, error)
}

// PrayerReader loads prayer content for composition.
type PrayerReader interface {
	GetPrayer(ctx context.Context, id uuid.UUID) (*model.Prayer, error)
}

// ProfileReader loads sender details and subscription tiers.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	GetTier(ctx context.Context, userID uuid.UUID) (string, error)
}

// DeliveryDetail is the outcome of delivering one request.
type DeliveryDetail struct {
	RequestID int64  `json:"request_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// DeliveryResult aggregates a delivery pass.
type DeliveryResult struct {
	Processed int              `json:"processed"`
	Sent      int              `json:"sent"`
	Failed    int              `json:"failed"`
	Details   []DeliveryDetail `json:"details"`
}

// Dispatcher owns the outreach queue: enqueueing requests, delivering
// them, and recording outcomes.
type Dispatcher struct {
	queue     OutreachQueue
	reps      RepReader
	bindings  BindingReader
	prayers   PrayerReader
	profiles  ProfileReader
	mailer    Mailer
	logger    *log.Logger
	errLogger *log.Logger
	now       func() time.Time
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(queue OutreachQueue, reps RepReader, bindings BindingReader, prayers PrayerReader, profiles ProfileReader, mailer Mailer) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		reps:      reps,
		bindings:  bindings,
		prayers:   prayers,
		profiles:  profiles,
		mailer:    mailer,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
		now:       time.Now,
	}
}

// dateOnly truncates to the UTC calendar day the queue keys on.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validChannels(channels []string) error {
	for _, ch := range channels {
		if ch != model.ChannelEmail && ch != model.ChannelSocial {
			return fmt.Errorf("unknown channel %q", ch)
		}
	}
	return nil
}

// Enqueue records one request per representative for today's send date.
// A request already queued or sent for the same (representative, prayer,
// day) is left alone; a failed or throttled one is reset in place. With no
// explicit representative ids, the user's mapped representatives that have
// an email address are used.
func (d *Dispatcher) Enqueue(ctx context.Context, userID, prayerID uuid.UUID, channels []string, repIDs []int64) ([]model.OutreachRequest, error) {
	if len(channels) == 0 {
		channels = []string{model.ChannelEmail}
	}
	if err := validChannels(channels); err != nil {
		return nil, err
	}

	explicit := len(repIDs) > 0
	if !explicit {
		ids, err := d.bindings.ListIDsForUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list mapped representatives: %w", err)
		}
		repIDs = ids
	}
	if len(repIDs) == 0 {
		return nil, errors.New("no representatives mapped; assign representatives first")
	}

	reps, err := d.reps.ListByIDs(ctx, repIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load representatives: %w", err)
	}

	today := dateOnly(d.now())
	var out []model.OutreachRequest

	for i := range reps {
		rep := &reps[i]

		// When enqueueing for everyone mapped, skip seats with no email
		// up front. Explicitly chosen representatives go through anyway
		// and fail at delivery, where the outcome is recorded.
		if !explicit && (!rep.Email.Valid || rep.Email.String == "") {
			d.logger.Printf("Skipping %s: no email on file", rep.FullName)
			continue
		}

		existing, err := d.queue.FindBySendDate(ctx, userID, rep.ID, prayerID, today)
		if err != nil {
			return nil, fmt.Errorf("failed to check for existing request: %w", err)
		}

		switch {
		case existing == nil:
			req := &model.OutreachRequest{
				UserID:           userID,
				PrayerID:         prayerID,
				RepresentativeID: rep.ID,
				Channels:         channels,
				Status:           model.StatusQueued,
				SendDate:         today,
			}
			if err := d.queue.Insert(ctx, req); err != nil {
				return nil, fmt.Errorf("failed to insert request: %w", err)
			}
			out = append(out, *req)

		case existing.Status == model.StatusFailed || existing.Status == model.StatusThrottled:
			if err := d.queue.Requeue(ctx, existing.ID); err != nil {
				return nil, fmt.Errorf("failed to requeue request %d: %w", existing.ID, err)
			}
			existing.Status = model.StatusQueued
			existing.ErrorMessage = nullString("")
			out = append(out, *existing)

		default:
			// Already queued or sent today; nothing to do.
		}
	}

	return out, nil
}

// DeliverQueued processes up to limit queued requests, oldest first. Each
// row stands alone: one failure is recorded on its request and the pass
// moves on.
func (d *Dispatcher) DeliverQueued(ctx context.Context, limit int) (*DeliveryResult, error) {
	if limit <= 0 {
		limit = defaultDeliveryLimit
	}

	rows, err := d.queue.ListQueued(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued requests: %w", err)
	}

	// Tier lookups are cached for the life of this pass only.
	tiers := make(map[uuid.UUID]string)

	result := &DeliveryResult{}
	for i := range rows {
		detail := d.deliverOne(ctx, &rows[i], tiers)

		result.Processed++
		if detail.Status == model.StatusSent {
			result.Sent++
		} else {
			result.Failed++
		}
		result.Details = append(result.Details, detail)
	}

	return result, nil
}

// DeliverSingle sends one queued request on behalf of its owner. The owner
// comes from the verified token, never the payload: a request belonging to
// anyone else is reported not found and left untouched. With no request
// id, the user's oldest queued request for the prayer is delivered.
func (d *Dispatcher) DeliverSingle(ctx context.Context, userID uuid.UUID, requestID int64, prayerID uuid.UUID) (*DeliveryDetail, error) {
	var req *model.OutreachRequest
	var err error

	switch {
	case requestID != 0:
		req, err = d.queue.GetOwnedQueued(ctx, requestID, userID)
	case prayerID != uuid.Nil:
		req, err = d.queue.OldestQueuedForPrayer(ctx, userID, prayerID)
	default:
		return nil, errors.New("request_id or prayer_id is required")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if req == nil {
		return nil, ErrNotFound
	}

	tiers := make(map[uuid.UUID]string)
	detail := d.deliverOne(ctx, req, tiers)
	return &detail, nil
}

// MarkSent flips queued requests to sent without composing anything. Used
// to reconcile sends confirmed out of band.
func (d *Dispatcher) MarkSent(ctx context.Context, ids []int64) (int64, error) {
	updated, err := d.queue.MarkSentBulk(ctx, ids)
	if err != nil {
		return 0, err
	}
	if updated < int64(len(ids)) {
		d.logger.Printf("Marked %d of %d requests sent (rest were not queued)", updated, len(ids))
	}
	return updated, nil
}

// deliverOne processes a single queued request end to end. It never
// returns an error: every failure is recorded on the request row and in
// the returned detail.
func (d *Dispatcher) deliverOne(ctx context.Context, req *model.OutreachRequest, tiers map[uuid.UUID]string) DeliveryDetail {
	fail := func(message string) DeliveryDetail {
		if err := d.queue.MarkFailed(ctx, req.ID, message); err != nil {
			d.errLogger.Printf("Failed to record failure on request %d: %v", req.ID, err)
		}
		return DeliveryDetail{RequestID: req.ID, Status: model.StatusFailed, Error: message}
	}

	tier, cached := tiers[req.UserID]
	if !cached {
		t, err := d.profiles.GetTier(ctx, req.UserID)
		if err != nil {
			d.errLogger.Printf("Tier lookup failed for user %s: %v", req.UserID, err)
			t = model.TierFree
		}
		tier = t
		tiers[req.UserID] = tier
	}

	allowed, ok := tierChannels[tier]
	if !ok {
		allowed = tierChannels[model.TierFree]
	}
	for _, ch := range req.Channels {
		if !allowed[ch] {
			return fail(fmt.Sprintf("Channel %q is not available on the %s plan", ch, tier))
		}
	}

	rep, err := d.reps.GetByID(ctx, req.RepresentativeID)
	if err != nil {
		return fail("Could not load representative: " + err.Error())
	}
	if rep == nil {
		return fail("Representative no longer on file")
	}
	if !rep.Email.Valid || rep.Email.String == "" {
		return fail("No email on file for " + rep.FullName)
	}

	prayer, err := d.prayers.GetPrayer(ctx, req.PrayerID)
	if err != nil {
		return fail("Could not load prayer: " + err.Error())
	}
	if prayer == nil {
		return fail("Prayer no longer exists")
	}

	profile, err := d.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		d.errLogger.Printf("Profile lookup failed for user %s: %v", req.UserID, err)
	}

	msg := composeEmail(req, rep, prayer, profile)
	if err := d.mailer.Send(ctx, msg); err != nil {
		return fail(err.Error())
	}

	if err := d.queue.MarkSent(ctx, req.ID); err != nil {
		// The mail is out; the row is wrong. Log loudly and report sent.
		d.errLogger.Printf("Sent request %d but failed to record it: %v", req.ID, err)
	}

	return DeliveryDetail{RequestID: req.ID, Status: model.StatusSent}
}

// composeEmail builds the outgoing message for a request. Overrides stored
// on the request win; otherwise the prayer text rides under the computed
// salutation. Replies go to the prayer's author.
func composeEmail(req *model.OutreachRequest, rep *model.Representative, prayer *model.Prayer, profile *model.Profile) *Email {
	subject := defaultSubject
	if req.Subject.Valid && req.Subject.String != "" {
		subject = req.Subject.String
	}

	content := prayer.Content
	if req.Body.Valid && req.Body.String != "" {
		content = req.Body.String
	}

	greeting := Salutation(rep)

	authorName, authorEmail := "", ""
	if profile != nil {
		authorName = profile.FullName.String
		authorEmail = profile.Email.String
	}
	signature := authorName
	if signature == "" {
		signature = "A member of your district"
	}

	return &Email{
		ToEmail:      rep.Email.String,
		ToName:       rep.FullName,
		ReplyToEmail: authorEmail,
		ReplyToName:  authorName,
		Subject:      subject,
		TextBody:     fmt.Sprintf("%s,\n\n%s\n\n%s", greeting, content, signature),
		HTMLBody: fmt.Sprintf("<p>%s,</p><p>%s</p><p>%s</p>",
			html.EscapeString(greeting), html.EscapeString(content), html.EscapeString(signature)),
		Variables: map[string]interface{}{
			"greeting":         greeting,
			"recipient_name":   rep.FullName,
			"recipient_office": rep.OfficeTitle,
			"prayer_text":      content,
			"author_name":      authorName,
			"author_email":     authorEmail,
		},
	}
}
