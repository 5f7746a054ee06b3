package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mbeckett/herald/internal/model"
	"github.com/mbeckett/herald/internal/store"
)

// OutreachStats is a point-in-time summary of the queue and directory.
type OutreachStats struct {
	Queued          int `json:"queued"`
	Sent            int `json:"sent"`
	Failed          int `json:"failed"`
	Throttled       int `json:"throttled"`
	SentToday       int `json:"sent_today"`
	Representatives int `json:"representatives"`
	WithEmail       int `json:"representatives_with_email"`
	StatesCovered   int `json:"states_covered"`
	MappedUsers     int `json:"mapped_users"`
}

// StatsService aggregates operational numbers for the stats endpoint.
type StatsService struct {
	outreach *store.OutreachStore
	reps     *store.RepresentativeStore
	bindings *store.BindingStore
}

// NewStatsService creates a new StatsService.
func NewStatsService(outreach *store.OutreachStore, reps *store.RepresentativeStore, bindings *store.BindingStore) *StatsService {
	return &StatsService{
		outreach: outreach,
		reps:     reps,
		bindings: bindings,
	}
}

// Calculate gathers current queue and directory counts.
func (s *StatsService) Calculate(ctx context.Context) (*OutreachStats, error) {
	stats := &OutreachStats{}

	byStatus, err := s.outreach.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue: %w", err)
	}
	stats.Queued = byStatus[model.StatusQueued]
	stats.Sent = byStatus[model.StatusSent]
	stats.Failed = byStatus[model.StatusFailed]
	stats.Throttled = byStatus[model.StatusThrottled]

	sentToday, err := s.outreach.CountSentOn(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count today's sends: %w", err)
	}
	stats.SentToday = sentToday

	total, withEmail, states, err := s.reps.DirectoryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count directory: %w", err)
	}
	stats.Representatives = total
	stats.WithEmail = withEmail
	stats.StatesCovered = states

	mapped, err := s.bindings.CountMappedUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count mapped users: %w", err)
	}
	stats.MappedUsers = mapped

	return stats, nil
}
