package app

import (
	"context"
	"fmt"

	"english-practice-service/internal/domain"
)

// ProgressService tracks tips and topics through unseen -> in_progress -> done.
type ProgressService struct {
	statuses StatusRepository
}

func NewProgressService(statuses StatusRepository) *ProgressService {
	return &ProgressService{statuses: statuses}
}

// Statuses returns the user's stored statuses for kind.
func (s *ProgressService) Statuses(ctx context.Context, userID string, kind domain.ProgressKind) (map[string]domain.TrackStatus, error) {
	tracker, err := s.tracker(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return tracker.Statuses(), nil
}

// Cycle advances one entity a single step and persists it.
func (s *ProgressService) Cycle(ctx context.Context, userID string, kind domain.ProgressKind, entityID string) (domain.TrackStatus, error) {
	tracker, err := s.tracker(ctx, userID, kind)
	if err != nil {
		return "", err
	}
	next := tracker.Cycle(entityID)
	stored := string(next)
	if next == next.Default() {
		stored = ""
	}
	if err := s.statuses.SetStatus(ctx, userID, kind, entityID, stored); err != nil {
		return "", fmt.Errorf("set %s status: %w", kind, err)
	}
	return next, nil
}

// Group returns the done share of the given entity ids.
func (s *ProgressService) Group(ctx context.Context, userID string, kind domain.ProgressKind, ids []string) (GroupProgress, error) {
	tracker, err := s.tracker(ctx, userID, kind)
	if err != nil {
		return GroupProgress{}, err
	}
	return groupProgress(tracker, ids), nil
}

func (s *ProgressService) tracker(ctx context.Context, userID string, kind domain.ProgressKind) (*Tracker[domain.TrackStatus], error) {
	raw, err := s.statuses.GetStatuses(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("get %s status: %w", kind, err)
	}
	statuses := make(map[string]domain.TrackStatus, len(raw))
	for id, v := range raw {
		if st := domain.TrackStatus(v); st.Valid() {
			statuses[id] = st
		}
	}
	return NewTracker(statuses), nil
}
