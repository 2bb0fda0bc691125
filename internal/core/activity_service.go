package core

import (
	"context"
	"fmt"
	"time"

	"traddy-backend-go/internal/db"
	"traddy-backend-go/internal/models"
)

// activityService implements the ActivityService interface.
type activityService struct {
	activityRepo db.ActivityRepository
}

// NewActivityService creates a new ActivityService instance.
func NewActivityService(activityRepo db.ActivityRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

// Record stores one activity entry, stamping it when no timestamp is set.
func (s *activityService) Record(ctx context.Context, entry models.Activity) error {
	if entry.UserID == "" || entry.Action == "" {
		return fmt.Errorf("activity needs a user and an action")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create activity via repository: %w", err)
	}
	return nil
}

func (s *activityService) Recent(ctx context.Context, userID string, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.activityRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for user '%s': %w", userID, err)
	}
	return entries, nil
}
