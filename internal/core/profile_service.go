package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"traddy-backend-go/internal/db"
	"traddy-backend-go/internal/models"
)

// ErrProfileNotFound is returned when a profile is not found.
var ErrProfileNotFound = errors.New("profile not found")

// profileService implements the ProfileService interface.
type profileService struct {
	profileRepo db.ProfileRepository
	activity    ActivityService
	logger      *zap.Logger
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(profileRepo db.ProfileRepository, activity ActivityService, logger *zap.Logger) ProfileService {
	return &profileService{profileRepo: profileRepo, activity: activity, logger: logger}
}

// GetOrCreate returns the profile, and whether it was created by this call.
func (s *profileService) GetOrCreate(ctx context.Context, userID, email, displayName string) (*models.Profile, bool, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get profile by ID '%s' from repository: %w", userID, err)
	}

	now := time.Now().UTC()
	profile = &models.Profile{
		ID:          userID, // Firebase Auth UID is the document ID
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, false, fmt.Errorf("failed to create profile (id: %s) after not found: %w", userID, err)
	}
	return profile, true, nil
}

func (s *profileService) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get profile '%s': %w", userID, err)
	}
	return profile, nil
}

// CompleteOnboarding records the end of the product tour. Repeated calls keep the first date.
func (s *profileService) CompleteOnboarding(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.OnboardingCompletedAt != nil {
		return profile, nil
	}
	now := time.Now().UTC()
	if err := s.profileRepo.SetOnboardingCompleted(ctx, userID, now); err != nil {
		return nil, fmt.Errorf("failed to record onboarding for '%s': %w", userID, err)
	}
	profile.OnboardingCompletedAt = &now
	// the onboarding date is already stored; a missing audit entry is not worth failing the request
	if err := s.activity.Record(ctx, models.Activity{UserID: userID, Action: models.ActivityOnboardingEnded, TargetType: "PROFILE", TargetID: userID}); err != nil {
		s.logger.Warn("failed to record onboarding activity", zap.String("user_id", userID), zap.Error(err))
	}
	return profile, nil
}
