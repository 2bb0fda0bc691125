package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"traddy-backend-go/internal/models"
)

const profilesCollection = "profiles"

// firestoreProfileRepository implements ProfileRepository using Firestore.
type firestoreProfileRepository struct {
	client *firestore.Client
}

// NewFirestoreProfileRepository creates a new instance of firestoreProfileRepository.
func NewFirestoreProfileRepository(client *firestore.Client) ProfileRepository {
	return &firestoreProfileRepository{client: client}
}

// Create adds a profile document keyed by the auth UID.
func (r *firestoreProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		return errors.New("profile ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(profilesCollection).Doc(profile.ID).Create(ctx, profile)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("profile with ID '%s' already exists: %w", profile.ID, err)
		}
		return fmt.Errorf("failed to create profile with ID '%s': %w", profile.ID, err)
	}
	return nil
}

// GetByID retrieves a profile by auth UID.
func (r *firestoreProfileRepository) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(profilesCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("profile with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile with ID '%s': %w", userID, err)
	}

	var profile models.Profile
	if err := docSnap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile data for ID '%s': %w", userID, err)
	}
	profile.ID = docSnap.Ref.ID
	return &profile, nil
}

// SetStripeAccountID persists the connected account of a user.
func (r *firestoreProfileRepository) SetStripeAccountID(ctx context.Context, userID, accountID string) error {
	return r.update(ctx, userID, []firestore.Update{
		{Path: "stripe_account_id", Value: accountID},
		{Path: "updated_at", Value: firestore.ServerTimestamp},
	})
}

// SetOnboardingCompleted records when the user dismissed the onboarding tour.
func (r *firestoreProfileRepository) SetOnboardingCompleted(ctx context.Context, userID string, at time.Time) error {
	return r.update(ctx, userID, []firestore.Update{
		{Path: "onboarding_completed_at", Value: at},
		{Path: "updated_at", Value: firestore.ServerTimestamp},
	})
}

func (r *firestoreProfileRepository) update(ctx context.Context, userID string, updates []firestore.Update) error {
	_, err := r.client.Collection(profilesCollection).Doc(userID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("profile with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update profile with ID '%s': %w", userID, err)
	}
	return nil
}
