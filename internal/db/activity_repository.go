package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"traddy-backend-go/internal/models"
)

const activitiesCollection = "activities"

// firestoreActivityRepository implements ActivityRepository using Firestore.
type firestoreActivityRepository struct {
	client *firestore.Client
}

// NewFirestoreActivityRepository creates a new instance of firestoreActivityRepository.
func NewFirestoreActivityRepository(client *firestore.Client) ActivityRepository {
	return &firestoreActivityRepository{client: client}
}

func (r *firestoreActivityRepository) Create(ctx context.Context, entry models.Activity) error {
	if _, _, err := r.client.Collection(activitiesCollection).Add(ctx, entry); err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}
	return nil
}

func (r *firestoreActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Activity, error) {
	query := r.client.Collection(activitiesCollection).
		Where("user_id", "==", userID).
		OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	entries, err := collectDocs(query.Documents(ctx), func(a *models.Activity, id string) { a.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for user '%s': %w", userID, err)
	}
	return entries, nil
}
