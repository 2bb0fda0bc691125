package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"traddy-backend-go/internal/models"
)

const packsCollection = "lead_packs"

// firestorePackRepository implements LeadPackRepository using Firestore.
type firestorePackRepository struct {
	client *firestore.Client
}

// NewFirestorePackRepository creates a new instance of firestorePackRepository.
func NewFirestorePackRepository(client *firestore.Client) LeadPackRepository {
	return &firestorePackRepository{client: client}
}

func (r *firestorePackRepository) List(ctx context.Context) ([]*models.LeadPack, error) {
	query := r.client.Collection(packsCollection).OrderBy("created_at", firestore.Desc)
	packs, err := collectDocs(query.Documents(ctx), func(p *models.LeadPack, id string) { p.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list lead packs: %w", err)
	}
	return packs, nil
}

func (r *firestorePackRepository) GetByID(ctx context.Context, packID string) (*models.LeadPack, error) {
	docSnap, err := r.client.Collection(packsCollection).Doc(packID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("lead pack with ID '%s' not found: %w", packID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lead pack with ID '%s': %w", packID, err)
	}
	var pack models.LeadPack
	if err := docSnap.DataTo(&pack); err != nil {
		return nil, fmt.Errorf("failed to decode lead pack data for ID '%s': %w", packID, err)
	}
	pack.ID = docSnap.Ref.ID
	return &pack, nil
}

func (r *firestorePackRepository) Create(ctx context.Context, pack *models.LeadPack) (string, error) {
	docRef := r.client.Collection(packsCollection).NewDoc()
	pack.ID = docRef.ID
	if _, err := docRef.Create(ctx, pack); err != nil {
		return "", fmt.Errorf("failed to create lead pack: %w", err)
	}
	return docRef.ID, nil
}
