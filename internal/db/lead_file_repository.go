package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"traddy-backend-go/internal/models"
)

const leadFilesCollection = "lead_files"

// firestoreLeadFileRepository implements LeadFileRepository using Firestore.
type firestoreLeadFileRepository struct {
	client *firestore.Client
}

// NewFirestoreLeadFileRepository creates a new instance of firestoreLeadFileRepository.
func NewFirestoreLeadFileRepository(client *firestore.Client) LeadFileRepository {
	return &firestoreLeadFileRepository{client: client}
}

// Create adds a lead file document with an auto-generated ID.
func (r *firestoreLeadFileRepository) Create(ctx context.Context, file *models.LeadFile) (string, error) {
	docRef := r.client.Collection(leadFilesCollection).NewDoc()
	file.ID = docRef.ID
	if _, err := docRef.Create(ctx, file); err != nil {
		return "", fmt.Errorf("failed to create lead file: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreLeadFileRepository) GetByID(ctx context.Context, fileID string) (*models.LeadFile, error) {
	if fileID == "" {
		return nil, errors.New("fileID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(leadFilesCollection).Doc(fileID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("lead file with ID '%s' not found: %w", fileID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lead file with ID '%s': %w", fileID, err)
	}
	var file models.LeadFile
	if err := docSnap.DataTo(&file); err != nil {
		return nil, fmt.Errorf("failed to decode lead file data for ID '%s': %w", fileID, err)
	}
	file.ID = docSnap.Ref.ID
	return &file, nil
}

func (r *firestoreLeadFileRepository) ListByUser(ctx context.Context, userID string) ([]*models.LeadFile, error) {
	query := r.client.Collection(leadFilesCollection).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc)

	files, err := collectDocs(query.Documents(ctx), func(f *models.LeadFile, id string) { f.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list lead files for user '%s': %w", userID, err)
	}
	return files, nil
}

func (r *firestoreLeadFileRepository) UpdateStatus(ctx context.Context, fileID string, fileStatus models.LeadFileStatus, detail string, leadCount *int) error {
	updates := []firestore.Update{
		{Path: "status", Value: string(fileStatus)},
		{Path: "status_detail", Value: detail},
		{Path: "updated_at", Value: firestore.ServerTimestamp},
	}
	if leadCount != nil {
		updates = append(updates, firestore.Update{Path: "lead_count", Value: *leadCount})
	}
	_, err := r.client.Collection(leadFilesCollection).Doc(fileID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("lead file with ID '%s' not found: %w", fileID, ErrNotFound)
		}
		return fmt.Errorf("failed to update status of lead file '%s': %w", fileID, err)
	}
	return nil
}

func (r *firestoreLeadFileRepository) Delete(ctx context.Context, fileID string) error {
	_, err := r.client.Collection(leadFilesCollection).Doc(fileID).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("lead file with ID '%s' not found: %w", fileID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete lead file '%s': %w", fileID, err)
	}
	return nil
}
