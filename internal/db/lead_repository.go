package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"traddy-backend-go/internal/models"
)

const leadsCollection = "leads"

// firestoreLeadRepository implements LeadRepository using Firestore.
type firestoreLeadRepository struct {
	client *firestore.Client
}

// NewFirestoreLeadRepository creates a new instance of firestoreLeadRepository.
func NewFirestoreLeadRepository(client *firestore.Client) LeadRepository {
	return &firestoreLeadRepository{client: client}
}

func (r *firestoreLeadRepository) GetByID(ctx context.Context, leadID string) (*models.Lead, error) {
	if leadID == "" {
		return nil, errors.New("leadID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(leadsCollection).Doc(leadID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("lead with ID '%s' not found: %w", leadID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lead with ID '%s': %w", leadID, err)
	}
	var lead models.Lead
	if err := docSnap.DataTo(&lead); err != nil {
		return nil, fmt.Errorf("failed to decode lead data for ID '%s': %w", leadID, err)
	}
	lead.ID = docSnap.Ref.ID
	return &lead, nil
}

// ListAvailable queries on status only. Every other predicate is applied by
// filter.Matches so that equality stays case-insensitive and no composite
// index is needed per filter combination.
func (r *firestoreLeadRepository) ListAvailable(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error) {
	query := r.client.Collection(leadsCollection).Where("status", "==", string(models.LeadStatusAvailable))

	all, err := collectDocs(query.Documents(ctx), func(l *models.Lead, id string) { l.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list available leads: %w", err)
	}

	leads := make([]*models.Lead, 0, len(all))
	for _, lead := range all {
		if filter.Matches(lead) {
			leads = append(leads, lead)
		}
	}
	sortLeads(leads, filter.Sort)
	if filter.Limit > 0 && len(leads) > filter.Limit {
		leads = leads[:filter.Limit]
	}
	return leads, nil
}

func (r *firestoreLeadRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*models.Lead, error) {
	query := r.client.Collection(leadsCollection).Where("buyer_id", "==", buyerID)
	leads, err := collectDocs(query.Documents(ctx), func(l *models.Lead, id string) { l.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list leads bought by '%s': %w", buyerID, err)
	}
	sort.SliceStable(leads, func(i, j int) bool { return timeOrZero(leads[i].SoldAt).After(timeOrZero(leads[j].SoldAt)) })
	return leads, nil
}

func (r *firestoreLeadRepository) Create(ctx context.Context, lead *models.Lead) (string, error) {
	docRef := r.client.Collection(leadsCollection).NewDoc()
	lead.ID = docRef.ID
	if _, err := docRef.Create(ctx, lead); err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}
	return docRef.ID, nil
}

// sortLeads orders by the selected column, descending. Leads without a
// contact date sort last.
func sortLeads(leads []*models.Lead, by models.LeadSort) {
	if by == models.SortByContactDate {
		sort.SliceStable(leads, func(i, j int) bool {
			return timeOrZero(leads[i].ContactDate).After(timeOrZero(leads[j].ContactDate))
		})
		return
	}
	sort.SliceStable(leads, func(i, j int) bool { return leads[i].CreatedAt.After(leads[j].CreatedAt) })
}

// collectDocs drains a document iterator into typed models.
func collectDocs[T any](iter *firestore.DocumentIterator, setID func(*T, string)) ([]*T, error) {
	defer iter.Stop()

	var out []*T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		item := new(T)
		if err := doc.DataTo(item); err != nil {
			return nil, fmt.Errorf("failed to decode document '%s': %w", doc.Ref.ID, err)
		}
		setID(item, doc.Ref.ID)
		out = append(out, item)
	}
	return out, nil
}
