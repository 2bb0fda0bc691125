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

const transactionsCollection = "transactions"

// firestoreTransactionRepository implements TransactionRepository using Firestore.
type firestoreTransactionRepository struct {
	client *firestore.Client
}

// NewFirestoreTransactionRepository creates a new instance of firestoreTransactionRepository.
func NewFirestoreTransactionRepository(client *firestore.Client) TransactionRepository {
	return &firestoreTransactionRepository{client: client}
}

// transactionDoc keys checkout transactions by their session id, so Firestore
// itself refuses a second document for the same session.
func (r *firestoreTransactionRepository) transactionDoc(tx *models.Transaction) *firestore.DocumentRef {
	if tx.CheckoutSessionID != "" {
		return r.client.Collection(transactionsCollection).Doc(tx.CheckoutSessionID)
	}
	return r.client.Collection(transactionsCollection).NewDoc()
}

func (r *firestoreTransactionRepository) Create(ctx context.Context, tx *models.Transaction) (string, error) {
	docRef := r.transactionDoc(tx)
	tx.ID = docRef.ID
	if _, err := docRef.Create(ctx, tx); err != nil {
		tx.ID = ""
		if status.Code(err) == codes.AlreadyExists {
			return "", fmt.Errorf("%w: session '%s'", ErrDuplicateCheckout, tx.CheckoutSessionID)
		}
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}
	return docRef.ID, nil
}

// SettleLeadSale runs the status check, the status flip and the insert in one
// Firestore transaction, so concurrent buyers cannot both win.
func (r *firestoreTransactionRepository) SettleLeadSale(ctx context.Context, tx *models.Transaction) error {
	if tx.LeadID == "" {
		return errors.New("transaction has no lead to settle")
	}
	leadRef := r.client.Collection(leadsCollection).Doc(tx.LeadID)
	txRef := r.transactionDoc(tx)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		snap, err := ftx.Get(leadRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("lead with ID '%s' not found: %w", tx.LeadID, ErrNotFound)
			}
			return err
		}
		var lead models.Lead
		if err := snap.DataTo(&lead); err != nil {
			return fmt.Errorf("failed to decode lead data for ID '%s': %w", tx.LeadID, err)
		}
		if lead.Status != models.LeadStatusAvailable {
			return fmt.Errorf("%w: lead '%s' is %s", ErrLeadNotAvailable, tx.LeadID, lead.Status)
		}
		if err := ftx.Update(leadRef, []firestore.Update{
			{Path: "status", Value: string(models.LeadStatusSold)},
			{Path: "buyer_id", Value: tx.BuyerID},
			{Path: "sold_at", Value: tx.CreatedAt},
		}); err != nil {
			return err
		}
		tx.ID = txRef.ID
		return ftx.Create(txRef, tx)
	})
	if err != nil {
		tx.ID = ""
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%w: session '%s'", ErrDuplicateCheckout, tx.CheckoutSessionID)
		}
		return fmt.Errorf("failed to settle sale of lead '%s': %w", tx.LeadID, err)
	}
	return nil
}

func (r *firestoreTransactionRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*models.Transaction, error) {
	query := r.client.Collection(transactionsCollection).Where("checkout_session_id", "==", sessionID).Limit(1)
	txs, err := collectDocs(query.Documents(ctx), func(t *models.Transaction, id string) { t.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to look up transaction for session '%s': %w", sessionID, err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("transaction for session '%s' not found: %w", sessionID, ErrNotFound)
	}
	return txs[0], nil
}

func (r *firestoreTransactionRepository) ListBySeller(ctx context.Context, sellerID string) ([]*models.Transaction, error) {
	return r.listBy(ctx, "seller_id", sellerID)
}

func (r *firestoreTransactionRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*models.Transaction, error) {
	return r.listBy(ctx, "buyer_id", buyerID)
}

func (r *firestoreTransactionRepository) listBy(ctx context.Context, field, userID string) ([]*models.Transaction, error) {
	query := r.client.Collection(transactionsCollection).
		Where(field, "==", userID).
		OrderBy("created_at", firestore.Desc)
	txs, err := collectDocs(query.Documents(ctx), func(t *models.Transaction, id string) { t.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by %s '%s': %w", field, userID, err)
	}
	return txs, nil
}
