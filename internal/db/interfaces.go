package db

import (
	"context"
	"errors"
	"time"

	"traddy-backend-go/internal/models"
)

var (
	// ErrNotFound is returned by every repository when the requested record does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrLeadNotAvailable is returned when a sale loses the race for a lead.
	ErrLeadNotAvailable = errors.New("lead is no longer available")
	// ErrDuplicateCheckout is returned when a transaction already exists for the checkout session.
	ErrDuplicateCheckout = errors.New("checkout session already recorded")
)

// ProfileRepository stores user profiles keyed by auth UID.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	SetStripeAccountID(ctx context.Context, userID, accountID string) error
	SetOnboardingCompleted(ctx context.Context, userID string, at time.Time) error
}

// LeadFileRepository stores upload metadata.
type LeadFileRepository interface {
	Create(ctx context.Context, file *models.LeadFile) (string, error) // Returns new file ID
	GetByID(ctx context.Context, fileID string) (*models.LeadFile, error)
	ListByUser(ctx context.Context, userID string) ([]*models.LeadFile, error) // Newest first
	// UpdateStatus sets the processing status; leadCount is left untouched when nil.
	UpdateStatus(ctx context.Context, fileID string, status models.LeadFileStatus, detail string, leadCount *int) error
	Delete(ctx context.Context, fileID string) error
}

// LeadRepository reads marketplace leads.
type LeadRepository interface {
	GetByID(ctx context.Context, leadID string) (*models.Lead, error)
	// ListAvailable returns available leads satisfying filter, ordered by filter.Sort descending.
	ListAvailable(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) (string, error)
}

// TransactionRepository stores settled purchases.
// A checkout session is recorded at most once: Create and SettleLeadSale
// return ErrDuplicateCheckout for a session that already has a transaction.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) (string, error)
	// SettleLeadSale flips tx.LeadID from available to sold for tx.BuyerID and inserts tx,
	// atomically. It returns ErrLeadNotAvailable when the lead was not available.
	SettleLeadSale(ctx context.Context, tx *models.Transaction) error
	GetByCheckoutSession(ctx context.Context, sessionID string) (*models.Transaction, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*models.Transaction, error) // Newest first
	ListByBuyer(ctx context.Context, buyerID string) ([]*models.Transaction, error)   // Newest first
}

// LeadPackRepository stores the pack catalog.
type LeadPackRepository interface {
	List(ctx context.Context) ([]*models.LeadPack, error) // Newest first
	GetByID(ctx context.Context, packID string) (*models.LeadPack, error)
	Create(ctx context.Context, pack *models.LeadPack) (string, error)
}

// ActivityRepository stores the per-user event history.
type ActivityRepository interface {
	Create(ctx context.Context, entry models.Activity) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Activity, error) // Newest first
}

// Store bundles every repository of one backend.
type Store struct {
	Profiles     ProfileRepository
	LeadFiles    LeadFileRepository
	Leads        LeadRepository
	Transactions TransactionRepository
	Packs        LeadPackRepository
	Activities   ActivityRepository
}
