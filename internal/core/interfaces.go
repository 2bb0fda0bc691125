package core

import (
	"context"

	"traddy-backend-go/internal/models"
)

// ProfileService defines the interface for profile-related operations.
type ProfileService interface {
	// GetOrCreate retrieves a profile by ID. If it doesn't exist, it is created from the token claims.
	GetOrCreate(ctx context.Context, userID, email, displayName string) (*models.Profile, bool, error)
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
	CompleteOnboarding(ctx context.Context, userID string) (*models.Profile, error)
}

// UploadService defines the lead-file upload pipeline.
type UploadService interface {
	Upload(ctx context.Context, userID string, req models.UploadLeadFileRequest) (*models.UploadResult, error)
	ListFiles(ctx context.Context, userID string) ([]*models.LeadFile, error)
	DeleteFile(ctx context.Context, userID, fileID string) error
	// UpdateStatus is called by the processing workflow, not by users.
	UpdateStatus(ctx context.Context, fileID string, req models.UpdateLeadFileStatusRequest) (*models.LeadFile, error)
}

// ListingService defines the marketplace read side.
type ListingService interface {
	// ListAvailable returns available leads matching filter, redacted for viewerID.
	ListAvailable(ctx context.Context, viewerID string, filter models.LeadFilter) ([]*models.Lead, error)
	Facets(ctx context.Context) (*models.LeadFacets, error)
	ListPurchased(ctx context.Context, buyerID string) ([]*models.Lead, error)
	ListPacks(ctx context.Context) ([]*models.LeadPack, error)
}

// BillingService defines purchase and settlement operations.
type BillingService interface {
	CreateLeadCheckout(ctx context.Context, buyerID string, req models.CreateCheckoutSessionRequest) (string, error)
	CreatePackCheckout(ctx context.Context, buyerID, packID, origin string) (string, error)
	HandleStripeWebhook(ctx context.Context, signature string, payload []byte) error
	PurchaseDirect(ctx context.Context, buyerID, leadID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]*models.TransactionWithFile, error)
}

// PaymentAccountService defines the seller payout-account lifecycle.
type PaymentAccountService interface {
	GetStatus(ctx context.Context, userID string) (*models.PaymentAccountStatus, error)
	// CreateOrResume returns an onboarding link, or a login link once onboarding is done.
	CreateOrResume(ctx context.Context, callerID, callerEmail string, req models.CreatePaymentAccountRequest) (string, error)
	CreateLoginLink(ctx context.Context, userID string) (string, error)
}

// DashboardService computes the seller dashboard.
type DashboardService interface {
	Stats(ctx context.Context, userID string) (*models.DashboardStats, error)
}

// ActivityService defines the interface for activity logging operations.
type ActivityService interface {
	Record(ctx context.Context, entry models.Activity) error
	Recent(ctx context.Context, userID string, limit int) ([]*models.Activity, error)
}
