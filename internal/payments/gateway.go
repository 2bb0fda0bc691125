// Package payments wraps the payment processor's connected-accounts API.
package payments

import (
	"context"
	"errors"
)

var (
	// ErrProvider wraps any failure reported by the payment processor.
	ErrProvider = errors.New("payment provider request failed")
	// ErrInvalidSignature is returned when a webhook payload fails verification.
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// Event types the marketplace reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
)

// Checkout metadata keys, written on session creation and read back by the webhook.
const (
	MetaKind     = "kind"
	MetaLeadID   = "lead_id"
	MetaPackID   = "pack_id"
	MetaBuyerID  = "buyer_id"
	MetaSellerID = "seller_id"
	MetaFileID   = "lead_file_id"
	MetaFeeCents = "platform_fee_cents"

	KindLead = "lead"
	KindPack = "pack"
)

// AccountParams describes a new seller payout account.
type AccountParams struct {
	UserID  string
	Email   string
	Country string
}

// Account is the provider's view of a connected account.
type Account struct {
	ID               string
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
}

// CheckoutParams describes a single-item hosted checkout.
type CheckoutParams struct {
	ProductName string
	Description string
	Currency    string
	AmountCents int64
	// FeeCents and Destination are set for destination charges only.
	FeeCents    int64
	Destination string
	SuccessURL  string
	CancelURL   string
	CustomerRef string
	Metadata    map[string]string
}

// CheckoutSession is a created hosted checkout.
type CheckoutSession struct {
	ID  string
	URL string
}

// CompletedCheckout is the payload of a checkout.session.completed event.
type CompletedCheckout struct {
	SessionID       string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Paid            bool
	Metadata        map[string]string
}

// Event is a verified webhook event. Checkout is set for checkout completions.
type Event struct {
	ID       string
	Type     string
	Checkout *CompletedCheckout
}

// Gateway is the subset of the payment processor the marketplace uses.
type Gateway interface {
	CreateAccount(ctx context.Context, params AccountParams) (*Account, error)
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	CreateLoginLink(ctx context.Context, accountID string) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	// RefundPayment refunds in full. For destination charges the transfer and
	// the application fee are reversed as well.
	RefundPayment(ctx context.Context, paymentIntentID string, destinationCharge bool) error
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
