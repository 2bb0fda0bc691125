package models

import "time"

// TransactionStatus is the settlement state of a purchase.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Transaction records one settled purchase of a lead or a pack.
type Transaction struct {
	ID                string            `json:"id" firestore:"-" gorm:"primaryKey;type:varchar(64)"`
	LeadID            string            `json:"leadId,omitempty" firestore:"lead_id" gorm:"index"`
	PackID            string            `json:"packId,omitempty" firestore:"pack_id"`
	LeadFileID        string            `json:"leadFileId,omitempty" firestore:"lead_file_id"`
	BuyerID           string            `json:"buyerId" firestore:"buyer_id" gorm:"index"`
	SellerID          string            `json:"sellerId,omitempty" firestore:"seller_id" gorm:"index"`
	Amount            float64           `json:"amount" firestore:"amount"`
	PlatformFee       float64           `json:"platformFee" firestore:"platform_fee"`
	Currency          string            `json:"currency" firestore:"currency" gorm:"type:varchar(8)"`
	Status            TransactionStatus `json:"status" firestore:"status" gorm:"type:varchar(16)"`
	CheckoutSessionID string            `json:"checkoutSessionId,omitempty" firestore:"checkout_session_id" gorm:"uniqueIndex:idx_transactions_checkout_session,where:checkout_session_id <> ''"`
	PaymentIntentID   string            `json:"paymentIntentId,omitempty" firestore:"payment_intent_id"`
	CreatedAt         time.Time         `json:"createdAt" firestore:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

// TransactionWithFile is a transaction joined with its source lead file.
type TransactionWithFile struct {
	Transaction
	FileName  string `json:"fileName,omitempty"`
	LeadCount int    `json:"leadCount,omitempty"`
}
