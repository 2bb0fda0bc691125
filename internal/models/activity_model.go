package models

import "time"

// Activity actions shown in the dashboard feed.
const (
	ActivityFileUploaded    = "FILE_UPLOADED"
	ActivityFileFailed      = "FILE_DISPATCH_FAILED"
	ActivityLeadSold        = "LEAD_SOLD"
	ActivityLeadPurchased   = "LEAD_PURCHASED"
	ActivityPackPurchased   = "PACK_PURCHASED"
	ActivityPurchaseRefund  = "PURCHASE_REFUNDED"
	ActivityPayoutAccount   = "PAYOUT_ACCOUNT_CREATED"
	ActivityOnboardingEnded = "ONBOARDING_COMPLETED"
)

// Activity is an append-only event in a user's history.
type Activity struct {
	ID         string                 `json:"id" firestore:"-" gorm:"primaryKey;type:varchar(64)"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp" gorm:"column:occurred_at;index"`
	UserID     string                 `json:"userId" firestore:"user_id" gorm:"index"`
	Action     string                 `json:"action" firestore:"action"`
	TargetType string                 `json:"targetType,omitempty" firestore:"target_type,omitempty"` // e.g. "LEAD", "LEAD_FILE", "PACK"
	TargetID   string                 `json:"targetId,omitempty" firestore:"target_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty" gorm:"serializer:json"`
}

func (Activity) TableName() string { return "activities" }
