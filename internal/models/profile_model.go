package models

import "time"

// Profile is the marketplace identity of an authenticated user.
type Profile struct {
	ID                    string     `json:"id" firestore:"-" gorm:"primaryKey;type:varchar(128)"` // Firebase Auth UID, used as the document ID
	Email                 string     `json:"email" firestore:"email"`
	DisplayName           string     `json:"displayName,omitempty" firestore:"display_name"`
	StripeAccountID       string     `json:"stripeAccountId,omitempty" firestore:"stripe_account_id" gorm:"index"`
	OnboardingCompletedAt *time.Time `json:"onboardingCompletedAt,omitempty" firestore:"onboarding_completed_at"`
	CreatedAt             time.Time  `json:"createdAt" firestore:"created_at,serverTimestamp"`
	UpdatedAt             time.Time  `json:"updatedAt" firestore:"updated_at,serverTimestamp"`
}

func (Profile) TableName() string { return "profiles" }

// HasPaymentAccount reports whether a connected payout account was provisioned.
func (p *Profile) HasPaymentAccount() bool {
	return p != nil && p.StripeAccountID != ""
}
