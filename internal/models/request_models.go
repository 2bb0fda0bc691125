package models

import "time"

// UploadLeadFileRequest carries one submitted CSV with its consent acknowledgments.
type UploadLeadFileRequest struct {
	FileName        string
	ContentType     string
	Content         []byte
	GDPRAccepted    bool
	ConsentVerified bool
}

// CreateCheckoutSessionRequest is the body of POST /checkout-sessions.
type CreateCheckoutSessionRequest struct {
	LeadID string `json:"leadId" binding:"required"`
	Origin string `json:"origin,omitempty"`
}

// DirectPurchaseRequest is the body of POST /purchases.
type DirectPurchaseRequest struct {
	LeadID string `json:"leadId" binding:"required"`
}

// CreatePaymentAccountRequest is the body of POST /payments/account.
type CreatePaymentAccountRequest struct {
	UserID string `json:"userId,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// UpdateLeadFileStatusRequest is sent by the processing workflow when a file is done.
type UpdateLeadFileStatusRequest struct {
	Status    LeadFileStatus `json:"status" binding:"required"`
	LeadCount *int           `json:"leadCount,omitempty"`
	Detail    string         `json:"detail,omitempty"`
}

// URLResponse is returned by every flow that redirects the browser.
type URLResponse struct {
	URL string `json:"url"`
}

// UploadResult is the outcome of an accepted upload.
type UploadResult struct {
	LeadFile *LeadFile `json:"leadFile"`
	Warnings []string  `json:"warnings,omitempty"`
	Redirect string    `json:"redirect"`
}

// PaymentAccountStatus describes the caller's connected payout account.
type PaymentAccountStatus struct {
	AccountID          string `json:"accountId,omitempty"`
	OnboardingRequired bool   `json:"onboardingRequired"`
	DetailsSubmitted   bool   `json:"detailsSubmitted"`
	ChargesEnabled     bool   `json:"chargesEnabled"`
}

// Trend direction of a dashboard metric.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// DashboardStat is one card of the seller dashboard.
type DashboardStat struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Trend  Trend  `json:"trend"`
}

// DashboardStats is the dashboard payload.
type DashboardStats struct {
	Stats          []DashboardStat `json:"stats"`
	RecentActivity []*Activity     `json:"recentActivity"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// Notice is a one-shot message derived from return-trip query flags.
type Notice struct {
	Level   string `json:"level"` // "success", "info" or "warning"
	Message string `json:"message"`
}
