package models

import "time"

// LeadFileStatus tracks the external processing of an uploaded CSV.
type LeadFileStatus string

const (
	LeadFileStatusProcessing LeadFileStatus = "processing"
	LeadFileStatusCompleted  LeadFileStatus = "completed"
	LeadFileStatusError      LeadFileStatus = "error"
)

// Valid reports whether s is a known status.
func (s LeadFileStatus) Valid() bool {
	switch s {
	case LeadFileStatusProcessing, LeadFileStatusCompleted, LeadFileStatusError:
		return true
	}
	return false
}

// LeadFile is one uploaded CSV batch and its processing metadata.
type LeadFile struct {
	ID           string         `json:"id" firestore:"-" gorm:"primaryKey;type:varchar(64)"`
	UserID       string         `json:"userId" firestore:"user_id" gorm:"index"`
	FileName     string         `json:"fileName" firestore:"file_name"`
	LeadCount    int            `json:"leadCount" firestore:"lead_count"`
	Status       LeadFileStatus `json:"status" firestore:"status" gorm:"type:varchar(16)"`
	StatusDetail string         `json:"statusDetail,omitempty" firestore:"status_detail"`
	ImportedAt   time.Time      `json:"importedAt" firestore:"imported_at"`
	CreatedAt    time.Time      `json:"createdAt" firestore:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" firestore:"updated_at"`
}

func (LeadFile) TableName() string { return "lead_files" }
