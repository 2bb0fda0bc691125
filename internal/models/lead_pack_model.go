package models

import "time"

// LeadPack is a fixed-price bundle from the static catalog.
type LeadPack struct {
	ID          string    `json:"id" firestore:"-" gorm:"primaryKey;type:varchar(64)"`
	Name        string    `json:"name" firestore:"name"`
	Description string    `json:"description" firestore:"description"`
	Intention   string    `json:"intention" firestore:"intention"`
	LeadCount   int       `json:"leadCount" firestore:"lead_count"`
	Price       float64   `json:"price" firestore:"price"`
	CreatedAt   time.Time `json:"createdAt" firestore:"created_at"`
}

func (LeadPack) TableName() string { return "lead_packs" }
