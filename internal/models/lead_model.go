package models

import (
	"strings"
	"time"
)

// LeadStatus is the sale state of a lead.
type LeadStatus string

const (
	LeadStatusAvailable LeadStatus = "available"
	LeadStatusSold      LeadStatus = "sold"
	// LeadStatusPurchased is only found on rows written by older clients.
	LeadStatusPurchased LeadStatus = "purchased"
)

// IsSold reports whether the lead already has a buyer.
func (s LeadStatus) IsSold() bool {
	return s == LeadStatusSold || s == LeadStatusPurchased
}

// Lead is a single sales contact offered on the marketplace.
type Lead struct {
	ID          string     `json:"id" firestore:"-" gorm:"primaryKey;type:varchar(64)"`
	LeadFileID  string     `json:"leadFileId" firestore:"lead_file_id" gorm:"index"`
	UserID      string     `json:"userId" firestore:"user_id" gorm:"index"` // seller
	CompanyName string     `json:"companyName" firestore:"company_name"`
	ContactName *string    `json:"contactName" firestore:"contact_name"`
	Email       *string    `json:"email" firestore:"email"`
	Phone       *string    `json:"phone" firestore:"phone"`
	City        string     `json:"city" firestore:"city"`
	Country     string     `json:"country" firestore:"country"`
	Age         int        `json:"age" firestore:"age"`
	Industry    string     `json:"industry" firestore:"industry"`
	Intention   string     `json:"intention" firestore:"intention"`
	Source      string     `json:"source" firestore:"source"`
	ContactDate *time.Time `json:"contactDate,omitempty" firestore:"contact_date"`
	Price       float64    `json:"price" firestore:"price"`
	Status      LeadStatus `json:"status" firestore:"status" gorm:"index;type:varchar(16)"`
	BuyerID     string     `json:"buyerId,omitempty" firestore:"buyer_id" gorm:"index"`
	SoldAt      *time.Time `json:"soldAt,omitempty" firestore:"sold_at"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"created_at"`
	// Masked is set when identifying fields were redacted for the viewer.
	Masked bool `json:"masked" firestore:"-" gorm:"-"`
}

func (Lead) TableName() string { return "leads" }

// LeadSort selects the single ordering column of a listing query.
type LeadSort string

const (
	SortByCreatedAt   LeadSort = "created_at"
	SortByContactDate LeadSort = "contact_date"
)

// LeadFilter is the composable set of listing predicates. Empty fields are ignored.
type LeadFilter struct {
	City        string
	Country     string
	Company     string
	Industry    string
	Intention   string
	Source      string
	MinAge      *int
	MaxAge      *int
	MinPrice    *float64
	MaxPrice    *float64
	ContactFrom *time.Time
	ContactTo   *time.Time
	Sort        LeadSort
	Limit       int
}

// Matches reports whether an available lead satisfies every predicate of f.
// Non-available leads never match.
func (f LeadFilter) Matches(l *Lead) bool {
	if l == nil || l.Status != LeadStatusAvailable {
		return false
	}
	if !equalIfSet(f.City, l.City) || !equalIfSet(f.Country, l.Country) ||
		!equalIfSet(f.Company, l.CompanyName) || !equalIfSet(f.Industry, l.Industry) ||
		!equalIfSet(f.Intention, l.Intention) || !equalIfSet(f.Source, l.Source) {
		return false
	}
	if f.MinAge != nil && l.Age < *f.MinAge {
		return false
	}
	if f.MaxAge != nil && l.Age > *f.MaxAge {
		return false
	}
	if f.MinPrice != nil && l.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	if f.ContactFrom != nil || f.ContactTo != nil {
		if l.ContactDate == nil {
			return false
		}
		if f.ContactFrom != nil && l.ContactDate.Before(*f.ContactFrom) {
			return false
		}
		if f.ContactTo != nil && l.ContactDate.After(*f.ContactTo) {
			return false
		}
	}
	return true
}

func equalIfSet(want, got string) bool {
	return want == "" || strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(got))
}

// LeadFacets holds the distinct filter values across all available leads.
type LeadFacets struct {
	Cities     []string `json:"cities"`
	Countries  []string `json:"countries"`
	Companies  []string `json:"companies"`
	Industries []string `json:"industries"`
	Intentions []string `json:"intentions"`
	Sources    []string `json:"sources"`
}
