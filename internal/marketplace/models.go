package marketplace

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingStatus is the lifecycle state of a marketplace listing
type ListingStatus string

const (
	StatusActive    ListingStatus = "active"
	StatusSold      ListingStatus = "sold"
	StatusCancelled ListingStatus = "cancelled"
)

// Listing offers a fixed amount of a project's credits at an asking price.
// The amount never changes after creation; the backing credits sit in the
// ledger's reserved pool while the listing is active.
type Listing struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"project_id"`
	Amount      float64       `gorm:"not null" json:"amount"`
	AskingPrice float64       `gorm:"not null" json:"asking_price"`
	Status      ListingStatus `gorm:"size:50;not null;default:'active';index" json:"status"`
	ListedAt    time.Time     `json:"listed_at"`
	SoldAt      *time.Time    `json:"sold_at,omitempty"`
}

// BeforeCreate hook for UUID generation
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Statistics summarizes marketplace activity
type Statistics struct {
	ActiveListings  int     `json:"active_listings"`
	AverageAskPrice float64 `json:"average_ask_price"`
	TotalListed     float64 `json:"total_credits_listed"`
}
