package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status is the lifecycle status of a restoration project
type Status string

const (
	StatusDraft      Status = "draft"
	StatusVerified   Status = "verified"
	StatusRegistered Status = "registered"
	StatusTokenized  Status = "tokenized"
	StatusRejected   Status = "rejected"
)

// Valid reports whether s is one of the known project statuses
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusVerified, StatusRegistered, StatusTokenized, StatusRejected:
		return true
	}
	return false
}

// Project represents one ecological-restoration effort
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectType string    `gorm:"size:100;not null" json:"project_type"`
	Location    string    `gorm:"size:200;not null" json:"location"`
	Area        float64   `gorm:"not null" json:"area"` // hectares
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	Description string    `gorm:"type:text" json:"description"`
	Status      Status    `gorm:"size:50;not null;default:'draft';index" json:"status"`

	// Image and analysis data
	SiteImageKey      *string        `gorm:"size:500" json:"site_image_key,omitempty"`
	ImageAnalysis     datatypes.JSON `json:"image_analysis,omitempty"`
	SatelliteAnalysis datatypes.JSON `json:"satellite_analysis,omitempty"`

	// Carbon data
	EstimatedCredits *float64 `json:"estimated_credits,omitempty"`
	VegetationHealth *string  `gorm:"size:50" json:"vegetation_health,omitempty"`

	// Chain data, assigned externally, set once
	ChainAddress *string `gorm:"size:200" json:"chain_address,omitempty"`
	GeoNFTID     *string `gorm:"size:200" json:"geonft_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusHistory tracks project status changes
type StatusHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Status    Status    `gorm:"size:50;not null" json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

// Filter narrows project listings
type Filter struct {
	Status *Status
	Limit  int
	Offset int
}

// BeforeCreate hook for UUID generation
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (h *StatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
