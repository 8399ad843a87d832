package verification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind is one of the three verification stages a project goes through
type Kind string

const (
	KindInternal   Kind = "internal"
	KindThirdParty Kind = "third_party"
	KindLegal      Kind = "legal"
)

// Valid reports whether k is a known verification kind
func (k Kind) Valid() bool {
	switch k {
	case KindInternal, KindThirdParty, KindLegal:
		return true
	}
	return false
}

// Status is the decision state of a verification record
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Record is a single verification request against a project
type Record struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Kind       Kind       `gorm:"size:50;not null" json:"verification_type"`
	Status     Status     `gorm:"size:50;not null;default:'pending'" json:"status"`
	VerifierID string     `gorm:"size:200" json:"verifier_id"`
	Notes      string     `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// BeforeCreate hook for UUID generation
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
