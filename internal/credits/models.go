package credits

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreditLedger tracks the credit pools of one tokenized project. The
// conservation identity total == available + reserved + retired holds at
// every observable point.
type CreditLedger struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`
	TotalCredits  float64   `gorm:"not null" json:"total_credits"`
	Available     float64   `gorm:"not null" json:"available_credits"`
	Reserved      float64   `gorm:"not null" json:"reserved_credits"`
	Retired       float64   `gorm:"not null" json:"retired_credits"`
	UnitPrice     float64   `gorm:"not null" json:"unit_price"`
	VintageYear   int       `json:"vintage_year"`
	TokenStandard string    `gorm:"size:50" json:"token_standard"`
	Registry      string    `gorm:"size:200" json:"registry"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate hook for UUID generation
func (l *CreditLedger) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
