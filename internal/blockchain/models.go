package blockchain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceiptType names the chain operation a receipt records
type ReceiptType string

const (
	ReceiptContractDeployment ReceiptType = "contract_deployment"
	ReceiptGeoNFTMint         ReceiptType = "geonft_mint"
	ReceiptTokenCreation      ReceiptType = "token_creation"
)

// Receipt is the registry's append-only record of one chain transaction
type Receipt struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"project_id"`
	Type        ReceiptType `gorm:"size:50;not null" json:"type"`
	TxHash      string      `gorm:"size:200;not null;uniqueIndex" json:"transaction_hash"`
	BlockNumber int64       `json:"block_number"`
	GasUsed     int64       `json:"gas_used"`
	NetworkFee  float64     `json:"network_fee"`
	Network     string      `gorm:"size:100" json:"network"`
	CreatedAt   time.Time   `json:"created_at"`
}

// BeforeCreate hook for UUID generation
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
