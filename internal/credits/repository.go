package credits

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines credit ledger persistence
type Repository interface {
	Create(ctx context.Context, ledger *CreditLedger) error
	GetByProject(ctx context.Context, projectID uuid.UUID) (*CreditLedger, error)
	Update(ctx context.Context, ledger *CreditLedger) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a postgres-backed ledger repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, ledger *CreditLedger) error {
	return r.db.WithContext(ctx).Create(ledger).Error
}

func (r *gormRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (*CreditLedger, error) {
	var ledger CreditLedger
	err := r.db.WithContext(ctx).First(&ledger, "project_id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLedgerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (r *gormRepository) Update(ctx context.Context, ledger *CreditLedger) error {
	return r.db.WithContext(ctx).Save(ledger).Error
}
