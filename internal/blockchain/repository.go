package blockchain

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceiptRepository stores transaction receipts. Receipts are append-only;
// there is no update or delete.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *Receipt) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Receipt, error)
}

type gormReceiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a postgres-backed receipt repository
func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &gormReceiptRepository{db: db}
}

func (r *gormReceiptRepository) Create(ctx context.Context, receipt *Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *gormReceiptRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Receipt, error) {
	var receipts []*Receipt
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

// MemoryReceiptRepository is an in-memory ReceiptRepository used by tests
// and the simulated composition.
type MemoryReceiptRepository struct {
	mu       sync.RWMutex
	receipts []Receipt
}

// NewMemoryReceiptRepository creates an empty in-memory receipt repository
func NewMemoryReceiptRepository() *MemoryReceiptRepository {
	return &MemoryReceiptRepository{}
}

func (r *MemoryReceiptRepository) Create(ctx context.Context, receipt *Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	r.receipts = append(r.receipts, *receipt)
	return nil
}

func (r *MemoryReceiptRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Receipt
	for _, receipt := range r.receipts {
		if receipt.ProjectID == projectID {
			copied := receipt
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
