package credits

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by tests and the
// simulated composition.
type MemoryRepository struct {
	mu      sync.RWMutex
	ledgers map[uuid.UUID]CreditLedger // keyed by project id
}

// NewMemoryRepository creates an empty in-memory ledger repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		ledgers: make(map[uuid.UUID]CreditLedger),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, ledger *CreditLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ledger.ID == uuid.Nil {
		ledger.ID = uuid.New()
	}
	if _, ok := r.ledgers[ledger.ProjectID]; ok {
		return ErrAlreadyIssued
	}
	r.ledgers[ledger.ProjectID] = *ledger
	return nil
}

func (r *MemoryRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (*CreditLedger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ledger, ok := r.ledgers[projectID]
	if !ok {
		return nil, ErrLedgerNotFound
	}
	copied := ledger
	return &copied, nil
}

func (r *MemoryRepository) Update(ctx context.Context, ledger *CreditLedger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ledgers[ledger.ProjectID]; !ok {
		return ErrLedgerNotFound
	}
	r.ledgers[ledger.ProjectID] = *ledger
	return nil
}
