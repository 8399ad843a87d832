package marketplace

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by tests and the
// simulated composition.
type MemoryRepository struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]Listing
}

// NewMemoryRepository creates an empty in-memory listing repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		listings: make(map[uuid.UUID]Listing),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, listing *Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	r.listings[listing.ID] = *listing
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := listing
	return &copied, nil
}

func (r *MemoryRepository) Update(ctx context.Context, listing *Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[listing.ID]; !ok {
		return ErrNotFound
	}
	r.listings[listing.ID] = *listing
	return nil
}

func (r *MemoryRepository) ListActive(ctx context.Context) ([]*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Listing
	for _, listing := range r.listings {
		if listing.Status == StatusActive {
			copied := listing
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ListedAt.After(out[j].ListedAt)
	})
	return out, nil
}
