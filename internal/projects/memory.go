package projects

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
	projects map[uuid.UUID]Project
	history  []StatusHistory
}

// NewMemoryRepository creates an empty in-memory project repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects: make(map[uuid.UUID]Project),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, project *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	r.projects[project.ID] = *project
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	project, ok := r.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := project
	return &copied, nil
}

func (r *MemoryRepository) Update(ctx context.Context, project *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID]; !ok {
		return ErrNotFound
	}
	r.projects[project.ID] = *project
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, filter Filter) ([]*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Project
	for _, project := range r.projects {
		if filter.Status != nil && project.Status != *filter.Status {
			continue
		}
		copied := project
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Offset > 0 && filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else if filter.Offset >= len(out) {
		out = nil
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) CreateStatusHistory(ctx context.Context, history *StatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if history.ID == uuid.Nil {
		history.ID = uuid.New()
	}
	r.history = append(r.history, *history)
	return nil
}

// StatusHistoryFor returns recorded transitions for a project, oldest first
func (r *MemoryRepository) StatusHistoryFor(projectID uuid.UUID) []StatusHistory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []StatusHistory
	for _, h := range r.history {
		if h.ProjectID == projectID {
			out = append(out, h)
		}
	}
	return out
}
