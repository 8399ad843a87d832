package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-backend/internal/projects"
)

// ErrInvalidKind is returned for an unknown verification kind
var ErrInvalidKind = errors.New("invalid verification kind")

// ErrAlreadyDecided is returned when deciding a record that is not pending
var ErrAlreadyDecided = errors.New("verification record already decided")

// PrerequisiteMissingError reports which verification stages must be
// approved before the requested one can be submitted.
type PrerequisiteMissingError struct {
	Kind    Kind
	Missing []Kind
}

func (e *PrerequisiteMissingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		names[i] = string(k)
	}
	return fmt.Sprintf("%s verification requires approved: %s", e.Kind, strings.Join(names, ", "))
}

// ProjectDirectory is the slice of the project service the gate needs
type ProjectDirectory interface {
	GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	MarkVerified(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	MarkRejected(ctx context.Context, id uuid.UUID) (*projects.Project, error)
}

// prerequisites lists which stages must already be approved before a
// given stage may be submitted.
var prerequisites = map[Kind][]Kind{
	KindInternal:   {},
	KindThirdParty: {KindInternal},
	KindLegal:      {KindInternal, KindThirdParty},
}

// Gate runs the three-stage verification chain. Check-then-act sequences
// are serialized per project so concurrent submissions cannot slip past
// the prerequisite check.
type Gate struct {
	repo     Repository
	projects ProjectDirectory
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewGate creates a verification gate
func NewGate(repo Repository, projects ProjectDirectory, logger *zap.Logger) *Gate {
	return &Gate{
		repo:     repo,
		projects: projects,
		logger:   logger,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (g *Gate) projectLock(projectID uuid.UUID) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[projectID] = lock
	}
	return lock
}

// Submit requests a verification stage for a project. The record starts
// pending; stages with unapproved prerequisites are refused.
func (g *Gate) Submit(ctx context.Context, projectID uuid.UUID, kind Kind, verifier, notes string) (*Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if _, err := g.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	lock := g.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	records, err := g.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}

	approved := make(map[Kind]bool)
	for _, r := range records {
		if r.Status == StatusApproved {
			approved[r.Kind] = true
		}
	}

	var missing []Kind
	for _, required := range prerequisites[kind] {
		if !approved[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &PrerequisiteMissingError{Kind: kind, Missing: missing}
	}

	record := &Record{
		ID:         uuid.New(),
		ProjectID:  projectID,
		Kind:       kind,
		Status:     StatusPending,
		VerifierID: verifier,
		Notes:      notes,
		CreatedAt:  time.Now().UTC(),
	}
	if err := g.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create verification record: %w", err)
	}

	g.logger.Info("verification submitted",
		zap.String("project_id", projectID.String()),
		zap.String("kind", string(kind)))
	return record, nil
}

// Decide approves or rejects a pending record. Deciding a legal record
// drives the project status: approval requests draft->verified, rejection
// requests ->rejected. A failed status transition after a recorded
// decision is reported, not undone.
func (g *Gate) Decide(ctx context.Context, recordID uuid.UUID, approve bool, notes string) (*Record, error) {
	record, err := g.repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	lock := g.projectLock(record.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	// re-read under the lock, a concurrent decision may have landed
	record, err = g.repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != StatusPending {
		return nil, fmt.Errorf("%w: record is %s", ErrAlreadyDecided, record.Status)
	}

	if approve {
		now := time.Now().UTC()
		record.Status = StatusApproved
		record.VerifiedAt = &now
	} else {
		record.Status = StatusRejected
	}
	if notes != "" {
		record.Notes = notes
	}
	if err := g.repo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update verification record: %w", err)
	}

	g.logger.Info("verification decided",
		zap.String("record_id", record.ID.String()),
		zap.String("kind", string(record.Kind)),
		zap.String("status", string(record.Status)))

	if record.Kind == KindLegal {
		if approve {
			if _, err := g.projects.MarkVerified(ctx, record.ProjectID); err != nil {
				g.logger.Error("legal approval recorded but project transition failed",
					zap.String("project_id", record.ProjectID.String()),
					zap.Error(err))
			}
		} else {
			if _, err := g.projects.MarkRejected(ctx, record.ProjectID); err != nil {
				g.logger.Error("legal rejection recorded but project transition failed",
					zap.String("project_id", record.ProjectID.String()),
					zap.Error(err))
			}
		}
	}

	return record, nil
}

// ListForProject returns all verification records for a project, oldest first
func (g *Gate) ListForProject(ctx context.Context, projectID uuid.UUID) ([]*Record, error) {
	return g.repo.ListByProject(ctx, projectID)
}
