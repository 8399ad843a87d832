package credits

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-backend/internal/projects"
)

// ProjectDirectory is the slice of the project service the ledger needs
type ProjectDirectory interface {
	GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	MarkTokenized(ctx context.Context, id uuid.UUID) (*projects.Project, error)
}

// Service moves credits between the available, reserved and retired pools.
// Every operation runs atomically under a per-project mutex; the total
// pool never changes after issuance.
type Service struct {
	repo     Repository
	projects ProjectDirectory
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewService creates a credit ledger service
func NewService(repo Repository, projects ProjectDirectory, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		projects: projects,
		logger:   logger,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Service) projectLock(projectID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[projectID] = lock
	}
	return lock
}

// round2 keeps all pool quantities at 2-decimal precision so the
// conservation identity stays exact in float64.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Issue creates the ledger for a registered project and requests the
// registered->tokenized transition. The total is rounded once here and
// never changes afterwards.
func (s *Service) Issue(ctx context.Context, projectID uuid.UUID, total, unitPrice float64) (*CreditLedger, error) {
	if total <= 0 {
		return nil, fmt.Errorf("total credits must be positive, got %v", total)
	}
	if unitPrice <= 0 {
		return nil, fmt.Errorf("unit price must be positive, got %v", unitPrice)
	}

	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.repo.GetByProject(ctx, projectID); err == nil {
		return nil, ErrAlreadyIssued
	} else if !errors.Is(err, ErrLedgerNotFound) {
		return nil, err
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != projects.StatusRegistered {
		return nil, &projects.InvalidTransitionError{From: project.Status, To: projects.StatusTokenized}
	}

	total = round2(total)
	ledger := &CreditLedger{
		ID:            uuid.New(),
		ProjectID:     projectID,
		TotalCredits:  total,
		Available:     total,
		Reserved:      0,
		Retired:       0,
		UnitPrice:     unitPrice,
		VintageYear:   time.Now().UTC().Year(),
		TokenStandard: "ERC-20",
		Registry:      "Blue Carbon Network",
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, ledger); err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}

	// The ledger is a historical fact once written; a failed transition
	// is reported, not undone.
	if _, err := s.projects.MarkTokenized(ctx, projectID); err != nil {
		s.logger.Error("ledger created but tokenized transition failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}

	s.logger.Info("credits issued",
		zap.String("project_id", projectID.String()),
		zap.Float64("total", total),
		zap.Float64("unit_price", unitPrice))
	return ledger, nil
}

// GetLedger returns the ledger for a project
func (s *Service) GetLedger(ctx context.Context, projectID uuid.UUID) (*CreditLedger, error) {
	return s.repo.GetByProject(ctx, projectID)
}

// Reserve moves credits from available to reserved
func (s *Service) Reserve(ctx context.Context, projectID uuid.UUID, amount float64) (*CreditLedger, error) {
	return s.move(ctx, projectID, amount, func(l *CreditLedger, amt float64) error {
		if amt > l.Available {
			return &InsufficientError{Pool: "available", Requested: amt, Current: l.Available}
		}
		l.Available = round2(l.Available - amt)
		l.Reserved = round2(l.Reserved + amt)
		return nil
	})
}

// Release moves credits from reserved back to available
func (s *Service) Release(ctx context.Context, projectID uuid.UUID, amount float64) (*CreditLedger, error) {
	return s.move(ctx, projectID, amount, func(l *CreditLedger, amt float64) error {
		if amt > l.Reserved {
			return &InsufficientError{Pool: "reserved", Requested: amt, Current: l.Reserved}
		}
		l.Reserved = round2(l.Reserved - amt)
		l.Available = round2(l.Available + amt)
		return nil
	})
}

// Settle moves credits from reserved to retired. Retired credits never
// come back.
func (s *Service) Settle(ctx context.Context, projectID uuid.UUID, amount float64) (*CreditLedger, error) {
	return s.move(ctx, projectID, amount, func(l *CreditLedger, amt float64) error {
		if amt > l.Reserved {
			return &InsufficientError{Pool: "reserved", Requested: amt, Current: l.Reserved}
		}
		l.Reserved = round2(l.Reserved - amt)
		l.Retired = round2(l.Retired + amt)
		return nil
	})
}

func (s *Service) move(ctx context.Context, projectID uuid.UUID, amount float64, apply func(*CreditLedger, float64) error) (*CreditLedger, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", amount)
	}
	amount = round2(amount)

	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	ledger, err := s.repo.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := apply(ledger, amount); err != nil {
		return nil, err
	}
	if !balanced(ledger) {
		return nil, fmt.Errorf("ledger imbalance for project %s: total %.2f != %.2f + %.2f + %.2f",
			projectID, ledger.TotalCredits, ledger.Available, ledger.Reserved, ledger.Retired)
	}

	ledger.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, ledger); err != nil {
		return nil, fmt.Errorf("failed to update ledger: %w", err)
	}
	return ledger, nil
}

func balanced(l *CreditLedger) bool {
	return round2(l.Available+l.Reserved+l.Retired) == l.TotalCredits
}
