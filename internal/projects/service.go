package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// RegisterRequest carries the attributes of a new project
type RegisterRequest struct {
	ProjectType string    `json:"project_type"`
	Location    string    `json:"location"`
	Area        float64   `json:"area"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Description string    `json:"description"`
}

// Service owns project records and their status transitions
type Service struct {
	repo         Repository
	stateMachine *StateMachine
	logger       *zap.Logger
}

// NewService creates a project service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		stateMachine: NewStateMachine(),
		logger:       logger,
	}
}

// Register creates a new project in draft status
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Project, error) {
	if req.ProjectType == "" {
		return nil, errors.New("project_type is required")
	}
	if req.Location == "" {
		return nil, errors.New("location is required")
	}
	if req.Area <= 0 {
		return nil, fmt.Errorf("area must be positive, got %v", req.Area)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, errors.New("end_date must be after start_date")
	}

	project := &Project{
		ID:          uuid.New(),
		ProjectType: req.ProjectType,
		Location:    req.Location,
		Area:        req.Area,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
		Status:      StatusDraft,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	history := &StatusHistory{
		ProjectID: project.ID,
		Status:    StatusDraft,
		ChangedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateStatusHistory(ctx, history); err != nil {
		s.logger.Warn("failed to record status history", zap.Error(err))
	}

	s.logger.Info("project registered",
		zap.String("project_id", project.ID.String()),
		zap.String("project_type", project.ProjectType))
	return project, nil
}

// GetProject returns a project by id
func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProjects returns projects matching the filter
func (s *Service) ListProjects(ctx context.Context, filter Filter) ([]*Project, error) {
	return s.repo.List(ctx, filter)
}

// MarkVerified transitions draft -> verified. Called by the verification
// gate when a legal record is approved.
func (s *Service) MarkVerified(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.transition(ctx, id, StatusVerified, nil)
}

// MarkRegistered transitions verified -> registered after a successful
// chain deployment. The contract address is set once and never changes.
func (s *Service) MarkRegistered(ctx context.Context, id uuid.UUID, contractAddress string) (*Project, error) {
	if contractAddress == "" {
		return nil, errors.New("contract address is required")
	}
	return s.transition(ctx, id, StatusRegistered, func(p *Project) error {
		if p.ChainAddress != nil && *p.ChainAddress != contractAddress {
			return fmt.Errorf("chain address already set to %s", *p.ChainAddress)
		}
		p.ChainAddress = &contractAddress
		return nil
	})
}

// MarkTokenized transitions registered -> tokenized after ledger issuance
func (s *Service) MarkTokenized(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.transition(ctx, id, StatusTokenized, nil)
}

// MarkRejected transitions draft/verified -> rejected on legal rejection
func (s *Service) MarkRejected(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.transition(ctx, id, StatusRejected, nil)
}

// transition applies a guarded status change. A request into the current
// status is a no-op success so retried requests stay safe.
func (s *Service) transition(ctx context.Context, id uuid.UUID, target Status, apply func(*Project) error) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if project.Status == target {
		return project, nil
	}
	if !s.stateMachine.CanTransition(project.Status, target) {
		return nil, &InvalidTransitionError{From: project.Status, To: target}
	}

	if apply != nil {
		if err := apply(project); err != nil {
			return nil, err
		}
	}

	from := project.Status
	project.Status = target
	project.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}

	history := &StatusHistory{
		ProjectID: id,
		Status:    target,
		ChangedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateStatusHistory(ctx, history); err != nil {
		s.logger.Warn("failed to record status history", zap.Error(err))
	}

	s.logger.Info("project status changed",
		zap.String("project_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)))
	return project, nil
}

// SetSatelliteAnalysis stores the satellite analysis result and caches the
// computed carbon estimate on the project.
func (s *Service) SetSatelliteAnalysis(ctx context.Context, id uuid.UUID, result datatypes.JSON, estimate float64, health string) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project.SatelliteAnalysis = result
	project.EstimatedCredits = &estimate
	project.VegetationHealth = &health
	project.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to store satellite analysis: %w", err)
	}
	return project, nil
}

// SetSiteImage stores the uploaded image key and its analysis result
func (s *Service) SetSiteImage(ctx context.Context, id uuid.UUID, imageKey string, result datatypes.JSON) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project.SiteImageKey = &imageKey
	project.ImageAnalysis = result
	project.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to store site image: %w", err)
	}
	return project, nil
}

// SetGeoNFT records the minted GeoNFT id, set once
func (s *Service) SetGeoNFT(ctx context.Context, id uuid.UUID, nftID string) (*Project, error) {
	if nftID == "" {
		return nil, errors.New("nft id is required")
	}
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.GeoNFTID != nil && *project.GeoNFTID != nftID {
		return nil, fmt.Errorf("geonft id already set to %s", *project.GeoNFTID)
	}

	project.GeoNFTID = &nftID
	project.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to store geonft id: %w", err)
	}
	return project, nil
}
