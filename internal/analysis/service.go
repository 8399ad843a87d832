package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"blue-carbon/registry-backend/internal/credits/calculation"
	"blue-carbon/registry-backend/internal/projects"
)

// ProjectDirectory is the slice of the project service the analysis
// service needs
type ProjectDirectory interface {
	GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	SetSatelliteAnalysis(ctx context.Context, id uuid.UUID, result datatypes.JSON, estimate float64, health string) (*projects.Project, error)
	SetSiteImage(ctx context.Context, id uuid.UUID, imageKey string, result datatypes.JSON) (*projects.Project, error)
}

// Report bundles a satellite assessment with the carbon estimate it yields
type Report struct {
	Satellite *SatelliteResult    `json:"satellite_analysis"`
	Carbon    *calculation.Result `json:"carbon_estimate"`
}

// Service runs vegetation analyses and stores the outcome on the project
type Service struct {
	analyzer Analyzer
	store    ImageStore
	projects ProjectDirectory
	logger   *zap.Logger
}

// NewService creates an analysis service
func NewService(analyzer Analyzer, store ImageStore, projects ProjectDirectory, logger *zap.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		store:    store,
		projects: projects,
		logger:   logger,
	}
}

// creditingYears derives the crediting period from the project dates,
// never less than one year.
func creditingYears(p *projects.Project) int {
	years := int(p.EndDate.Sub(p.StartDate).Hours() / (24 * 365))
	if years < 1 {
		years = 1
	}
	return years
}

// AnalyzeProject runs the satellite assessment for a project's
// coordinates, computes the carbon estimate from it and stores both.
func (s *Service) AnalyzeProject(ctx context.Context, projectID uuid.UUID) (*Report, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	satellite, err := s.analyzer.AnalyzeSatellite(ctx, project.Latitude, project.Longitude, project.Area)
	if err != nil {
		return nil, fmt.Errorf("satellite analysis failed: %w", err)
	}

	carbon, err := calculation.Compute(project.Area, satellite.VegetationIndex, project.ProjectType, creditingYears(project))
	if err != nil {
		return nil, fmt.Errorf("carbon calculation failed: %w", err)
	}

	raw, err := json.Marshal(satellite)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	if _, err := s.projects.SetSatelliteAnalysis(ctx, projectID, raw, carbon.TotalTons, satellite.VegetationHealth); err != nil {
		return nil, err
	}

	s.logger.Info("project analyzed",
		zap.String("project_id", projectID.String()),
		zap.Float64("vegetation_index", satellite.VegetationIndex),
		zap.Float64("estimated_credits", carbon.TotalTons))
	return &Report{Satellite: satellite, Carbon: carbon}, nil
}

// UploadSiteImage stores a site photograph, analyzes it and records both
// on the project.
func (s *Service) UploadSiteImage(ctx context.Context, projectID uuid.UUID, filename, contentType string, body io.Reader) (*ImageResult, string, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, "", err
	}
	if filename == "" {
		return nil, "", fmt.Errorf("filename is required")
	}

	key := path.Join("site-images", projectID.String(), filename)
	if err := s.store.Put(ctx, key, body, contentType); err != nil {
		return nil, "", err
	}

	result, err := s.analyzer.AnalyzeSiteImage(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("image analysis failed: %w", err)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode analysis: %w", err)
	}
	if _, err := s.projects.SetSiteImage(ctx, projectID, key, raw); err != nil {
		return nil, "", err
	}

	s.logger.Info("site image uploaded",
		zap.String("project_id", projectID.String()),
		zap.String("key", key))
	return result, key, nil
}
