package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blue-carbon/registry-backend/internal/projects"
)

func newTestService(t *testing.T) (*Service, *projects.Service, *MemoryImageStore) {
	t.Helper()
	projectSvc := projects.NewService(projects.NewMemoryRepository(), zap.NewNop())
	store := NewMemoryImageStore()
	svc := NewService(NewSimulated(), store, projectSvc, zap.NewNop())
	return svc, projectSvc, store
}

func newProject(t *testing.T, svc *projects.Service, years int) *projects.Project {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	project, err := svc.Register(context.Background(), projects.RegisterRequest{
		ProjectType: "Mangrove",
		Location:    "Pichavaram, India",
		Area:        5.0,
		Latitude:    11.43,
		Longitude:   79.79,
		StartDate:   start,
		EndDate:     start.AddDate(years, 0, 0),
	})
	require.NoError(t, err)
	return project
}

func TestAnalyzeProjectStoresEstimate(t *testing.T) {
	svc, projectSvc, _ := newTestService(t)
	ctx := context.Background()
	project := newProject(t, projectSvc, 10)

	report, err := svc.AnalyzeProject(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, report.Satellite)
	require.NotNil(t, report.Carbon)

	// simulated vegetation index sits in the healthy band
	assert.GreaterOrEqual(t, report.Satellite.VegetationIndex, 0.70)
	assert.LessOrEqual(t, report.Satellite.VegetationIndex, 0.85)
	assert.Contains(t, []string{"Good", "Excellent"}, report.Satellite.VegetationHealth)
	assert.Equal(t, "Sentinel-2", report.Satellite.DataSource)

	// 5 ha mangrove over 10 years with the reported index
	expectedAnnual := 5.0 * 3.5 * (0.5 + report.Satellite.VegetationIndex*0.5)
	assert.InDelta(t, expectedAnnual*10, report.Carbon.TotalTons, 1e-9)

	got, err := projectSvc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EstimatedCredits)
	assert.InDelta(t, report.Carbon.TotalTons, *got.EstimatedCredits, 1e-9)
	require.NotNil(t, got.VegetationHealth)
	assert.Equal(t, report.Satellite.VegetationHealth, *got.VegetationHealth)

	var stored SatelliteResult
	require.NoError(t, json.Unmarshal(got.SatelliteAnalysis, &stored))
	assert.Equal(t, report.Satellite.VegetationIndex, stored.VegetationIndex)
}

func TestAnalyzeUnknownProject(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.AnalyzeProject(context.Background(), uuid.New())
	assert.ErrorIs(t, err, projects.ErrNotFound)
}

func TestUploadSiteImage(t *testing.T) {
	svc, projectSvc, store := newTestService(t)
	ctx := context.Background()
	project := newProject(t, projectSvc, 5)

	payload := []byte("fake-jpeg-bytes")
	result, key, err := svc.UploadSiteImage(ctx, project.ID, "site.jpg", "image/jpeg", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "site-images/"+project.ID.String()+"/site.jpg", key)
	assert.NotEmpty(t, result.DetectedSpecies)

	stored, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, payload, stored)

	got, err := projectSvc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SiteImageKey)
	assert.Equal(t, key, *got.SiteImageKey)
	assert.NotEmpty(t, got.ImageAnalysis)
}

func TestUploadRequiresFilename(t *testing.T) {
	svc, projectSvc, _ := newTestService(t)
	project := newProject(t, projectSvc, 5)

	_, _, err := svc.UploadSiteImage(context.Background(), project.ID, "", "image/jpeg", bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestHealthLabelBands(t *testing.T) {
	assert.Equal(t, "Excellent", HealthLabel(0.75))
	assert.Equal(t, "Good", HealthLabel(0.60))
	assert.Equal(t, "Good", HealthLabel(0.74))
	assert.Equal(t, "Fair", HealthLabel(0.40))
	assert.Equal(t, "Poor", HealthLabel(0.39))
}

func TestCreditingYearsFloorsAtOne(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &projects.Project{StartDate: start, EndDate: start.AddDate(0, 3, 0)}
	assert.Equal(t, 1, creditingYears(p))

	p.EndDate = start.AddDate(8, 0, 0)
	assert.Equal(t, 8, creditingYears(p))
}
