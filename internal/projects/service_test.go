package projects

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	return NewService(repo, zap.NewNop()), repo
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		ProjectType: "Mangrove",
		Location:    "Sundarbans, Bangladesh",
		Area:        25.5,
		Latitude:    21.9497,
		Longitude:   89.1833,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC),
		Description: "Mangrove restoration along the delta",
	}
}

func TestRegisterStartsInDraft(t *testing.T) {
	svc, repo := newTestService(t)

	project, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, project.Status)
	assert.NotEqual(t, uuid.Nil, project.ID)

	history := repo.StatusHistoryFor(project.ID)
	require.Len(t, history, 1)
	assert.Equal(t, StatusDraft, history[0].Status)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := validRequest()
	req.ProjectType = ""
	_, err := svc.Register(ctx, req)
	assert.Error(t, err)

	req = validRequest()
	req.Area = 0
	_, err = svc.Register(ctx, req)
	assert.Error(t, err)

	req = validRequest()
	req.Area = -3
	_, err = svc.Register(ctx, req)
	assert.Error(t, err)

	req = validRequest()
	req.EndDate = req.StartDate
	_, err = svc.Register(ctx, req)
	assert.Error(t, err)
}

func TestLifecycleTransitions(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	project, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	project, err = svc.MarkVerified(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, project.Status)

	project, err = svc.MarkRegistered(ctx, project.ID, "0x1a2b3c4d5e")
	require.NoError(t, err)
	assert.Equal(t, StatusRegistered, project.Status)
	require.NotNil(t, project.ChainAddress)
	assert.Equal(t, "0x1a2b3c4d5e", *project.ChainAddress)

	project, err = svc.MarkTokenized(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusTokenized, project.Status)

	history := repo.StatusHistoryFor(project.ID)
	require.Len(t, history, 4)
	assert.Equal(t, StatusDraft, history[0].Status)
	assert.Equal(t, StatusTokenized, history[3].Status)
}

func TestSkippingStagesRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	project, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.MarkRegistered(ctx, project.ID, "0xdeadbeef00")
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusDraft, transitionErr.From)
	assert.Equal(t, StatusRegistered, transitionErr.To)

	_, err = svc.MarkTokenized(ctx, project.ID)
	require.ErrorAs(t, err, &transitionErr)
}

func TestRejectionPaths(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// draft -> rejected
	p1, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	p1, err = svc.MarkRejected(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, p1.Status)

	// rejected is terminal
	_, err = svc.MarkVerified(ctx, p1.ID)
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	// verified -> rejected
	p2, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.MarkVerified(ctx, p2.ID)
	require.NoError(t, err)
	p2, err = svc.MarkRejected(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, p2.Status)

	// registered cannot be rejected
	p3, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.MarkVerified(ctx, p3.ID)
	require.NoError(t, err)
	_, err = svc.MarkRegistered(ctx, p3.ID, "0xabcdef1234")
	require.NoError(t, err)
	_, err = svc.MarkRejected(ctx, p3.ID)
	require.ErrorAs(t, err, &transitionErr)
}

func TestTransitionIntoCurrentStatusIsNoOp(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	project, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.MarkVerified(ctx, project.ID)
	require.NoError(t, err)

	// retried request succeeds without a second history entry
	project, err = svc.MarkVerified(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, project.Status)
	assert.Len(t, repo.StatusHistoryFor(project.ID), 2)
}

func TestChainAddressSetOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	project, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.MarkVerified(ctx, project.ID)
	require.NoError(t, err)
	_, err = svc.MarkRegistered(ctx, project.ID, "0xfirst00000")
	require.NoError(t, err)

	// same address retried is a no-op, status already registered
	project, err = svc.MarkRegistered(ctx, project.ID, "0xfirst00000")
	require.NoError(t, err)
	assert.Equal(t, "0xfirst00000", *project.ChainAddress)
}

func TestSetGeoNFTSetOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	project, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	project, err = svc.SetGeoNFT(ctx, project.ID, "GEO-A1B2C3")
	require.NoError(t, err)
	require.NotNil(t, project.GeoNFTID)

	_, err = svc.SetGeoNFT(ctx, project.ID, "GEO-ZZZZZZ")
	assert.Error(t, err)

	// identical value retried is fine
	_, err = svc.SetGeoNFT(ctx, project.ID, "GEO-A1B2C3")
	assert.NoError(t, err)
}

func TestListProjectsFilterByStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p1, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.Register(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.MarkVerified(ctx, p1.ID)
	require.NoError(t, err)

	verified := StatusVerified
	out, err := svc.ListProjects(ctx, Filter{Status: &verified})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, p1.ID, out[0].ID)

	all, err := svc.ListProjects(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetProjectNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetProject(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
