package verification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blue-carbon/registry-backend/internal/projects"
)

func newTestGate(t *testing.T) (*Gate, *projects.Service) {
	t.Helper()
	projectSvc := projects.NewService(projects.NewMemoryRepository(), zap.NewNop())
	gate := NewGate(NewMemoryRepository(), projectSvc, zap.NewNop())
	return gate, projectSvc
}

func newDraftProject(t *testing.T, svc *projects.Service) *projects.Project {
	t.Helper()
	project, err := svc.Register(context.Background(), projects.RegisterRequest{
		ProjectType: "Mangrove",
		Location:    "Gulf of Kutch, India",
		Area:        12.0,
		StartDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return project
}

// approve walks a record through Decide(approve=true)
func approve(t *testing.T, gate *Gate, recordID uuid.UUID) *Record {
	t.Helper()
	record, err := gate.Decide(context.Background(), recordID, true, "")
	require.NoError(t, err)
	return record
}

func TestSubmitInvalidKind(t *testing.T) {
	gate, svc := newTestGate(t)
	project := newDraftProject(t, svc)

	_, err := gate.Submit(context.Background(), project.ID, Kind("audit"), "v-1", "")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestSubmitUnknownProject(t *testing.T) {
	gate, _ := newTestGate(t)
	_, err := gate.Submit(context.Background(), uuid.New(), KindInternal, "v-1", "")
	assert.ErrorIs(t, err, projects.ErrNotFound)
}

func TestPrerequisiteChain(t *testing.T) {
	gate, svc := newTestGate(t)
	project := newDraftProject(t, svc)
	ctx := context.Background()

	// third_party before internal is approved
	_, err := gate.Submit(ctx, project.ID, KindThirdParty, "v-1", "")
	var prereqErr *PrerequisiteMissingError
	require.ErrorAs(t, err, &prereqErr)
	assert.Equal(t, KindThirdParty, prereqErr.Kind)
	assert.Equal(t, []Kind{KindInternal}, prereqErr.Missing)

	// legal first names both missing stages
	_, err = gate.Submit(ctx, project.ID, KindLegal, "v-1", "")
	require.ErrorAs(t, err, &prereqErr)
	assert.Equal(t, []Kind{KindInternal, KindThirdParty}, prereqErr.Missing)

	// internal has no prerequisites
	internal, err := gate.Submit(ctx, project.ID, KindInternal, "v-1", "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, internal.Status)

	// a pending internal record is not enough for third_party
	_, err = gate.Submit(ctx, project.ID, KindThirdParty, "v-2", "")
	require.ErrorAs(t, err, &prereqErr)

	approve(t, gate, internal.ID)

	thirdParty, err := gate.Submit(ctx, project.ID, KindThirdParty, "v-2", "")
	require.NoError(t, err)

	// legal still blocked on third_party approval
	_, err = gate.Submit(ctx, project.ID, KindLegal, "v-3", "")
	require.ErrorAs(t, err, &prereqErr)
	assert.Equal(t, []Kind{KindThirdParty}, prereqErr.Missing)

	approve(t, gate, thirdParty.ID)

	legal, err := gate.Submit(ctx, project.ID, KindLegal, "v-3", "")
	require.NoError(t, err)
	assert.Equal(t, KindLegal, legal.Kind)
}

func TestDecideStampsVerifiedAt(t *testing.T) {
	gate, svc := newTestGate(t)
	project := newDraftProject(t, svc)
	ctx := context.Background()

	record, err := gate.Submit(ctx, project.ID, KindInternal, "v-1", "")
	require.NoError(t, err)
	assert.Nil(t, record.VerifiedAt)

	decided := approve(t, gate, record.ID)
	assert.Equal(t, StatusApproved, decided.Status)
	require.NotNil(t, decided.VerifiedAt)

	rejected, err := gate.Submit(ctx, project.ID, KindThirdParty, "v-2", "")
	require.NoError(t, err)
	rejected, err = gate.Decide(ctx, rejected.ID, false, "insufficient sampling")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Nil(t, rejected.VerifiedAt)
	assert.Equal(t, "insufficient sampling", rejected.Notes)
}

func TestDecideTwiceRejected(t *testing.T) {
	gate, svc := newTestGate(t)
	project := newDraftProject(t, svc)
	ctx := context.Background()

	record, err := gate.Submit(ctx, project.ID, KindInternal, "v-1", "")
	require.NoError(t, err)
	approve(t, gate, record.ID)

	_, err = gate.Decide(ctx, record.ID, false, "")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func runFullChain(t *testing.T, gate *Gate, projectID uuid.UUID, approveLegal bool) {
	t.Helper()
	ctx := context.Background()
	internal, err := gate.Submit(ctx, projectID, KindInternal, "v-1", "")
	require.NoError(t, err)
	approve(t, gate, internal.ID)
	thirdParty, err := gate.Submit(ctx, projectID, KindThirdParty, "v-2", "")
	require.NoError(t, err)
	approve(t, gate, thirdParty.ID)
	legal, err := gate.Submit(ctx, projectID, KindLegal, "v-3", "")
	require.NoError(t, err)
	_, err = gate.Decide(ctx, legal.ID, approveLegal, "")
	require.NoError(t, err)
}

func TestLegalApprovalVerifiesProject(t *testing.T) {
	gate, svc := newTestGate(t)
	project := newDraftProject(t, svc)

	runFullChain(t, gate, project.ID, true)

	got, err := svc.GetProject(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.StatusVerified, got.Status)
}

func TestLegalRejectionRejectsProject(t *testing.T) {
	gate, svc := newTestGate(t)
	project := newDraftProject(t, svc)

	runFullChain(t, gate, project.ID, false)

	got, err := svc.GetProject(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.StatusRejected, got.Status)
}

func TestNonLegalDecisionLeavesProjectAlone(t *testing.T) {
	gate, svc := newTestGate(t)
	project := newDraftProject(t, svc)
	ctx := context.Background()

	record, err := gate.Submit(ctx, project.ID, KindInternal, "v-1", "")
	require.NoError(t, err)
	_, err = gate.Decide(ctx, record.ID, false, "")
	require.NoError(t, err)

	got, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.StatusDraft, got.Status)
}

func TestConcurrentPrematureSubmitsAllRefused(t *testing.T) {
	gate, svc := newTestGate(t)
	project := newDraftProject(t, svc)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = gate.Submit(ctx, project.ID, KindLegal, "v", "")
		}(i)
	}
	wg.Wait()

	var prereqErr *PrerequisiteMissingError
	for _, err := range errs {
		assert.ErrorAs(t, err, &prereqErr)
	}
}

func TestConcurrentDecideExactlyOneWins(t *testing.T) {
	gate, svc := newTestGate(t)
	project := newDraftProject(t, svc)
	ctx := context.Background()

	record, err := gate.Submit(ctx, project.ID, KindInternal, "v-1", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = gate.Decide(ctx, record.ID, true, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyDecided)
		}
	}
	assert.Equal(t, 1, succeeded)
}
