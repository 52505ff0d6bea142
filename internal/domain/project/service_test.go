package project_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/bluecarbon/internal/domain/activity"
	"github.com/rpggio/bluecarbon/internal/domain/project"
	"github.com/rpggio/bluecarbon/internal/memstore"
	"github.com/rpggio/bluecarbon/internal/repository"
	"github.com/rpggio/bluecarbon/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("p-%d", n)
	}
}

func newTestService(t *testing.T, store project.Storage, opts ...project.Option) *project.Service {
	t.Helper()
	base := []project.Option{
		project.WithClock(func() time.Time { return fixedNow }),
		project.WithIDGenerator(sequentialIDs()),
	}
	return project.NewService(store, nil, append(base, opts...)...)
}

func mangroveRequest() project.CreateRequest {
	return project.CreateRequest{
		ProjectName:   "X",
		Location:      "Y",
		Hectares:      10,
		EcosystemType: project.EcosystemMangrove,
		Description:   "Z",
	}
}

func TestService_AddProjectDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	proj, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)
	require.NotNil(t, proj)

	require.NotEmpty(t, proj.ID)
	require.Equal(t, project.StatusSubmitted, proj.Status)
	require.Equal(t, int64(0), proj.CreditsMinted)
	require.Equal(t, int64(1500), proj.EstimatedCredits)
	require.Equal(t, fixedNow, proj.SubmittedAt)
	require.Equal(t, project.DefaultSubmitter, proj.SubmittedBy)
	require.Equal(t, project.DefaultOrganization, proj.Organization)
	require.Equal(t, project.SchemaVersion, proj.SchemaVersion)
	require.NotNil(t, proj.Images)
	require.Nil(t, proj.ApprovedAt)
	require.Nil(t, proj.MintedBy)

	stored := svc.GetProjects(ctx)
	require.Len(t, stored, 1)
	require.Equal(t, *proj, stored[0])
}

func TestService_AddProjectAssignsFreshUniqueIDs(t *testing.T) {
	ctx := context.Background()
	svc := project.NewService(memstore.New(), nil)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		proj, err := svc.AddProject(ctx, mangroveRequest())
		require.NoError(t, err)
		require.False(t, seen[proj.ID], "duplicate id %s", proj.ID)
		seen[proj.ID] = true
	}
	require.Len(t, svc.GetProjects(ctx), 20)
}

func TestService_AddProjectSkipsTakenIDs(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ids := []string{"taken", "taken", "fresh"}
	svc := project.NewService(store, nil, project.WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))

	first, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)
	require.Equal(t, "taken", first.ID)

	second, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)
	require.Equal(t, "fresh", second.ID)
}

func TestService_AddProjectDerivesCoordinates(t *testing.T) {
	svc := newTestService(t, memstore.New())

	req := mangroveRequest()
	req.Latitude = "21.945000"
	req.Longitude = "89.183000"
	proj, err := svc.AddProject(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "21.945000, 89.183000", proj.Coordinates)
}

func TestService_AddProjectValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	req := mangroveRequest()
	req.Hectares = -1
	_, err := svc.AddProject(ctx, req)
	require.ErrorIs(t, err, project.ErrInvalidInput)

	req = mangroveRequest()
	req.EcosystemType = "coral-reef"
	_, err = svc.AddProject(ctx, req)
	require.ErrorIs(t, err, project.ErrInvalidInput)

	// No field is required.
	proj, err := svc.AddProject(ctx, project.CreateRequest{})
	require.NoError(t, err)
	require.Equal(t, project.EcosystemMangrove, proj.EcosystemType)
	require.Equal(t, int64(0), proj.EstimatedCredits)
	require.Len(t, svc.GetProjects(ctx), 1)
}

func TestService_AddProjectGivesUpOnStuckIDGenerator(t *testing.T) {
	ctx := context.Background()
	svc := project.NewService(memstore.New(), nil, project.WithIDGenerator(func() string { return "x" }))

	_, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)

	_, err = svc.AddProject(ctx, mangroveRequest())
	require.ErrorIs(t, err, project.ErrIDExhausted)
	require.Len(t, svc.GetProjects(ctx), 1)
}

// slowReadStorage widens the window between load and write.
type slowReadStorage struct {
	*memstore.Store
	delay time.Duration
}

func (s slowReadStorage) Read(ctx context.Context, key string) (string, error) {
	time.Sleep(s.delay)
	return s.Store.Read(ctx, key)
}

func TestService_ConcurrentMutationsAreNotLost(t *testing.T) {
	ctx := context.Background()
	svc := project.NewService(slowReadStorage{Store: memstore.New(), delay: 5 * time.Millisecond}, nil)

	seed, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)

	const adds = 10
	var wg sync.WaitGroup
	errs := make(chan error, adds+1)
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddProject(ctx, mangroveRequest())
			errs <- err
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.UpdateProjectStatus(ctx, seed.ID, project.StatusApproved, "admin")
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got := svc.GetProjects(ctx)
	require.Len(t, got, adds+1)
	approved, err := svc.GetProjectByID(ctx, seed.ID)
	require.NoError(t, err)
	require.Equal(t, project.StatusApproved, approved.Status)
}

func TestService_SaveAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	approvedBy := "admin"
	approvedAt := fixedNow.Add(-time.Hour)
	records := []project.Project{
		{ID: "a", ProjectName: "Sundarbans", Hectares: 2.5},
		{
			ID:            "b",
			ProjectName:   "Seagrass bed",
			EcosystemType: project.EcosystemSeagrass,
			Hectares:      4,
			Status:        project.StatusApproved,
			SubmittedAt:   fixedNow.Add(-48 * time.Hour),
			SubmittedBy:   "ngo-7",
			Organization:  "Reef Trust",
			ApprovedAt:    &approvedAt,
			ApprovedBy:    &approvedBy,
			Images:        []string{"site-1.jpg"},
		},
	}
	require.NoError(t, svc.SaveProjects(ctx, records))

	got := svc.GetProjects(ctx)
	require.Len(t, got, 2)

	require.Equal(t, "a", got[0].ID)
	require.Equal(t, project.EcosystemMangrove, got[0].EcosystemType)
	require.Equal(t, project.StatusSubmitted, got[0].Status)
	require.Equal(t, fixedNow, got[0].SubmittedAt)
	require.Equal(t, int64(375), got[0].EstimatedCredits)
	require.Equal(t, []string{}, got[0].Images)

	require.Equal(t, "b", got[1].ID)
	require.Equal(t, project.StatusApproved, got[1].Status)
	require.Equal(t, "ngo-7", got[1].SubmittedBy)
	require.Equal(t, "Reef Trust", got[1].Organization)
	require.Equal(t, approvedAt, *got[1].ApprovedAt)
	require.Equal(t, "admin", *got[1].ApprovedBy)
	require.Equal(t, []string{"site-1.jpg"}, got[1].Images)
	require.Equal(t, int64(600), got[1].EstimatedCredits)

	// Saving the canonical form again is a fixed point.
	require.NoError(t, svc.SaveProjects(ctx, got))
	require.Equal(t, got, svc.GetProjects(ctx))
}

func TestService_SaveRejectsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newTestService(t, store)

	require.NoError(t, svc.SaveProjects(ctx, []project.Project{{ID: "keep"}}))

	err := svc.SaveProjects(ctx, []project.Project{{ID: "dup"}, {ID: "dup"}})
	require.ErrorIs(t, err, project.ErrDuplicateID)

	got := svc.GetProjects(ctx)
	require.Len(t, got, 1)
	require.Equal(t, "keep", got[0].ID)
}

func TestService_SaveRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())
	require.NoError(t, svc.SaveProjects(ctx, []project.Project{{ID: "keep", Hectares: 10}}))

	for name, rec := range map[string]project.Project{
		"unknown status":    {ID: "a", Status: "bogus"},
		"unknown ecosystem": {ID: "a", EcosystemType: "desert"},
		"negative area":     {ID: "a", Hectares: -5},
	} {
		t.Run(name, func(t *testing.T) {
			err := svc.SaveProjects(ctx, []project.Project{{ID: "b", Hectares: 1}, rec})
			require.ErrorIs(t, err, project.ErrInvalidInput)

			got := svc.GetProjects(ctx)
			require.Len(t, got, 1)
			require.Equal(t, "keep", got[0].ID)
		})
	}
}

func TestService_SaveDropsCreditsOnUnmintedRecords(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	require.NoError(t, svc.SaveProjects(ctx, []project.Project{
		{ID: "a", Hectares: 10, CreditsMinted: 999},
		{ID: "b", Hectares: 2, Status: project.StatusMinted, CreditsMinted: 300},
	}))

	got := svc.GetProjects(ctx)
	require.Equal(t, int64(0), got[0].CreditsMinted)
	require.Equal(t, int64(300), got[1].CreditsMinted)
	stats := svc.GetProjectStats(ctx)
	require.Equal(t, int64(300), stats.TotalCredits)
	require.Equal(t, 12.0, stats.TotalHectares)
}

func TestService_UpdateStatusApproveAndMint(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	proj, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)
	require.Equal(t, int64(0), proj.CreditsMinted)

	approved, err := svc.UpdateProjectStatus(ctx, proj.ID, project.StatusApproved, "ngo-admin")
	require.NoError(t, err)
	require.Equal(t, project.StatusApproved, approved.Status)
	require.Equal(t, fixedNow, *approved.ApprovedAt)
	require.Equal(t, "ngo-admin", *approved.ApprovedBy)
	require.Equal(t, int64(0), approved.CreditsMinted)
	require.Nil(t, approved.MintedAt)

	minted, err := svc.UpdateProjectStatus(ctx, proj.ID, project.StatusMinted, "admin")
	require.NoError(t, err)
	require.Equal(t, project.StatusMinted, minted.Status)
	require.Equal(t, minted.EstimatedCredits, minted.CreditsMinted)
	require.Equal(t, int64(1500), minted.CreditsMinted)
	require.Equal(t, fixedNow, *minted.MintedAt)
	require.Equal(t, "admin", *minted.MintedBy)
	require.Equal(t, "ngo-admin", *minted.ApprovedBy)

	stored, err := svc.GetProjectByID(ctx, proj.ID)
	require.NoError(t, err)
	require.Equal(t, *minted, *stored)
}

func TestService_UpdateStatusDefaultsActor(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	proj, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)

	approved, err := svc.UpdateProjectStatus(ctx, proj.ID, project.StatusApproved, "")
	require.NoError(t, err)
	require.Equal(t, project.DefaultActor, *approved.ApprovedBy)
}

func TestService_UpdateStatusUnknownID(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newTestService(t, store)

	_, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)
	before, err := store.Read(ctx, project.ProjectsKey)
	require.NoError(t, err)

	_, err = svc.UpdateProjectStatus(ctx, "does-not-exist", project.StatusApproved, "admin")
	require.ErrorIs(t, err, project.ErrProjectNotFound)

	after, err := store.Read(ctx, project.ProjectsKey)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestService_UpdateStatusRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	proj, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)

	_, err = svc.UpdateProjectStatus(ctx, proj.ID, "rejected", "admin")
	require.ErrorIs(t, err, project.ErrInvalidStatus)
	_, err = svc.UpdateProjectStatus(ctx, proj.ID, project.StatusAll, "admin")
	require.ErrorIs(t, err, project.ErrInvalidStatus)
}

func TestService_UpdateStatusPermissiveOverride(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	proj, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)

	// Skipping approval is allowed without strict transitions.
	minted, err := svc.UpdateProjectStatus(ctx, proj.ID, project.StatusMinted, "admin")
	require.NoError(t, err)
	require.Equal(t, int64(1500), minted.CreditsMinted)
	require.Nil(t, minted.ApprovedAt)

	// Moving backwards withdraws the issued credits.
	reverted, err := svc.UpdateProjectStatus(ctx, proj.ID, project.StatusSubmitted, "admin")
	require.NoError(t, err)
	require.Equal(t, project.StatusSubmitted, reverted.Status)
	require.Equal(t, int64(0), reverted.CreditsMinted)
	require.Equal(t, int64(1500), reverted.EstimatedCredits)
}

func TestService_StrictTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New(), project.WithStrictTransitions(true))

	proj, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)

	_, err = svc.UpdateProjectStatus(ctx, proj.ID, project.StatusMinted, "admin")
	require.ErrorIs(t, err, project.ErrInvalidTransition)

	_, err = svc.UpdateProjectStatus(ctx, proj.ID, project.StatusApproved, "admin")
	require.NoError(t, err)
	_, err = svc.UpdateProjectStatus(ctx, proj.ID, project.StatusMinted, "admin")
	require.NoError(t, err)

	_, err = svc.UpdateProjectStatus(ctx, proj.ID, project.StatusSubmitted, "admin")
	require.ErrorIs(t, err, project.ErrInvalidTransition)
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	require.Equal(t, project.Stats{}, svc.GetProjectStats(ctx))

	hectares := []float64{10, 2.5, 0.4}
	var ids []string
	for _, h := range hectares {
		req := mangroveRequest()
		req.Hectares = h
		proj, err := svc.AddProject(ctx, req)
		require.NoError(t, err)
		ids = append(ids, proj.ID)
	}
	_, err := svc.UpdateProjectStatus(ctx, ids[0], project.StatusMinted, "admin")
	require.NoError(t, err)
	_, err = svc.UpdateProjectStatus(ctx, ids[1], project.StatusApproved, "admin")
	require.NoError(t, err)

	stats := svc.GetProjectStats(ctx)
	projects := svc.GetProjects(ctx)
	require.Equal(t, len(projects), stats.Total)
	require.Equal(t, 1, stats.Submitted)
	require.Equal(t, 1, stats.Approved)
	require.Equal(t, 1, stats.Minted)
	require.InDelta(t, 12.9, stats.TotalHectares, 1e-9)
	require.Equal(t, int64(1500), stats.TotalCredits)
	require.Equal(t, int64(1500+375+60), stats.EstimatedCredits)

	var minted int64
	for _, p := range projects {
		minted += p.CreditsMinted
	}
	require.Equal(t, minted, stats.TotalCredits)
}

func TestService_Filters(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	for _, submitter := range []string{"alice", "bob", "alice"} {
		req := mangroveRequest()
		req.SubmittedBy = submitter
		_, err := svc.AddProject(ctx, req)
		require.NoError(t, err)
	}
	all := svc.GetProjects(ctx)
	_, err := svc.UpdateProjectStatus(ctx, all[2].ID, project.StatusMinted, "admin")
	require.NoError(t, err)

	minted := svc.GetProjectsByStatus(ctx, project.StatusMinted)
	require.Len(t, minted, 1)
	require.Equal(t, all[2].ID, minted[0].ID)

	require.Len(t, svc.GetProjectsByStatus(ctx, project.StatusSubmitted), 2)
	require.Empty(t, svc.GetProjectsByStatus(ctx, project.StatusApproved))
	require.Equal(t, svc.GetProjects(ctx), svc.GetProjectsByStatus(ctx, project.StatusAll))

	alice := svc.GetProjectsByUser(ctx, "alice")
	require.Len(t, alice, 2)
	for _, p := range alice {
		require.Equal(t, "alice", p.SubmittedBy)
	}
	require.Empty(t, svc.GetProjectsByUser(ctx, "carol"))
}

func TestService_GetProjectByID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	_, err := svc.GetProjectByID(ctx, "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)

	proj, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)
	got, err := svc.GetProjectByID(ctx, proj.ID)
	require.NoError(t, err)
	require.Equal(t, proj.ID, got.ID)
}

func TestService_CallersReceiveCopies(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	req := mangroveRequest()
	req.Images = []string{"a.jpg"}
	proj, err := svc.AddProject(ctx, req)
	require.NoError(t, err)

	req.Images[0] = "mutated-request.jpg"
	proj.Images[0] = "mutated-result.jpg"
	listed := svc.GetProjects(ctx)
	listed[0].ProjectName = "mutated-list"

	stored, err := svc.GetProjectByID(ctx, proj.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg"}, stored.Images)
	require.Equal(t, "X", stored.ProjectName)
}

func TestService_CorruptBlobFailsSafe(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, project.ProjectsKey, "{not json"))
	svc := newTestService(t, store)

	require.Empty(t, svc.GetProjects(ctx))
	require.Equal(t, 0, svc.GetProjectStats(ctx).Total)

	_, err := svc.AddProject(ctx, mangroveRequest())
	require.ErrorIs(t, err, project.ErrCorruptData)
	var serr *project.StorageError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, project.ProjectsKey, serr.Key)

	raw, err := store.Read(ctx, project.ProjectsKey)
	require.NoError(t, err)
	require.Equal(t, "{not json", raw, "corrupt blob must be kept for recovery")

	// A full overwrite recovers the store.
	require.NoError(t, svc.SaveProjects(ctx, []project.Project{{ID: "restored"}}))
	require.Len(t, svc.GetProjects(ctx), 1)
}

func TestService_WriteFailureReturnsError(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(memstore.WithQuota(4096))
	svc := newTestService(t, store)

	first, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)
	require.NotNil(t, first)

	var failed bool
	for i := 0; i < 50; i++ {
		proj, err := svc.AddProject(ctx, mangroveRequest())
		if err != nil {
			require.ErrorIs(t, err, memstore.ErrQuotaExceeded)
			require.Nil(t, proj)
			failed = true
			break
		}
	}
	require.True(t, failed, "quota was never hit")

	before := len(svc.GetProjects(ctx))
	_, err = svc.AddProject(ctx, mangroveRequest())
	require.Error(t, err)
	require.Len(t, svc.GetProjects(ctx), before)
}

func TestService_StorageReadErrorIsWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("backend offline")

	store := &mocks.Storage{}
	store.On("Read", ctx, project.ProjectsKey).Return("", boom)
	svc := newTestService(t, store)

	require.Empty(t, svc.GetProjects(ctx))

	_, err := svc.UpdateProjectStatus(ctx, "p-1", project.StatusApproved, "admin")
	require.ErrorIs(t, err, boom)
	store.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ClearProjects(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newTestService(t, store)

	_, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)

	require.NoError(t, svc.ClearProjects(ctx))
	require.Empty(t, svc.GetProjects(ctx))
	require.Equal(t, 0, store.Keys())

	_, err = store.Read(ctx, project.VersionKey)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Clearing an empty store is fine.
	require.NoError(t, svc.ClearProjects(ctx))
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	for i := 0; i < 3; i++ {
		_, err := svc.AddProject(ctx, mangroveRequest())
		require.NoError(t, err)
	}
	_, err := svc.UpdateProjectStatus(ctx, "p-2", project.StatusMinted, "admin")
	require.NoError(t, err)
	before := svc.GetProjects(ctx)

	doc, err := svc.ExportProjects(ctx)
	require.NoError(t, err)

	var envelope project.ExportDocument
	require.NoError(t, json.Unmarshal(doc, &envelope))
	require.Equal(t, project.SchemaVersion, envelope.Version)
	require.Equal(t, fixedNow, envelope.ExportedAt)
	require.Len(t, envelope.Projects, 3)

	require.NoError(t, svc.ClearProjects(ctx))
	n, err := svc.ImportProjects(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, before, svc.GetProjects(ctx))
}

func TestService_ImportBareArray(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())

	n, err := svc.ImportProjects(ctx, []byte(`[
		{"id": 1700000000000, "projectName": "Legacy", "hectares": "3", "version": "0.9.0"},
		{"projectName": "No id"}
	]`))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got := svc.GetProjects(ctx)
	require.Equal(t, "1700000000000", got[0].ID)
	require.Equal(t, float64(3), got[0].Hectares)
	require.Equal(t, int64(450), got[0].EstimatedCredits)
	require.Equal(t, project.SchemaVersion, got[0].SchemaVersion)
	require.NotEmpty(t, got[1].ID)
}

func TestService_ImportRejectsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, memstore.New())
	require.NoError(t, svc.SaveProjects(ctx, []project.Project{{ID: "existing"}}))

	for name, doc := range map[string]string{
		"empty":            ``,
		"not json":         `projects`,
		"truncated":        `[{"id": "a"`,
		"scalar":           `42`,
		"envelope missing": `{"version": "1.0.0"}`,
		"envelope object":  `{"projects": {"id": "a"}}`,
		"record not obj":   `[{"id": "a"}, 7]`,
		"unknown status":   `[{"id": "a", "status": "bogus"}]`,
		"unknown habitat":  `[{"id": "a", "ecosystemType": "desert"}]`,
		"negative area":    `{"projects": [{"id": "a", "hectares": -5}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ImportProjects(ctx, []byte(doc))
			require.ErrorIs(t, err, project.ErrInvalidImport)

			got := svc.GetProjects(ctx)
			require.Len(t, got, 1)
			require.Equal(t, "existing", got[0].ID)
		})
	}
}

func TestService_EnsureMigratedFirstRun(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newTestService(t, store)

	result, err := svc.EnsureMigrated(ctx)
	require.NoError(t, err)
	require.True(t, result.Initialized)
	require.False(t, result.Performed())

	version, err := store.Read(ctx, project.VersionKey)
	require.NoError(t, err)
	require.Equal(t, project.SchemaVersion, version)

	_, err = store.Read(ctx, project.ProjectsKey)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_EnsureMigratedCurrentIsNoop(t *testing.T) {
	ctx := context.Background()

	store := &mocks.Storage{}
	store.On("Read", ctx, project.VersionKey).Return(project.SchemaVersion, nil)
	svc := newTestService(t, store)

	result, err := svc.EnsureMigrated(ctx)
	require.NoError(t, err)
	require.Equal(t, project.MigrationResult{}, result)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_EnsureMigratedStaleSchema(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, project.VersionKey, "0.9.0"))
	require.NoError(t, store.Write(ctx, project.ProjectsKey, `[
		{"id": "1700000000001", "projectName": "Old mangrove", "hectares": "12.5", "status": "approved",
		 "approvedBy": "admin", "approvedAt": "2025-01-02T03:04:05Z", "images": [{}, "a.jpg", {"name": "b.png"}],
		 "version": "0.9.0"},
		{"id": "1700000000002", "projectName": "Wetland", "ecosystemType": "wetland", "hectares": null,
		 "estimatedCredits": 99, "submittedAt": "not a date"}
	]`))

	logger := &mocks.ActivityLogger{}
	logger.On("LogActivity", ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeSchemaMigrated
	})).Return(nil).Once()
	svc := newTestService(t, store, project.WithActivityLog(logger))

	result, err := svc.EnsureMigrated(ctx)
	require.NoError(t, err)
	require.True(t, result.Performed())
	require.Equal(t, "0.9.0", result.From)
	require.Equal(t, project.SchemaVersion, result.To)
	require.Equal(t, 2, result.Migrated)

	got := svc.GetProjects(ctx)
	require.Len(t, got, 2)

	old := got[0]
	require.Equal(t, "1700000000001", old.ID)
	require.Equal(t, 12.5, old.Hectares)
	require.Equal(t, int64(1875), old.EstimatedCredits)
	require.Equal(t, project.StatusApproved, old.Status)
	require.Equal(t, "admin", *old.ApprovedBy)
	require.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), old.ApprovedAt.UTC())
	require.Equal(t, []string{"{}", "a.jpg", "b.png"}, old.Images)
	require.Equal(t, project.EcosystemMangrove, old.EcosystemType)
	require.Equal(t, project.DefaultOrganization, old.Organization)
	require.Equal(t, project.SchemaVersion, old.SchemaVersion)

	wetland := got[1]
	require.Equal(t, project.EcosystemWetland, wetland.EcosystemType)
	require.Equal(t, float64(0), wetland.Hectares)
	require.Equal(t, int64(99), wetland.EstimatedCredits, "existing estimates are never recomputed")
	require.Equal(t, fixedNow, wetland.SubmittedAt)

	version, err := store.Read(ctx, project.VersionKey)
	require.NoError(t, err)
	require.Equal(t, project.SchemaVersion, version)

	// Second run is a no-op.
	blob, err := store.Read(ctx, project.ProjectsKey)
	require.NoError(t, err)
	again, err := svc.EnsureMigrated(ctx)
	require.NoError(t, err)
	require.Equal(t, project.MigrationResult{}, again)
	after, err := store.Read(ctx, project.ProjectsKey)
	require.NoError(t, err)
	require.Equal(t, blob, after)

	logger.AssertExpectations(t)
}

func TestService_EnsureMigratedReassignsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, project.VersionKey, "0.1.0"))
	require.NoError(t, store.Write(ctx, project.ProjectsKey, `[{"id":"same","projectName":"a"},{"id":"same","projectName":"b"}]`))
	svc := newTestService(t, store)

	result, err := svc.EnsureMigrated(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, result.Migrated)

	got := svc.GetProjects(ctx)
	require.Len(t, got, 2)
	require.Equal(t, "same", got[0].ID)
	require.Equal(t, "p-1", got[1].ID)
	require.Equal(t, "b", got[1].ProjectName)
}

func TestService_EnsureMigratedStuckIDGeneratorKeepsMarker(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, project.VersionKey, "0.1.0"))
	require.NoError(t, store.Write(ctx, project.ProjectsKey, `[{"id":"same"},{"id":"same"}]`))
	svc := project.NewService(store, nil, project.WithIDGenerator(func() string { return "same" }))

	_, err := svc.EnsureMigrated(ctx)
	require.ErrorIs(t, err, project.ErrIDExhausted)

	version, err := store.Read(ctx, project.VersionKey)
	require.NoError(t, err)
	require.Equal(t, "0.1.0", version)
}

func TestService_MigratedLegacyValuesDoNotBlockMutations(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, project.VersionKey, "0.5.0"))
	require.NoError(t, store.Write(ctx, project.ProjectsKey, `[{"id":"old","status":"pending","ecosystemType":"kelp"}]`))
	svc := newTestService(t, store)

	_, err := svc.EnsureMigrated(ctx)
	require.NoError(t, err)

	proj, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)
	_, err = svc.UpdateProjectStatus(ctx, proj.ID, project.StatusApproved, "")
	require.NoError(t, err)

	got := svc.GetProjects(ctx)
	require.Len(t, got, 2)
	require.Equal(t, project.Status("pending"), got[0].Status)
	require.Equal(t, project.EcosystemType("kelp"), got[0].EcosystemType)
}

func TestService_EnsureMigratedCorruptKeepsMarker(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Write(ctx, project.VersionKey, "0.9.0"))
	require.NoError(t, store.Write(ctx, project.ProjectsKey, `garbage`))
	svc := newTestService(t, store)

	_, err := svc.EnsureMigrated(ctx)
	require.ErrorIs(t, err, project.ErrCorruptData)

	version, err := store.Read(ctx, project.VersionKey)
	require.NoError(t, err)
	require.Equal(t, "0.9.0", version)
}

func TestService_RecordsActivity(t *testing.T) {
	ctx := context.Background()

	logger := &mocks.ActivityLogger{}
	logger.On("LogActivity", ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeProjectSubmitted && e.ProjectID != nil && *e.ProjectID == "p-1"
	})).Return(nil).Once()
	logger.On("LogActivity", ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeStatusChanged &&
			e.Actor == "admin" &&
			e.Details == `{"from":"submitted","to":"approved"}`
	})).Return(nil).Once()
	logger.On("LogActivity", ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeCollectionCleared
	})).Return(errors.New("audit log down")).Once()

	svc := newTestService(t, memstore.New(), project.WithActivityLog(logger))

	proj, err := svc.AddProject(ctx, mangroveRequest())
	require.NoError(t, err)
	_, err = svc.UpdateProjectStatus(ctx, proj.ID, project.StatusApproved, "admin")
	require.NoError(t, err)

	// Activity failures never fail the store operation.
	assert.NoError(t, svc.ClearProjects(ctx))
	logger.AssertExpectations(t)
}
