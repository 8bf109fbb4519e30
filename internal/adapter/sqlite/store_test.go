package sqlite_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tripfolio/providerhub/internal/adapter/sqlite"
	"github.com/tripfolio/providerhub/internal/domain"
)

// newTestStore creates an in-memory SQLite store for testing. The pool is
// capped at one connection so every repository sees the same memory database.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	store.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateProfile(t *testing.T, store *sqlite.Store, p domain.ProviderProfile) {
	t.Helper()
	if err := store.Profiles().Create(context.Background(), p); err != nil {
		t.Fatalf("mustCreateProfile failed: %v", err)
	}
}

// --- ProfileRepository ---

func TestProfileCreate_And_GetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile := domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager)
	if err := store.Profiles().Create(ctx, profile); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Profiles().GetByID(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.ID != "p-1" {
		t.Errorf("ID = %q, want %q", got.ID, "p-1")
	}
	if got.OwnerUserID != "alice" {
		t.Errorf("OwnerUserID = %q, want %q", got.OwnerUserID, "alice")
	}
	if got.ProviderType != domain.TypeHotelManager {
		t.Errorf("ProviderType = %q, want %q", got.ProviderType, domain.TypeHotelManager)
	}
	if got.Status != domain.StatusNotStarted {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusNotStarted)
	}
	if got.RejectionReason != nil {
		t.Errorf("RejectionReason = %v, want nil", *got.RejectionReason)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}

func TestProfileGetByID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Profiles().GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestProfileCreate_DuplicateOwnerAndType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreateProfile(t, store, domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager))

	err := store.Profiles().Create(ctx, domain.NewProviderProfile("p-2", "alice", domain.TypeHotelManager))
	if !errors.Is(err, domain.ErrProfileExists) {
		t.Errorf("expected ErrProfileExists, got %v", err)
	}

	// Same owner with a different provider type is a separate profile.
	if err := store.Profiles().Create(ctx, domain.NewProviderProfile("p-3", "alice", domain.TypeTourOperator)); err != nil {
		t.Errorf("different type should not collide: %v", err)
	}
}

func TestProfileGetByOwnerAndType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreateProfile(t, store, domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager))
	mustCreateProfile(t, store, domain.NewProviderProfile("p-2", "alice", domain.TypeTourOperator))

	got, err := store.Profiles().GetByOwnerAndType(ctx, "alice", domain.TypeTourOperator)
	if err != nil {
		t.Fatalf("GetByOwnerAndType failed: %v", err)
	}
	if got.ID != "p-2" {
		t.Errorf("ID = %q, want %q", got.ID, "p-2")
	}

	_, err = store.Profiles().GetByOwnerAndType(ctx, "bob", domain.TypeHotelManager)
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestProfileUpdateStatusFrom_RoundTripsAuditFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile := domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager)
	profile.Status = domain.StatusUnderReview
	mustCreateProfile(t, store, profile)

	now := time.Now().UTC().Truncate(time.Millisecond)
	reason := "Missing tax ID"
	reviewer := "ruth"

	updated := profile
	updated.Status = domain.StatusRejected
	updated.RejectionReason = &reason
	updated.ReviewedAt = &now
	updated.ReviewedBy = &reviewer

	if err := store.Profiles().UpdateStatusFrom(ctx, updated, domain.StatusUnderReview); err != nil {
		t.Fatalf("UpdateStatusFrom failed: %v", err)
	}

	got, err := store.Profiles().GetByID(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.StatusRejected {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusRejected)
	}
	if got.RejectionReason == nil || *got.RejectionReason != reason {
		t.Error("RejectionReason should round-trip")
	}
	if got.ReviewedBy == nil || *got.ReviewedBy != "ruth" {
		t.Error("ReviewedBy should round-trip")
	}
	if got.ReviewedAt == nil || !got.ReviewedAt.Equal(now) {
		t.Errorf("ReviewedAt = %v, want %v", got.ReviewedAt, now)
	}
}

func TestProfileUpdateStatusFrom_StaleStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile := domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager)
	profile.Status = domain.StatusUnderReview
	mustCreateProfile(t, store, profile)

	// First writer wins.
	approved := profile
	approved.Status = domain.StatusApproved
	if err := store.Profiles().UpdateStatusFrom(ctx, approved, domain.StatusUnderReview); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	// Second writer read the same snapshot and loses the predicate.
	rejected := profile
	rejected.Status = domain.StatusRejected
	err := store.Profiles().UpdateStatusFrom(ctx, rejected, domain.StatusUnderReview)
	if !errors.Is(err, domain.ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus, got %v", err)
	}

	got, _ := store.Profiles().GetByID(ctx, "p-1")
	if got.Status != domain.StatusApproved {
		t.Errorf("Status = %q, want winner's %q", got.Status, domain.StatusApproved)
	}
}

func TestProfileUpdateStatusFrom_NotFound(t *testing.T) {
	store := newTestStore(t)

	profile := domain.NewProviderProfile("ghost", "alice", domain.TypeHotelManager)
	err := store.Profiles().UpdateStatusFrom(context.Background(), profile, domain.StatusNotStarted)
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestProfileListByStatus_OldestSubmissionFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	seed := func(id string, submittedAt *time.Time) {
		p := domain.NewProviderProfile(id, "owner-"+id, domain.TypeHotelManager)
		p.Status = domain.StatusUnderReview
		p.SubmittedAt = submittedAt
		mustCreateProfile(t, store, p)
	}

	late := base.Add(2 * time.Hour)
	early := base.Add(-3 * time.Hour)
	seed("p-late", &late)
	seed("p-early", &early)
	seed("p-unsubmitted", nil)

	profiles, err := store.Profiles().ListByStatus(ctx, []domain.Status{domain.StatusUnderReview}, nil)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("got %d profiles, want 3", len(profiles))
	}

	wantOrder := []string{"p-early", "p-late", "p-unsubmitted"}
	for i, want := range wantOrder {
		if profiles[i].ID != want {
			t.Errorf("profiles[%d].ID = %q, want %q", i, profiles[i].ID, want)
		}
	}
}

func TestProfileListByStatus_TypeFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	hotel := domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager)
	hotel.Status = domain.StatusUnderReview
	mustCreateProfile(t, store, hotel)

	tour := domain.NewProviderProfile("p-2", "bob", domain.TypeTourOperator)
	tour.Status = domain.StatusUnderReview
	mustCreateProfile(t, store, tour)

	filter := domain.TypeTourOperator
	profiles, err := store.Profiles().ListByStatus(ctx, []domain.Status{domain.StatusUnderReview}, &filter)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(profiles) != 1 || profiles[0].ID != "p-2" {
		t.Errorf("got %v, want only p-2", profiles)
	}
}

func TestProfileListByOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreateProfile(t, store, domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager))
	mustCreateProfile(t, store, domain.NewProviderProfile("p-2", "alice", domain.TypeTourOperator))
	mustCreateProfile(t, store, domain.NewProviderProfile("p-3", "bob", domain.TypeHotelManager))

	profiles, err := store.Profiles().ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("got %d profiles, want 2", len(profiles))
	}
}

// Two racing decisions on one profile must produce exactly one winner.
func TestProfileUpdateStatusFrom_ConcurrentDecisions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile := domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager)
	profile.Status = domain.StatusUnderReview
	mustCreateProfile(t, store, profile)

	const writers = 8
	var wg sync.WaitGroup
	results := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			update := profile
			if i%2 == 0 {
				update.Status = domain.StatusApproved
			} else {
				update.Status = domain.StatusRejected
			}
			results[i] = store.Profiles().UpdateStatusFrom(ctx, update, domain.StatusUnderReview)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domain.ErrStaleStatus):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("got %d winners, want exactly 1", winners)
	}
}

// --- ProgressRepository ---

func TestProgressCreate_And_Get(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreateProfile(t, store, domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager))

	progress := domain.NewOnboardingProgress("p-1")
	if err := store.Progress().Create(ctx, progress); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Progress().GetByProviderID(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetByProviderID failed: %v", err)
	}
	if got.CurrentStep != 1 {
		t.Errorf("CurrentStep = %d, want 1", got.CurrentStep)
	}
	if len(got.CompletedSteps) != 0 {
		t.Errorf("CompletedSteps = %v, want empty", got.CompletedSteps)
	}
	if len(got.StepData) != 0 {
		t.Errorf("StepData = %v, want empty", got.StepData)
	}
}

func TestProgressUpdate_RoundTripsStepData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreateProfile(t, store, domain.NewProviderProfile("p-1", "alice", domain.TypeHotelManager))

	progress := domain.NewOnboardingProgress("p-1")
	if err := store.Progress().Create(ctx, progress); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	progress.MarkStepCompleted(1)
	progress.MarkStepCompleted(2)
	progress.StepData["step1"] = json.RawMessage(`{"name":"Sea View Hotel"}`)
	progress.StepData["step2"] = json.RawMessage(`{"rooms":42}`)
	progress.UpdatedAt = time.Now().UTC()

	if err := store.Progress().Update(ctx, progress); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.Progress().GetByProviderID(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetByProviderID failed: %v", err)
	}
	if got.CurrentStep != 2 {
		t.Errorf("CurrentStep = %d, want 2", got.CurrentStep)
	}
	if len(got.CompletedSteps) != 2 {
		t.Errorf("CompletedSteps = %v, want 2 entries", got.CompletedSteps)
	}
	if string(got.StepData["step1"]) != `{"name":"Sea View Hotel"}` {
		t.Errorf("StepData[step1] = %s", got.StepData["step1"])
	}
	if string(got.StepData["step2"]) != `{"rooms":42}` {
		t.Errorf("StepData[step2] = %s", got.StepData["step2"])
	}
}

func TestProgressUpdate_NotFound(t *testing.T) {
	store := newTestStore(t)

	progress := domain.NewOnboardingProgress("ghost")
	err := store.Progress().Update(context.Background(), progress)
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

// --- PackageRepository ---

func seedApprovedProvider(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	p := domain.NewProviderProfile(id, "owner-"+id, domain.TypeTourOperator)
	p.Status = domain.StatusApproved
	mustCreateProfile(t, store, p)
}

func TestPackageCreate_And_GetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedApprovedProvider(t, store, "p-1")

	pkg := domain.NewPackage("pkg-1", "p-1", "Sunset Cruise")
	if err := store.Packages().Create(ctx, pkg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Packages().GetByID(ctx, "pkg-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Sunset Cruise" {
		t.Errorf("Name = %q, want %q", got.Name, "Sunset Cruise")
	}
	if got.Status != domain.PackageDraft {
		t.Errorf("Status = %q, want %q", got.Status, domain.PackageDraft)
	}
	if got.PublishedAt != nil {
		t.Error("PublishedAt should be nil for a draft")
	}
}

func TestPackageGetByID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Packages().GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrPackageNotFound) {
		t.Errorf("expected ErrPackageNotFound, got %v", err)
	}
}

func TestPackageUpdateStatusFrom_Publish(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedApprovedProvider(t, store, "p-1")
	pkg := domain.NewPackage("pkg-1", "p-1", "Sunset Cruise")
	if err := store.Packages().Create(ctx, pkg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	published := pkg
	published.Status = domain.PackagePublished
	published.PublishedAt = &now

	if err := store.Packages().UpdateStatusFrom(ctx, published, domain.PackageDraft); err != nil {
		t.Fatalf("UpdateStatusFrom failed: %v", err)
	}

	got, err := store.Packages().GetByID(ctx, "pkg-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.PackagePublished {
		t.Errorf("Status = %q, want %q", got.Status, domain.PackagePublished)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(now) {
		t.Errorf("PublishedAt = %v, want %v", got.PublishedAt, now)
	}
}

func TestPackageUpdateStatusFrom_Stale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedApprovedProvider(t, store, "p-1")
	pkg := domain.NewPackage("pkg-1", "p-1", "Sunset Cruise")
	if err := store.Packages().Create(ctx, pkg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	archived := pkg
	archived.Status = domain.PackageArchived
	if err := store.Packages().UpdateStatusFrom(ctx, archived, domain.PackageDraft); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	published := pkg
	published.Status = domain.PackagePublished
	err := store.Packages().UpdateStatusFrom(ctx, published, domain.PackageDraft)
	if !errors.Is(err, domain.ErrStaleStatus) {
		t.Errorf("expected ErrStaleStatus, got %v", err)
	}
}

func TestPackageUpdateStatusFrom_NotFound(t *testing.T) {
	store := newTestStore(t)

	pkg := domain.NewPackage("ghost", "p-1", "Ghost Tour")
	err := store.Packages().UpdateStatusFrom(context.Background(), pkg, domain.PackageDraft)
	if !errors.Is(err, domain.ErrPackageNotFound) {
		t.Errorf("expected ErrPackageNotFound, got %v", err)
	}
}

func TestPackageListByProvider(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedApprovedProvider(t, store, "p-1")
	seedApprovedProvider(t, store, "p-2")

	for _, pkg := range []domain.Package{
		domain.NewPackage("pkg-1", "p-1", "City Walk"),
		domain.NewPackage("pkg-2", "p-1", "Sunset Cruise"),
		domain.NewPackage("pkg-3", "p-2", "Wine Tasting"),
	} {
		if err := store.Packages().Create(ctx, pkg); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	packages, err := store.Packages().ListByProvider(ctx, "p-1")
	if err != nil {
		t.Fatalf("ListByProvider failed: %v", err)
	}
	if len(packages) != 2 {
		t.Errorf("got %d packages, want 2", len(packages))
	}
}
