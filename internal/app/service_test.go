package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/motorsouq/listings/internal/app"
	"github.com/motorsouq/listings/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	listings map[string]domain.Listing
	writes   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{listings: make(map[string]domain.Listing)}
}

func (m *mockRepo) Create(_ context.Context, l domain.Listing) error {
	m.listings[l.ID] = l
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (domain.Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	return l, nil
}

func (m *mockRepo) List(_ context.Context, _ domain.ListFilter) ([]domain.Listing, error) {
	out := make([]domain.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		out = append(out, l)
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, l domain.Listing, expected domain.Status) error {
	stored, ok := m.listings[l.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if stored.Status != expected {
		return domain.ErrStaleListing
	}
	m.listings[l.ID] = l
	m.writes++
	return nil
}

type mockUsers struct {
	users map[string]domain.User
}

func newMockUsers(users ...domain.User) *mockUsers {
	m := &mockUsers{users: make(map[string]domain.User)}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (m *mockUsers) CreateUser(_ context.Context, u domain.User) error {
	m.users[u.Username] = u
	return nil
}

func (m *mockUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	u, ok := m.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

type mockPublisher struct {
	events []domain.Event
	fail   error
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event) error {
	if m.fail != nil {
		return m.fail
	}
	m.events = append(m.events, e)
	return nil
}

// tableValidator resolves transitions straight from the domain table;
// the looplab adapter has its own tests.
type tableValidator struct{}

func (v *tableValidator) Apply(_ context.Context, current domain.Status, action domain.Action) (domain.Status, error) {
	for _, tr := range domain.Transitions {
		if tr.Action == action && tr.Src == current {
			return tr.Dst, nil
		}
	}
	return "", &domain.TransitionError{Action: action, Current: current}
}

// --- Fixture ---

type fixture struct {
	repo *mockRepo
	pub  *mockPublisher
	svc  *app.ListingService
}

// newFixture wires a service with users "amal" (u-1) and "rival" (u-2)
// and one listing l-1 owned by amal in the given state.
func newFixture(t *testing.T, status domain.Status) *fixture {
	t.Helper()

	repo := newMockRepo()
	users := newMockUsers(
		domain.NewUser("u-1", "amal", "amal@example.com"),
		domain.NewUser("u-2", "rival", "rival@example.com"),
	)
	pub := &mockPublisher{}
	svc := app.NewListingService(repo, users, pub, &tableValidator{})

	listing := domain.NewListing("l-1", "u-1", "2018 Civic", "Honda", "Civic", 2018, 9800)
	listing.Status = status
	repo.listings["l-1"] = listing

	return &fixture{repo: repo, pub: pub, svc: svc}
}

func assertConflict(t *testing.T, err error, reason domain.Reason) {
	t.Helper()
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Reason != reason {
		t.Errorf("reason = %q, want %q", conflict.Reason, reason)
	}
}

// --- Approve ---

func TestApprove_PendingSucceedsExactlyOnce(t *testing.T) {
	f := newFixture(t, domain.StatusPending)
	ctx := context.Background()

	listing, err := f.svc.Approve(ctx, "l-1")
	if err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	if listing.Status != domain.StatusActive {
		t.Errorf("Status = %q, want %q", listing.Status, domain.StatusActive)
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Kind != domain.EventListingApproved {
		t.Fatalf("expected one %q event, got %+v", domain.EventListingApproved, f.pub.events)
	}

	_, err = f.svc.Approve(ctx, "l-1")
	assertConflict(t, err, domain.ReasonAlreadyApproved)
	if len(f.pub.events) != 1 {
		t.Errorf("second approve emitted an event")
	}
}

// --- MarkSold ---

func TestMarkSold_OwnerIsIdempotent(t *testing.T) {
	f := newFixture(t, domain.StatusActive)
	ctx := context.Background()

	first, err := f.svc.MarkSold(ctx, "l-1", domain.Owner("amal"))
	if err != nil {
		t.Fatalf("first mark_sold failed: %v", err)
	}
	if first.Status != domain.StatusSold {
		t.Errorf("Status = %q, want %q", first.Status, domain.StatusSold)
	}

	second, err := f.svc.MarkSold(ctx, "l-1", domain.Owner("amal"))
	if err != nil {
		t.Fatalf("repeated mark_sold failed: %v", err)
	}
	if second.Status != domain.StatusSold {
		t.Errorf("repeat Status = %q, want %q", second.Status, domain.StatusSold)
	}

	if f.repo.writes != 1 {
		t.Errorf("writes = %d, want 1 (repeat must not persist)", f.repo.writes)
	}
	if len(f.pub.events) != 1 {
		t.Fatalf("events = %d, want 1 (repeat must not publish)", len(f.pub.events))
	}
	if f.pub.events[0].Kind != domain.EventListingMarkedSold {
		t.Errorf("event = %q, want %q", f.pub.events[0].Kind, domain.EventListingMarkedSold)
	}
	if f.pub.events[0].Admin {
		t.Error("owner-path event should have Admin=false")
	}
}

func TestMarkSold_AdminRepeatConflicts(t *testing.T) {
	f := newFixture(t, domain.StatusActive)
	ctx := context.Background()

	listing, err := f.svc.MarkSold(ctx, "l-1", domain.Admin())
	if err != nil {
		t.Fatalf("admin mark_sold failed: %v", err)
	}
	if listing.Status != domain.StatusSold {
		t.Errorf("Status = %q, want %q", listing.Status, domain.StatusSold)
	}
	if len(f.pub.events) != 1 || !f.pub.events[0].Admin {
		t.Fatalf("expected one admin event, got %+v", f.pub.events)
	}

	_, err = f.svc.MarkSold(ctx, "l-1", domain.Admin())
	assertConflict(t, err, domain.ReasonAlreadySold)
	if len(f.pub.events) != 1 {
		t.Errorf("conflicting repeat emitted an event")
	}
}

func TestMarkSold_FromPaused(t *testing.T) {
	f := newFixture(t, domain.StatusPaused)

	listing, err := f.svc.MarkSold(context.Background(), "l-1", domain.Owner("amal"))
	if err != nil {
		t.Fatalf("mark_sold from paused failed: %v", err)
	}
	if listing.Status != domain.StatusSold {
		t.Errorf("Status = %q, want %q", listing.Status, domain.StatusSold)
	}
}

// --- Archive / Unarchive ---

func TestArchive_ThenUnarchive_RestoresActive(t *testing.T) {
	f := newFixture(t, domain.StatusActive)
	ctx := context.Background()

	archived, err := f.svc.Archive(ctx, "l-1", domain.Owner("amal"))
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archived.Status != domain.StatusArchived {
		t.Errorf("Status = %q, want %q", archived.Status, domain.StatusArchived)
	}

	restored, err := f.svc.Unarchive(ctx, "l-1", domain.Owner("amal"))
	if err != nil {
		t.Fatalf("unarchive failed: %v", err)
	}
	if restored.Status != domain.StatusActive {
		t.Errorf("Status = %q, want %q", restored.Status, domain.StatusActive)
	}

	wantKinds := []domain.EventKind{domain.EventListingArchived, domain.EventListingUnarchived}
	if len(f.pub.events) != len(wantKinds) {
		t.Fatalf("events = %d, want %d", len(f.pub.events), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if f.pub.events[i].Kind != kind {
			t.Errorf("event[%d] = %q, want %q", i, f.pub.events[i].Kind, kind)
		}
	}
}

func TestArchive_ThenUnarchive_RestoresPaused(t *testing.T) {
	f := newFixture(t, domain.StatusPaused)
	ctx := context.Background()

	archived, err := f.svc.Archive(ctx, "l-1", domain.Owner("amal"))
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archived.Status != domain.StatusArchivedPaused {
		t.Errorf("Status = %q, want %q", archived.Status, domain.StatusArchivedPaused)
	}

	restored, err := f.svc.Unarchive(ctx, "l-1", domain.Owner("amal"))
	if err != nil {
		t.Fatalf("unarchive failed: %v", err)
	}
	// The pre-archive visibility comes back, not a blanket "active".
	if restored.Status != domain.StatusPaused {
		t.Errorf("Status = %q, want %q", restored.Status, domain.StatusPaused)
	}
}

func TestArchive_SoldListingConflicts(t *testing.T) {
	f := newFixture(t, domain.StatusSold)

	_, err := f.svc.Archive(context.Background(), "l-1", domain.Owner("amal"))
	assertConflict(t, err, domain.ReasonListingSold)
	if f.repo.writes != 0 {
		t.Errorf("writes = %d, want 0", f.repo.writes)
	}
}

func TestArchive_OwnerRepeatIsNoOp_AdminRepeatConflicts(t *testing.T) {
	f := newFixture(t, domain.StatusArchived)
	ctx := context.Background()

	listing, err := f.svc.Archive(ctx, "l-1", domain.Owner("amal"))
	if err != nil {
		t.Fatalf("owner repeat archive should be a no-op, got %v", err)
	}
	if listing.Status != domain.StatusArchived {
		t.Errorf("Status = %q, want %q", listing.Status, domain.StatusArchived)
	}
	if f.repo.writes != 0 || len(f.pub.events) != 0 {
		t.Errorf("no-op must not write (%d) or publish (%d)", f.repo.writes, len(f.pub.events))
	}

	_, err = f.svc.Archive(ctx, "l-1", domain.Admin())
	assertConflict(t, err, domain.ReasonAlreadyArchived)
}

func TestUnarchive_NotArchivedIsHardForOwner(t *testing.T) {
	f := newFixture(t, domain.StatusActive)

	_, err := f.svc.Unarchive(context.Background(), "l-1", domain.Owner("amal"))
	assertConflict(t, err, domain.ReasonNotArchived)
}

// --- Pause / Resume ---

func TestPause_Resume_NoEvents(t *testing.T) {
	f := newFixture(t, domain.StatusActive)
	ctx := context.Background()

	paused, err := f.svc.Pause(ctx, "l-1", "amal")
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if paused.Status != domain.StatusPaused {
		t.Errorf("Status = %q, want %q", paused.Status, domain.StatusPaused)
	}

	resumed, err := f.svc.Resume(ctx, "l-1", "amal")
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed.Status != domain.StatusActive {
		t.Errorf("Status = %q, want %q", resumed.Status, domain.StatusActive)
	}

	if len(f.pub.events) != 0 {
		t.Errorf("pause/resume published %d events, want 0", len(f.pub.events))
	}
	if f.repo.writes != 2 {
		t.Errorf("writes = %d, want 2", f.repo.writes)
	}
}

func TestPause_SoldListingConflicts(t *testing.T) {
	f := newFixture(t, domain.StatusSold)

	_, err := f.svc.Pause(context.Background(), "l-1", "amal")
	assertConflict(t, err, domain.ReasonListingSold)
}

func TestPause_RepeatIsNoOp(t *testing.T) {
	f := newFixture(t, domain.StatusPaused)

	listing, err := f.svc.Pause(context.Background(), "l-1", "amal")
	if err != nil {
		t.Fatalf("repeat pause should be a no-op, got %v", err)
	}
	if listing.Status != domain.StatusPaused {
		t.Errorf("Status = %q, want %q", listing.Status, domain.StatusPaused)
	}
	if f.repo.writes != 0 {
		t.Errorf("writes = %d, want 0", f.repo.writes)
	}
}

// --- Expire ---

func TestExpire_FromPending(t *testing.T) {
	f := newFixture(t, domain.StatusPending)

	listing, err := f.svc.Expire(context.Background(), "l-1")
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if listing.Status != domain.StatusExpired {
		t.Errorf("Status = %q, want %q", listing.Status, domain.StatusExpired)
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Kind != domain.EventListingExpired {
		t.Fatalf("expected one %q event, got %+v", domain.EventListingExpired, f.pub.events)
	}
}

func TestExpire_RepeatConflicts(t *testing.T) {
	f := newFixture(t, domain.StatusExpired)

	_, err := f.svc.Expire(context.Background(), "l-1")
	assertConflict(t, err, domain.ReasonAlreadyExpired)
}

// --- Authorization ---

func TestOwnerPath_NonOwnerForbidden(t *testing.T) {
	ctx := context.Background()

	// Every owner-path action, each from a state where it would succeed
	// for the real owner. The record must never change.
	cases := []struct {
		name   string
		status domain.Status
		call   func(f *fixture) error
	}{
		{"mark_sold", domain.StatusActive, func(f *fixture) error {
			_, err := f.svc.MarkSold(ctx, "l-1", domain.Owner("rival"))
			return err
		}},
		{"archive", domain.StatusActive, func(f *fixture) error {
			_, err := f.svc.Archive(ctx, "l-1", domain.Owner("rival"))
			return err
		}},
		{"unarchive", domain.StatusArchived, func(f *fixture) error {
			_, err := f.svc.Unarchive(ctx, "l-1", domain.Owner("rival"))
			return err
		}},
		{"pause", domain.StatusActive, func(f *fixture) error {
			_, err := f.svc.Pause(ctx, "l-1", "rival")
			return err
		}},
		{"resume", domain.StatusPaused, func(f *fixture) error {
			_, err := f.svc.Resume(ctx, "l-1", "rival")
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.status)

			err := tc.call(f)
			var forbidden *domain.ForbiddenError
			if !errors.As(err, &forbidden) {
				t.Fatalf("expected ForbiddenError, got %v", err)
			}
			if forbidden.OwnerID != "u-1" || forbidden.ActorID != "u-2" {
				t.Errorf("identities = owner %q actor %q, want u-1 and u-2", forbidden.OwnerID, forbidden.ActorID)
			}

			if f.repo.writes != 0 || len(f.pub.events) != 0 {
				t.Errorf("forbidden call mutated: writes=%d events=%d", f.repo.writes, len(f.pub.events))
			}
			if f.repo.listings["l-1"].Status != tc.status {
				t.Errorf("status changed to %q", f.repo.listings["l-1"].Status)
			}
		})
	}
}

func TestOwnerPath_UnknownUser(t *testing.T) {
	f := newFixture(t, domain.StatusActive)

	_, err := f.svc.Pause(context.Background(), "l-1", "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

// --- Failure modes ---

func TestApply_ListingNotFound(t *testing.T) {
	f := newFixture(t, domain.StatusActive)

	_, err := f.svc.Approve(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrListingNotFound) {
		t.Errorf("expected ErrListingNotFound, got %v", err)
	}
}

func TestApply_PublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t, domain.StatusPending)
	f.pub.fail = errors.New("queue unavailable")

	listing, err := f.svc.Approve(context.Background(), "l-1")
	if err != nil {
		t.Fatalf("approve failed despite fire-and-forget events: %v", err)
	}
	if listing.Status != domain.StatusActive {
		t.Errorf("Status = %q, want %q", listing.Status, domain.StatusActive)
	}
	if f.repo.listings["l-1"].Status != domain.StatusActive {
		t.Errorf("state change was not persisted")
	}
}

// racingRepo flips the stored status after the service has loaded the
// listing, simulating a concurrent transition between load and write.
type racingRepo struct {
	*mockRepo
	raceTo domain.Status
}

func (r *racingRepo) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	loaded, err := r.mockRepo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	stored := r.listings[id]
	stored.Status = r.raceTo
	r.listings[id] = stored
	return loaded, nil
}

func TestApply_StaleWriteSurfaces(t *testing.T) {
	repo := newMockRepo()
	users := newMockUsers(domain.NewUser("u-1", "amal", "amal@example.com"))
	svc := app.NewListingService(
		&racingRepo{mockRepo: repo, raceTo: domain.StatusExpired},
		users, &mockPublisher{}, &tableValidator{},
	)
	repo.listings["l-1"] = domain.NewListing("l-1", "u-1", "2018 Civic", "Honda", "Civic", 2018, 9800)

	_, err := svc.Approve(context.Background(), "l-1")
	if !errors.Is(err, domain.ErrStaleListing) {
		t.Errorf("expected ErrStaleListing, got %v", err)
	}
}

// --- Scenario walks ---

// A listing's full owner journey: approve, pause, resume, sell, then a
// late archive attempt that loses to the terminal sold state.
func TestScenario_OwnerJourney(t *testing.T) {
	f := newFixture(t, domain.StatusPending)
	ctx := context.Background()

	if _, err := f.svc.Approve(ctx, "l-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.Pause(ctx, "l-1", "amal"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := f.svc.Resume(ctx, "l-1", "amal"); err != nil {
		t.Fatalf("resume: %v", err)
	}

	sold, err := f.svc.MarkSold(ctx, "l-1", domain.Owner("amal"))
	if err != nil {
		t.Fatalf("mark_sold: %v", err)
	}
	if sold.Status != domain.StatusSold {
		t.Errorf("Status = %q, want %q", sold.Status, domain.StatusSold)
	}

	_, err = f.svc.Archive(ctx, "l-1", domain.Owner("amal"))
	assertConflict(t, err, domain.ReasonListingSold)

	// approve + mark_sold events only; pause/resume are silent.
	wantKinds := []domain.EventKind{domain.EventListingApproved, domain.EventListingMarkedSold}
	if len(f.pub.events) != len(wantKinds) {
		t.Fatalf("events = %d, want %d", len(f.pub.events), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if f.pub.events[i].Kind != kind {
			t.Errorf("event[%d] = %q, want %q", i, f.pub.events[i].Kind, kind)
		}
	}
	if f.pub.events[1].Admin {
		t.Error("owner sale recorded as admin-initiated")
	}
}

// An admin forces a sale; the repeat is an operator error.
func TestScenario_AdminForcedSale(t *testing.T) {
	f := newFixture(t, domain.StatusPending)
	ctx := context.Background()

	if _, err := f.svc.Approve(ctx, "l-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	sold, err := f.svc.MarkSold(ctx, "l-1", domain.Admin())
	if err != nil {
		t.Fatalf("admin mark_sold: %v", err)
	}
	if sold.Status != domain.StatusSold {
		t.Errorf("Status = %q, want %q", sold.Status, domain.StatusSold)
	}
	if !f.pub.events[len(f.pub.events)-1].Admin {
		t.Error("admin sale recorded as owner-initiated")
	}

	eventsBefore := len(f.pub.events)
	_, err = f.svc.MarkSold(ctx, "l-1", domain.Admin())
	assertConflict(t, err, domain.ReasonAlreadySold)
	if len(f.pub.events) != eventsBefore {
		t.Error("conflicting repeat emitted an event")
	}
}

// --- Users and creation plumbing ---

func TestRegisterUser_DuplicateUsername(t *testing.T) {
	f := newFixture(t, domain.StatusPending)
	ctx := context.Background()

	_, err := f.svc.RegisterUser(ctx, "amal", "other@example.com")
	var conflict *domain.UsernameConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected UsernameConflictError, got %v", err)
	}
	if conflict.Username != "amal" {
		t.Errorf("username = %q, want %q", conflict.Username, "amal")
	}
}

func TestCreate_SetsOwnerAndPending(t *testing.T) {
	f := newFixture(t, domain.StatusPending)

	listing, err := f.svc.Create(context.Background(), "amal", "2021 Tucson", "Hyundai", "Tucson", 2021, 21000)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if listing.OwnerID != "u-1" {
		t.Errorf("OwnerID = %q, want %q", listing.OwnerID, "u-1")
	}
	if listing.Status != domain.StatusPending {
		t.Errorf("Status = %q, want %q", listing.Status, domain.StatusPending)
	}
	if listing.ID == "" {
		t.Error("ID should not be empty")
	}
	if len(f.pub.events) != 0 {
		t.Errorf("create published %d events, want 0", len(f.pub.events))
	}
}

func TestCreate_UnknownOwner(t *testing.T) {
	f := newFixture(t, domain.StatusPending)

	_, err := f.svc.Create(context.Background(), "ghost", "title", "", "", 0, 0)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
