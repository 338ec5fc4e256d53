package accessgrants

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Grant

	incrementErr error
	increments   int
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Grant{}}
}

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[g.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byID[id]
	if !ok {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *testRepo) GetActiveByToken(ctx context.Context, token string) (Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.byID {
		if g.AccessToken == token && g.IsActive {
			return g, nil
		}
	}
	return Grant{}, ErrNotFound
}

func (r *testRepo) IncrementAccessCount(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.increments++
	if r.incrementErr != nil {
		return 0, r.incrementErr
	}
	g, ok := r.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	g.AccessCount++
	r.byID[id] = g
	return g.AccessCount, nil
}

func (r *testRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	g.IsActive = active
	g.UpdatedAt = at
	r.byID[id] = g
	return nil
}

func (r *testRepo) get(id string) Grant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// -------------------------
// Tests
// -------------------------

var testNow = time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seed(t *testing.T, repo *testRepo, g Grant) Grant {
	t.Helper()
	if g.OwnerUserID == "" {
		g.OwnerUserID = "owner-1"
	}
	if g.ContentIdentifier == "" {
		g.ContentIdentifier = "QmX"
	}
	if err := repo.Create(context.Background(), g); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return g
}

func TestService_Resolve_NotFound_WhenInactiveOrMissing(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	// inactivo, aunque no venció y tiene password
	seed(t, repo, Grant{ID: "g1", AccessToken: "tok-1", IsActive: false, HasPassword: true, ExpiryTime: testNow.Add(time.Hour)})
	// inactivo y vencido
	seed(t, repo, Grant{ID: "g2", AccessToken: "tok-2", IsActive: false, ExpiryTime: testNow.Add(-time.Hour)})

	for _, tok := range []string{"tok-1", "tok-2", "missing"} {
		_, err := svc.Resolve(context.Background(), tok)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("token %s: expected ErrNotFound, got %v", tok, err)
		}
	}
	if repo.increments != 0 {
		t.Fatalf("expected no increments, got %d", repo.increments)
	}
}

func TestService_Resolve_Expired_EvenIfActive(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	seed(t, repo, Grant{ID: "g1", AccessToken: "tok", IsActive: true, ExpiryTime: testNow.Add(-24 * time.Hour)})

	_, err := svc.Resolve(context.Background(), "tok")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestService_Resolve_ExpiryBoundaryIsInclusive(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	seed(t, repo, Grant{ID: "g1", AccessToken: "tok", IsActive: true, ExpiryTime: testNow})

	res, err := svc.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("expected grant usable at exactly expiry, got %v", err)
	}
	_ = res.WaitCounted(context.Background())
}

func TestService_Resolve_IncrementsExactlyOnce(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	seed(t, repo, Grant{ID: "g1", AccessToken: "tok", IsActive: true, AccessCount: 7, ExpiryTime: testNow.Add(time.Hour)})

	res, err := svc.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if res.MetadataOnly() {
		t.Fatalf("expected content resolution")
	}
	if res.ContentIdentifier() != "QmX" {
		t.Fatalf("expected QmX, got %s", res.ContentIdentifier())
	}
	if err := res.WaitCounted(context.Background()); err != nil {
		t.Fatalf("WaitCounted error: %v", err)
	}
	if got := repo.get("g1").AccessCount; got != 8 {
		t.Fatalf("expected access count 8, got %d", got)
	}
}

func TestService_Resolve_PasswordIsMetadataOnly(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	seed(t, repo, Grant{ID: "g1", AccessToken: "tok", IsActive: true, HasPassword: true, ExpiryTime: testNow.Add(time.Hour)})

	res, err := svc.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !res.MetadataOnly() {
		t.Fatalf("expected metadata-only resolution")
	}
	_ = res.WaitCounted(context.Background())
}

func TestService_Resolve_IncrementFailureDoesNotFailResolution(t *testing.T) {
	repo := newTestRepo()
	repo.incrementErr = errors.New("db down")
	svc := newTestService(repo)

	seed(t, repo, Grant{ID: "g1", AccessToken: "tok", IsActive: true, ExpiryTime: testNow.Add(time.Hour)})

	res, err := svc.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if err := res.WaitCounted(context.Background()); err == nil {
		t.Fatalf("expected increment error to be reported by WaitCounted")
	}
}

func TestService_Resolve_EmptyToken(t *testing.T) {
	svc := newTestService(newTestRepo())
	if _, err := svc.Resolve(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Revoke_OwnerOnly_AndIdempotent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	seed(t, repo, Grant{ID: "g1", AccessToken: "tok", IsActive: true, ExpiryTime: testNow.Add(time.Hour)})

	if _, err := svc.Revoke(context.Background(), "g1", "intruder"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	g, err := svc.Revoke(context.Background(), "g1", "owner-1")
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if g.IsActive {
		t.Fatalf("expected inactive after revoke")
	}

	// idempotente
	g2, err := svc.Revoke(context.Background(), "g1", "owner-1")
	if err != nil || g2.IsActive {
		t.Fatalf("expected idempotent revoke, got %v active=%v", err, g2.IsActive)
	}

	// revocado => el token deja de resolver
	if _, err := svc.Resolve(context.Background(), "tok"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after revoke, got %v", err)
	}

	if _, err := svc.Revoke(context.Background(), "nope", "owner-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestService_Create_IssuesActiveGrant(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	g, err := svc.Create(context.Background(), CreateInput{
		OwnerUserID:       "owner-1",
		ContentIdentifier: " bafyX ",
		ExpiryTime:        testNow.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if g.ID == "" || g.AccessToken == "" || g.ID == g.AccessToken {
		t.Fatalf("expected distinct id and token, got %q %q", g.ID, g.AccessToken)
	}
	if !g.IsActive || g.ContentIdentifier != "bafyX" || g.AccessCount != 0 {
		t.Fatalf("unexpected grant %#v", g)
	}

	if _, err := svc.Create(context.Background(), CreateInput{OwnerUserID: "owner-1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
