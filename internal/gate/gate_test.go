package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FestiveLedger/FL-Backend/internal/festival"
	"github.com/FestiveLedger/FL-Backend/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCode = "ABCDEFGH"

// fakeStore serves one in-memory credential and counts lookups.
type fakeStore struct {
	mu    sync.Mutex
	cred  festival.Credential
	err   error
	calls int
}

func newFakeStore(secret string, requires bool) *fakeStore {
	return &fakeStore{cred: festival.Credential{
		FestivalID:       uuid.New(),
		Secret:           secret,
		RotatedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		RequiresPassword: requires,
	}}
}

func (s *fakeStore) Credential(ctx context.Context, code string, kind festival.Kind) (festival.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return festival.Credential{}, s.err
	}
	return s.cred, nil
}

func (s *fakeStore) Rotate(ctx context.Context, code string, kind festival.Kind, newSecret string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.cred.RotatedAt.Add(time.Hour)
	s.cred.Secret = newSecret
	s.cred.RotatedAt = now
	return now, nil
}

func (s *fakeStore) Info(ctx context.Context, code string) (festival.Info, error) {
	return festival.Info{Code: code, EventName: "Summer Fest"}, nil
}

// fakeRecorder captures visits and optionally fails.
type fakeRecorder struct {
	mu     sync.Mutex
	visits []Visit
	err    error
}

func (r *fakeRecorder) RecordVisit(ctx context.Context, v Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.visits = append(r.visits, v)
	return nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visits)
}

// blockingVerifier parks Verify until released, so tests can observe the
// in-flight window.
type blockingVerifier struct {
	inner   festival.CredentialVerifier
	entered chan struct{}
	release chan struct{}
}

func newBlockingVerifier(inner festival.CredentialVerifier) *blockingVerifier {
	return &blockingVerifier{
		inner:   inner,
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (v *blockingVerifier) Verify(ctx context.Context, code string, kind festival.Kind, secret string) (festival.Credential, error) {
	v.entered <- struct{}{}
	<-v.release
	return v.inner.Verify(ctx, code, kind, secret)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func testViewer(store *fakeStore, rec VisitRecorder, sessions session.Store, now time.Time) *ViewerGate {
	return NewViewerGate(ViewerConfig{
		Code:     testCode,
		Store:    store,
		Verifier: festival.LocalVerifier{Source: store},
		Sessions: sessions,
		Recorder: rec,
		Now:      fixedClock(now),
	})
}

func TestViewerSubmitGrantsAndLogs(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	store := newFakeStore("Festive@123", true)
	rec := &fakeRecorder{}
	sessions := session.NewMemoryStore()
	g := testViewer(store, rec, sessions, now)

	st, err := g.Enter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, st)

	require.NoError(t, g.Submit(context.Background(), " Alice Smith ", "Festive@123"))
	assert.Equal(t, StateAuthenticated, g.State())

	require.Equal(t, 1, rec.count())
	v := rec.visits[0]
	assert.Equal(t, "alice-smith", v.VisitorName)
	assert.Equal(t, MethodPasswordModal, v.Method)
	assert.Equal(t, "Festive@123", v.PasswordUsed)
	assert.NotEmpty(t, v.SessionID)

	stored, ok := sessions.Get(testCode, string(festival.KindViewer))
	require.True(t, ok)
	assert.True(t, stored.Valid(store.cred.RotatedAt, session.Today(now)))
	assert.Equal(t, "alice-smith", stored.VisitorName)
	assert.Equal(t, v.SessionID, stored.SessionID)
}

func TestViewerEnterReusesValidSession(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	store := newFakeStore("Festive@123", true)
	rec := &fakeRecorder{}
	sessions := session.NewMemoryStore()
	g := testViewer(store, rec, sessions, now)

	require.NoError(t, g.Submit(context.Background(), "Alice", "Festive@123"))

	// A second entry the same day rides the cached record.
	g2 := testViewer(store, rec, sessions, now.Add(time.Hour))
	st, err := g2.Enter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, st)
	assert.Equal(t, 1, rec.count(), "re-entry must not append a second visit")
}

func TestViewerSessionExpiresAtDayBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	store := newFakeStore("Festive@123", true)
	sessions := session.NewMemoryStore()
	g := testViewer(store, &fakeRecorder{}, sessions, now)
	require.NoError(t, g.Submit(context.Background(), "Alice", "Festive@123"))

	nextDay := testViewer(store, &fakeRecorder{}, sessions, now.Add(2*time.Hour))
	st, err := nextDay.Enter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, st)

	_, ok := sessions.Get(testCode, string(festival.KindViewer))
	assert.False(t, ok, "expired record is cleared, not retried")
}

func TestRotationInvalidatesSession(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	store := newFakeStore("Festive@123", true)
	sessions := session.NewMemoryStore()
	g := testViewer(store, &fakeRecorder{}, sessions, now)
	require.NoError(t, g.Submit(context.Background(), "Alice", "Festive@123"))

	_, err := store.Rotate(context.Background(), testCode, festival.KindViewer, "NewSecret!9")
	require.NoError(t, err)

	st, err := g.Enter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, st)

	// Old secret is dead, the new one works.
	assert.ErrorIs(t, g.Submit(context.Background(), "Alice", "Festive@123"), festival.ErrBadSecret)
	require.NoError(t, g.Submit(context.Background(), "Alice", "NewSecret!9"))
}

func TestEnterFailsClosedOnStoreError(t *testing.T) {
	store := newFakeStore("Festive@123", true)
	sessions := session.NewMemoryStore()
	now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)

	g := testViewer(store, &fakeRecorder{}, sessions, now)
	require.NoError(t, g.Submit(context.Background(), "Alice", "Festive@123"))

	store.err = errors.New("connection refused")
	st, err := g.Enter(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateUnauthenticated, st, "cached record is not trusted without the current token")
}

func TestOpenTenantBypassesChallengeAndLog(t *testing.T) {
	store := newFakeStore("", false)
	rec := &fakeRecorder{}
	sessions := session.NewMemoryStore()
	g := testViewer(store, rec, sessions, time.Now())

	st, err := g.Enter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, st)
	assert.False(t, g.RequiresPassword())

	assert.Zero(t, rec.count(), "open tenants are never logged")
	_, ok := sessions.Get(testCode, string(festival.KindViewer))
	assert.False(t, ok, "open tenants get no session record")
}

func TestViewerSubmitRequiresName(t *testing.T) {
	store := newFakeStore("Festive@123", true)
	g := testViewer(store, &fakeRecorder{}, session.NewMemoryStore(), time.Now())

	err := g.Submit(context.Background(), "   ", "Festive@123")
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Zero(t, store.calls, "name check happens before any store call")
}

func TestViewerBadSecretAllowsRetry(t *testing.T) {
	store := newFakeStore("Festive@123", true)
	rec := &fakeRecorder{}
	g := testViewer(store, rec, session.NewMemoryStore(), time.Now())

	for i := 0; i < 5; i++ {
		err := g.Submit(context.Background(), "Alice", "wrong")
		assert.ErrorIs(t, err, festival.ErrBadSecret)
		assert.Equal(t, StateUnauthenticated, g.State())
	}
	assert.Zero(t, rec.count(), "failed attempts are never logged")

	require.NoError(t, g.Submit(context.Background(), "Alice", "Festive@123"))
	assert.Equal(t, StateAuthenticated, g.State())
}

func TestConcurrentSubmitRejected(t *testing.T) {
	store := newFakeStore("Festive@123", true)
	bv := newBlockingVerifier(festival.LocalVerifier{Source: store})
	g := NewViewerGate(ViewerConfig{
		Code:     testCode,
		Store:    store,
		Verifier: bv,
		Sessions: session.NewMemoryStore(),
		Now:      fixedClock(time.Now()),
	})

	done := make(chan error, 1)
	go func() { done <- g.Submit(context.Background(), "Alice", "Festive@123") }()
	<-bv.entered
	assert.Equal(t, StateVerifying, g.State())

	err := g.Submit(context.Background(), "Bob", "Festive@123")
	assert.ErrorIs(t, err, ErrVerifyInFlight)

	close(bv.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateAuthenticated, g.State())
}

func TestCloseDropsPendingVerify(t *testing.T) {
	store := newFakeStore("Festive@123", true)
	bv := newBlockingVerifier(festival.LocalVerifier{Source: store})
	sessions := session.NewMemoryStore()
	g := NewViewerGate(ViewerConfig{
		Code:     testCode,
		Store:    store,
		Verifier: bv,
		Sessions: sessions,
		Now:      fixedClock(time.Now()),
	})

	done := make(chan error, 1)
	go func() { done <- g.Submit(context.Background(), "Alice", "Festive@123") }()
	<-bv.entered

	g.Close()
	close(bv.release)

	assert.ErrorIs(t, <-done, ErrClosed)
	_, ok := sessions.Get(testCode, string(festival.KindViewer))
	assert.False(t, ok, "a stale verify writes nothing")
}

func TestRecorderFailureDoesNotBlockGrant(t *testing.T) {
	store := newFakeStore("Festive@123", true)
	rec := &fakeRecorder{err: errors.New("log table unavailable")}
	sessions := session.NewMemoryStore()
	g := testViewer(store, rec, sessions, time.Now())

	require.NoError(t, g.Submit(context.Background(), "Alice", "Festive@123"))
	assert.Equal(t, StateAuthenticated, g.State())
	_, ok := sessions.Get(testCode, string(festival.KindViewer))
	assert.True(t, ok)
}

func TestAdminSubmitStoresSessionWithoutVisitor(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	store := newFakeStore("Admin@456", true)
	sessions := session.NewMemoryStore()
	g := NewAdminGate(AdminConfig{
		Code:     testCode,
		Store:    store,
		Verifier: festival.LocalVerifier{Source: store},
		Sessions: sessions,
		Now:      fixedClock(now),
	})

	info, err := g.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Summer Fest", info.EventName)

	require.NoError(t, g.Submit(context.Background(), "Admin@456"))

	rec, ok := sessions.Get(testCode, string(festival.KindAdmin))
	require.True(t, ok)
	assert.True(t, rec.Valid(store.cred.RotatedAt, session.Today(now)))
	assert.Empty(t, rec.VisitorName)
}

func TestAdminSessionsAreNamespacedFromViewer(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	store := newFakeStore("Secret@789", true)
	sessions := session.NewMemoryStore()

	viewer := testViewer(store, &fakeRecorder{}, sessions, now)
	require.NoError(t, viewer.Submit(context.Background(), "Alice", "Secret@789"))

	admin := NewAdminGate(AdminConfig{
		Code:     testCode,
		Store:    store,
		Verifier: festival.LocalVerifier{Source: store},
		Sessions: sessions,
		Now:      fixedClock(now),
	})
	st, err := admin.Enter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, st, "a viewer session never unlocks the admin gate")
}

func TestAdminEnterWithURLSecret(t *testing.T) {
	store := newFakeStore("Admin@456", true)

	t.Run("correct secret authenticates", func(t *testing.T) {
		g := NewAdminGate(AdminConfig{
			Code:     testCode,
			Store:    store,
			Verifier: festival.LocalVerifier{Source: store},
			Sessions: session.NewMemoryStore(),
			Now:      fixedClock(time.Now()),
		})
		st, err := g.EnterWithSecret(context.Background(), "Admin@456")
		require.NoError(t, err)
		assert.Equal(t, StateAuthenticated, st)
	})

	t.Run("wrong secret falls back to challenge form", func(t *testing.T) {
		g := NewAdminGate(AdminConfig{
			Code:     testCode,
			Store:    store,
			Verifier: festival.LocalVerifier{Source: store},
			Sessions: session.NewMemoryStore(),
			Now:      fixedClock(time.Now()),
		})
		st, err := g.EnterWithSecret(context.Background(), "wrong")
		require.NoError(t, err, "a bad URL secret is not an error")
		assert.Equal(t, StateUnauthenticated, st)
	})
}

func TestNormalizeVisitorName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{" Alice Smith ", "alice-smith"},
		{"BOB", "bob"},
		{"mary   jane   watson", "mary-jane-watson"},
		{"Łukasz Nowak", "łukasz-nowak"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeVisitorName(tc.in), "input %q", tc.in)
	}
}
