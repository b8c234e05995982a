// Package gate implements the two-tier password gate state machines that
// front every festival page: a viewer gate that challenges for a display
// name plus the shared secret, and an admin gate that challenges for the
// admin secret only.
//
// A gate is driven by one client session. Enter runs on page entry and
// resolves the cached session record; Submit runs the challenge. Both are
// asynchronous I/O boundaries: the gate refuses a second submit while one
// is in flight, and a verify that resolves after Close is a no-op.
package gate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/FestiveLedger/FL-Backend/internal/festival"
	"github.com/FestiveLedger/FL-Backend/internal/logging"
	"github.com/FestiveLedger/FL-Backend/internal/session"
	"github.com/google/uuid"
)

// State is the gate lifecycle position.
type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateVerifying
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

var (
	// ErrNameRequired means the viewer challenge was submitted with an
	// empty (after trim) display name. No store call is made.
	ErrNameRequired = errors.New("visitor name is required")
	// ErrVerifyInFlight rejects a second submit while one is pending.
	ErrVerifyInFlight = errors.New("verification already in flight")
	// ErrClosed reports that the gate was torn down.
	ErrClosed = errors.New("gate closed")
)

// MethodPasswordModal marks a visit that passed the password challenge.
// Accesses that bypass the challenge (no-password tenants) are not logged
// at all, by policy.
const MethodPasswordModal = "password_modal"

// Visit is one successful viewer authentication, handed to the recorder.
type Visit struct {
	FestivalID   uuid.UUID
	VisitorName  string
	Method       string
	PasswordUsed string
	SessionID    string
}

// VisitRecorder appends one audit record per successful viewer
// authentication. Failures are swallowed by the gate; logging never
// blocks a grant the verifier already approved.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, v Visit) error
}

// Clock supplies "now"; tests pin it to cross day boundaries.
type Clock func() time.Time

// gate holds the mechanics shared by both variants.
type gate struct {
	code     string
	kind     festival.Kind
	creds    festival.CredentialStore
	verifier festival.CredentialVerifier
	sessions session.Store
	now      Clock

	mu               sync.Mutex
	state            State
	requiresPassword bool
	gen              uint64
	verifying        bool
	closed           bool
}

func newGate(code string, kind festival.Kind, creds festival.CredentialStore, verifier festival.CredentialVerifier, sessions session.Store, now Clock) gate {
	if now == nil {
		now = time.Now
	}
	return gate{
		code:             code,
		kind:             kind,
		creds:            creds,
		verifier:         verifier,
		sessions:         sessions,
		now:              now,
		state:            StateLoading,
		requiresPassword: true,
	}
}

// State returns the current gate state.
func (g *gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// RequiresPassword reports the tenant flag seen at the last Enter.
func (g *gate) RequiresPassword() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requiresPassword
}

// Close tears the gate down. Any pending verify resolution becomes a
// no-op.
func (g *gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.gen++
}

// Enter resolves the gate state on page entry: fetch the tenant's
// password flag and current credential version, then validate any cached
// session record. An unreachable credential store fails closed.
func (g *gate) Enter(ctx context.Context) (State, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return StateUnauthenticated, ErrClosed
	}
	g.state = StateLoading
	gen := g.gen
	g.mu.Unlock()

	cred, err := g.creds.Credential(ctx, g.code, g.kind)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || gen != g.gen {
		return g.state, ErrClosed
	}

	if err != nil {
		// Fail closed: a cached record is never trusted when the store
		// cannot confirm the current rotation token.
		g.state = StateUnauthenticated
		return g.state, err
	}

	g.requiresPassword = cred.RequiresPassword
	if !cred.RequiresPassword {
		// Open tenant: straight to authenticated, no session write and
		// no access-log call. These tenants forgo visitor analytics.
		g.state = StateAuthenticated
		return g.state, nil
	}

	if rec, ok := g.sessions.Get(g.code, string(g.kind)); ok {
		if rec.Valid(cred.RotatedAt, session.Today(g.now())) {
			g.state = StateAuthenticated
			return g.state, nil
		}
		// Stale or corrupt; drop it so it is not retried on every entry.
		g.sessions.Clear(g.code, string(g.kind))
	}

	g.state = StateUnauthenticated
	return g.state, nil
}

// beginVerify moves to StateVerifying, rejecting concurrent submits.
func (g *gate) beginVerify() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return 0, ErrClosed
	}
	if g.verifying {
		return 0, ErrVerifyInFlight
	}
	g.verifying = true
	g.state = StateVerifying
	return g.gen, nil
}

// stale reports whether a pending verify belongs to a torn-down or reset
// gate instance.
func (g *gate) stale(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed || gen != g.gen
}

// resolve finishes a verify begun at gen, applying fn under the lock.
// Stale resolutions are dropped.
func (g *gate) resolve(gen uint64, fn func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || gen != g.gen {
		return ErrClosed
	}
	g.verifying = false
	fn()
	return nil
}

// submitSecret runs the shared verification flow. onSuccess runs under
// the gate lock with the matched credential.
func (g *gate) submitSecret(ctx context.Context, secret string, preStore func(cred festival.Credential), onSuccess func(cred festival.Credential)) error {
	gen, err := g.beginVerify()
	if err != nil {
		return err
	}

	cred, verr := g.verifier.Verify(ctx, g.code, g.kind, secret)
	if verr != nil {
		if rerr := g.resolve(gen, func() { g.state = StateUnauthenticated }); rerr != nil {
			return rerr
		}
		if errors.Is(verr, festival.ErrBadSecret) {
			// Generic failure regardless of which field was wrong, and
			// no lockout: retries are unlimited.
			return festival.ErrBadSecret
		}
		return verr
	}

	if preStore != nil && !g.stale(gen) {
		preStore(cred)
	}

	return g.resolve(gen, func() {
		g.requiresPassword = cred.RequiresPassword
		onSuccess(cred)
		g.state = StateAuthenticated
	})
}

// NewSessionID generates an opaque session identifier for the audit log.
func NewSessionID() string {
	return uuid.NewString()
}

// logRecordFailure reports a swallowed access-log failure to diagnostics.
func logRecordFailure(code string, err error) {
	logging.Get().Warn().
		Str("festival", code).
		Err(err).
		Msg("access log append failed; grant not blocked")
}

// trimmed reports whether s is empty once surrounding whitespace is
// removed.
func trimmed(s string) bool {
	return strings.TrimSpace(s) != ""
}
