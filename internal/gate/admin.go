package gate

import (
	"context"
	"errors"

	"github.com/FestiveLedger/FL-Backend/internal/festival"
	"github.com/FestiveLedger/FL-Backend/internal/session"
)

// AdminGate fronts the admin surface. Its challenge takes only the admin
// shared secret; successful admin unlocks are not written to the visitor
// access log.
type AdminGate struct {
	gate
}

type AdminConfig struct {
	Code     string
	Store    festival.CredentialStore
	Verifier festival.CredentialVerifier
	Sessions session.Store
	Now      Clock
}

func NewAdminGate(cfg AdminConfig) *AdminGate {
	return &AdminGate{
		gate: newGate(cfg.Code, festival.KindAdmin, cfg.Store, cfg.Verifier, cfg.Sessions, cfg.Now),
	}
}

// Info returns the non-sensitive festival summary so the operator can
// confirm they are unlocking the right tenant before authenticating.
func (g *AdminGate) Info(ctx context.Context) (festival.Info, error) {
	return g.creds.Info(ctx, g.code)
}

// Submit runs the admin challenge.
func (g *AdminGate) Submit(ctx context.Context, secret string) error {
	return g.submitSecret(ctx, secret, nil, func(cred festival.Credential) {
		if !cred.RequiresPassword {
			return
		}
		g.sessions.Put(g.code, string(g.kind), session.New(cred.RotatedAt, g.now()))
	})
}

// EnterWithSecret runs Enter and, when still unauthenticated, attempts a
// URL-carried secret (the shareable admin link's ?p= parameter). A wrong
// URL secret leaves the gate at the challenge form without an error.
func (g *AdminGate) EnterWithSecret(ctx context.Context, urlSecret string) (State, error) {
	st, err := g.Enter(ctx)
	if err != nil || st == StateAuthenticated || urlSecret == "" {
		return st, err
	}

	if err := g.Submit(ctx, urlSecret); err != nil {
		if errors.Is(err, festival.ErrBadSecret) {
			return g.State(), nil
		}
		return g.State(), err
	}
	return g.State(), nil
}
