package gate

import (
	"context"

	"github.com/FestiveLedger/FL-Backend/internal/festival"
	"github.com/FestiveLedger/FL-Backend/internal/session"
)

// ViewerGate fronts the public festival pages. Its challenge takes a
// visitor display name and the viewer shared secret; each successful
// challenge is appended to the access log before the session record is
// written.
type ViewerGate struct {
	gate
	recorder VisitRecorder
}

// ViewerConfig wires a viewer gate. Recorder may be nil, in which case
// nothing is logged (useful for previews).
type ViewerConfig struct {
	Code     string
	Store    festival.CredentialStore
	Verifier festival.CredentialVerifier
	Sessions session.Store
	Recorder VisitRecorder
	Now      Clock
}

func NewViewerGate(cfg ViewerConfig) *ViewerGate {
	return &ViewerGate{
		gate:     newGate(cfg.Code, festival.KindViewer, cfg.Store, cfg.Verifier, cfg.Sessions, cfg.Now),
		recorder: cfg.Recorder,
	}
}

// Submit runs the viewer challenge. The name must be non-empty after
// trimming; the secret is compared exactly. On success the visit is
// logged best-effort, the session record stored, and the gate becomes
// authenticated.
func (g *ViewerGate) Submit(ctx context.Context, visitorName, secret string) error {
	if !trimmed(visitorName) {
		return ErrNameRequired
	}

	normalized := NormalizeVisitorName(visitorName)
	sessionID := NewSessionID()

	preStore := func(cred festival.Credential) {
		if g.recorder == nil || !cred.RequiresPassword {
			return
		}
		visit := Visit{
			FestivalID:   cred.FestivalID,
			VisitorName:  normalized,
			Method:       MethodPasswordModal,
			PasswordUsed: secret,
			SessionID:    sessionID,
		}
		if err := g.recorder.RecordVisit(ctx, visit); err != nil {
			// Best effort only: the verifier already granted access.
			logRecordFailure(g.code, err)
		}
	}

	return g.submitSecret(ctx, secret, preStore, func(cred festival.Credential) {
		if !cred.RequiresPassword {
			return
		}
		rec := session.New(cred.RotatedAt, g.now())
		rec.VisitorName = normalized
		rec.SessionID = sessionID
		g.sessions.Put(g.code, string(g.kind), rec)
	})
}
