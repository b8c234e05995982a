package accesslog

import (
	"context"

	"github.com/FestiveLedger/FL-Backend/internal/gate"
	"github.com/FestiveLedger/FL-Backend/internal/logging"
)

// Sink adapts the Recorder to the gate's VisitRecorder interface for
// deployments where the gate runs in the same process as the database.
type Sink struct {
	Recorder *Recorder
}

func (s Sink) RecordVisit(ctx context.Context, v gate.Visit) error {
	sid := v.SessionID
	entry := Entry{
		FestivalID:   v.FestivalID,
		VisitorName:  v.VisitorName,
		AccessMethod: Method(v.Method),
		PasswordUsed: v.PasswordUsed,
		SessionID:    &sid,
	}
	return instrument(s.Recorder.Record(ctx, &entry))
}

// BestEffort wraps any VisitRecorder so that failures are reported to
// diagnostics and then swallowed. The gate already swallows recorder
// errors itself; this wrapper exists for callers that invoke a recorder
// directly.
type BestEffort struct {
	Next gate.VisitRecorder
}

func (b BestEffort) RecordVisit(ctx context.Context, v gate.Visit) error {
	if err := b.Next.RecordVisit(ctx, v); err != nil {
		logging.Get().Warn().
			Str("visitor", v.VisitorName).
			Err(err).
			Msg("access log append failed")
	}
	return nil
}
