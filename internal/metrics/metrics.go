// Package metrics defines the custom Prometheus metrics for the festival
// backend. It is the single source of truth for metric names, labels, and
// help strings; promauto registers everything with the default registry at
// package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "festival"

// VerifyAttemptsTotal counts credential verification attempts.
// Labels:
//   - kind: gate kind ("viewer" or "admin")
//   - outcome: "ok", "bad_secret", or "error"
var VerifyAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verify_attempts_total",
		Help:      "Total number of credential verification attempts.",
	},
	[]string{"kind", "outcome"},
)

// AccessLogAppendsTotal counts visitor access-log appends.
// Label:
//   - outcome: "ok" or "error" (errors are swallowed, never surfaced to
//     the visitor, so this counter is the only place they are visible)
var AccessLogAppendsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_log_appends_total",
		Help:      "Total number of access-log append operations.",
	},
	[]string{"outcome"},
)

// CredentialRotationsTotal counts credential rotations by gate kind.
var CredentialRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_rotations_total",
		Help:      "Total number of credential rotations.",
	},
	[]string{"kind"},
)
