package festival

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/FestiveLedger/FL-Backend/internal/db"
	"github.com/FestiveLedger/FL-Backend/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func store() *Store { return NewStore(db.DB) }

// GetFestival returns the public festival summary plus both rotation
// tokens. No secrets in this payload.
func GetFestival(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	s := store()
	f, err := s.byCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Festival not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch festival: "+err.Error(), http.StatusInternalServerError)
		return
	}

	viewerCred, _ := f.credential(KindViewer)
	adminCred, _ := f.credential(KindAdmin)

	response := struct {
		Info
		ViewerRotatedAt time.Time `json:"viewer_rotated_at"`
		AdminRotatedAt  time.Time `json:"admin_rotated_at"`
	}{
		Info:            f.info(),
		ViewerRotatedAt: viewerCred.RotatedAt,
		AdminRotatedAt:  adminCred.RotatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetCredential returns the stored secret, its rotation token and the
// password flag for one gate kind. This is the wire contract the
// client-compare verifier depends on: the comparison happens on the
// caller's side, so the secret is transmitted to the client. Deployments
// that want the comparison server-side use POST /{code}/verify instead.
func GetCredential(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, "Unknown credential kind", http.StatusBadRequest)
		return
	}

	cred, err := store().Credential(r.Context(), code, kind)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Festival not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch credential: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cred)
}

// VerifyCredential compares a submitted secret server-side. 200 with the
// rotation token on match, 401 on mismatch. The 401 body is the same
// generic message for every failure mode short of an unknown code.
func VerifyCredential(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req struct {
		Kind   string `json:"kind" validate:"required,oneof=viewer admin"`
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "kind must be viewer or admin", http.StatusBadRequest)
		return
	}
	kind := Kind(req.Kind)

	cred, err := LocalVerifier{Source: store()}.Verify(r.Context(), code, kind, req.Secret)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "Festival not found", http.StatusNotFound)
		case errors.Is(err, ErrBadSecret):
			metrics.VerifyAttemptsTotal.WithLabelValues(string(kind), "bad_secret").Inc()
			http.Error(w, "Verification failed", http.StatusUnauthorized)
		default:
			metrics.VerifyAttemptsTotal.WithLabelValues(string(kind), "error").Inc()
			http.Error(w, "Failed to verify credential", http.StatusInternalServerError)
		}
		return
	}
	metrics.VerifyAttemptsTotal.WithLabelValues(string(kind), "ok").Inc()

	// Never echo the secret back from this endpoint.
	cred.Secret = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cred)
}

// RotateCredential sets a new secret and bumps its rotation timestamp,
// which silently invalidates every outstanding session for that kind.
func RotateCredential(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, "Unknown credential kind", http.StatusBadRequest)
		return
	}

	var req struct {
		Secret string `json:"secret" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "secret is required", http.StatusBadRequest)
		return
	}

	rotatedAt, err := store().Rotate(r.Context(), code, kind, req.Secret)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Festival not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to rotate credential: "+err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.CredentialRotationsTotal.WithLabelValues(string(kind)).Inc()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rotated_at": rotatedAt,
	})
}

// UpdateFestival handles the admin edit surface. Only the password flag is
// mutable here; event metadata edits belong to the ledger app.
func UpdateFestival(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var updates struct {
		RequiresPassword *bool `json:"requires_password,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if updates.RequiresPassword == nil {
		http.Error(w, "requires_password is required", http.StatusBadRequest)
		return
	}

	if err := store().SetRequiresPassword(r.Context(), code, *updates.RequiresPassword); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Festival not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update festival: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
