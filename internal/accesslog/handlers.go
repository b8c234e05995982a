package accesslog

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/FestiveLedger/FL-Backend/internal/db"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// AppendLog is the server-side log append procedure. The caller supplies
// the already-normalized visitor name; user agent and client address are
// captured from the request itself. Responds 202: the append either
// happened or the caller's best-effort wrapper will swallow the failure.
func AppendLog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FestivalID   uuid.UUID `json:"festival_id" validate:"required"`
		VisitorName  string    `json:"visitor_name" validate:"required"`
		AccessMethod Method    `json:"access_method" validate:"required,oneof=password_modal direct_link"`
		PasswordUsed string    `json:"password_used"`
		SessionID    string    `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "festival_id, visitor_name and a valid access_method are required", http.StatusBadRequest)
		return
	}

	entry := Entry{
		FestivalID:   req.FestivalID,
		VisitorName:  req.VisitorName,
		AccessMethod: req.AccessMethod,
		PasswordUsed: req.PasswordUsed,
	}
	if req.SessionID != "" {
		entry.SessionID = &req.SessionID
	}
	if ua := r.UserAgent(); ua != "" {
		entry.UserAgent = &ua
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		entry.IPAddress = &host
	}

	if err := instrument(NewRecorder(db.DB).Record(r.Context(), &entry)); err != nil {
		http.Error(w, "Failed to append access log: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id": entry.ID,
	})
}
