package analytics

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/FestiveLedger/FL-Backend/internal/accesslog"
	"github.com/FestiveLedger/FL-Backend/internal/db"
	"github.com/FestiveLedger/FL-Backend/internal/festival"
	"github.com/go-chi/chi/v5"
)

// pageSize is the configured report page size, set by SetupRoutes.
var pageSize = DefaultPageSize

// GetLogs returns one filtered, sorted page of a festival's access log
// plus the chart summary for the filtered set. The whole log is fetched
// and shaped in memory; per-festival logs stay small enough for that.
func GetLogs(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	info, err := festival.NewStore(db.DB).Info(r.Context(), code)
	if err != nil {
		if errors.Is(err, festival.ErrNotFound) {
			http.Error(w, "Festival not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch festival: "+err.Error(), http.StatusInternalServerError)
		return
	}

	entries, err := accesslog.NewRecorder(db.DB).Entries(r.Context(), info.ID)
	if err != nil {
		http.Error(w, "Failed to fetch access logs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	q := Query{
		Search: r.URL.Query().Get("search"),
		Range:  ParseRange(r.URL.Query().Get("range")),
	}
	if m := accesslog.Method(r.URL.Query().Get("method")); m.Valid() {
		q.Method = m
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = p
	}

	filtered := Filter(entries, q, time.Now())
	sorted := Sort(filtered,
		ParseColumn(r.URL.Query().Get("sort")),
		ParseDirection(r.URL.Query().Get("dir")))

	response := struct {
		Page      `json:"page"`
		Summary   Summary `json:"summary"`
		TotalLogs int     `json:"total_logs"`
	}{
		Page:      Paginate(sorted, page, pageSize),
		Summary:   Summarize(filtered, 10),
		TotalLogs: len(entries),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetStats returns the festival's visitor aggregate. When the festival
// does not require a password, analytics are off by design; the payload
// says so explicitly instead of reporting a silent zero.
func GetStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	info, err := festival.NewStore(db.DB).Info(r.Context(), code)
	if err != nil {
		if errors.Is(err, festival.ErrNotFound) {
			http.Error(w, "Festival not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch festival: "+err.Error(), http.StatusInternalServerError)
		return
	}

	stats, err := accesslog.NewRecorder(db.DB).Stats(r.Context(), info.ID)
	if err != nil {
		http.Error(w, "Failed to fetch visitor stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	response := struct {
		accesslog.VisitorStats
		RequiresPassword  bool `json:"requires_password"`
		AnalyticsDisabled bool `json:"analytics_disabled"`
	}{
		VisitorStats:      stats,
		RequiresPassword:  info.RequiresPassword,
		AnalyticsDisabled: !info.RequiresPassword,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
