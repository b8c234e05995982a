package analytics

import (
	"net/http"

	"github.com/FestiveLedger/FL-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the admin-only visitor report. size overrides the
// report page size; pass 0 for the default.
func SetupRoutes(size int) http.Handler {
	if size > 0 {
		pageSize = size
	}

	r := chi.NewRouter()

	// Everything here requires the festival's admin secret.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminSecret())

		r.Get("/{code}/logs", GetLogs)
		r.Get("/{code}/stats", GetStats)
	})

	return r
}
