package festival

import (
	"net/http"

	"github.com/FestiveLedger/FL-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the festival module. throttle is applied to the
// verification endpoints only; pass middleware.Throttle(0) to disable.
func SetupRoutes(throttle func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	// Public routes - tenant lookup and credential fetch/verify
	r.Get("/{code}", GetFestival)
	r.Group(func(r chi.Router) {
		r.Use(throttle)
		r.Get("/{code}/credential/{kind}", GetCredential)
		r.Post("/{code}/verify", VerifyCredential)
	})

	// Admin routes - require the festival's admin secret
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminSecret())

		r.Post("/{code}/credential/{kind}/rotate", RotateCredential)
		r.Patch("/{code}", UpdateFestival)
	})

	return r
}
