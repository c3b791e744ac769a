// internal/app/features/employees/routes.go
package employees

import "github.com/go-chi/chi/v5"

// Routes mounts under /api/employees.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/sync/manual", h.ServeManualSync)
	r.Get("/sync/api", h.ServeAPISync)
	r.Get("/sync/status", h.ServeStatus)
	return r
}
