// internal/app/features/hierarchy/routes.go
package hierarchy

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeTree)
	return r
}
