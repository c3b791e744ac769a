// internal/app/features/chatbot/routes.go
package chatbot

import (
	"github.com/dalemusser/cwcconnect/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/chatbot. limiter may be nil.
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.With(ratelimit.Middleware(limiter)).Post("/", h.ServeChat)
	return r
}
