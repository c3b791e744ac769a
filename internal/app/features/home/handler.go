// internal/app/features/home/handler.go
package home

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves the landing page.
type Handler struct {
	Title string
	Log   *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		Title: "CWC Connect",
		Log:   logger,
	}
}

type pageData struct {
	Title string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – search bar and hierarchy shell                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "home", pageData{Title: h.Title})
}
