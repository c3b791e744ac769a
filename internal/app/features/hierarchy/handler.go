// internal/app/features/hierarchy/handler.go
package hierarchy

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler serves the static organisational tree.
type Handler struct {
	Tree []Node
	Log  *zap.Logger
}

// NewHandler loads the embedded tree.
func NewHandler(logger *zap.Logger) (*Handler, error) {
	tree, err := Default()
	if err != nil {
		return nil, err
	}
	return &Handler{Tree: tree, Log: logger}, nil
}

type treeResponse struct {
	Nodes []Node `json:"nodes"`
}

// ServeTree handles GET /api/hierarchy?q=.
func (h *Handler) ServeTree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(treeResponse{Nodes: Filter(h.Tree, r.URL.Query().Get("q"))})
}
