// internal/app/features/chatbot/handler.go
package chatbot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/cwcconnect/internal/app/system/directory"
	"go.uber.org/zap"
)

// maxBody caps the request body; questions are a sentence or two.
const maxBody = 16 << 10

// Answerer produces the chat reply for one question.
type Answerer interface {
	AnswerQuery(ctx context.Context, question string) directory.Answer
}

// Handler serves the chat search endpoint.
type Handler struct {
	Service Answerer
	Log     *zap.Logger
}

func NewHandler(svc Answerer, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, Log: logger}
}

type chatRequest struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ServeChat handles POST /api/chatbot.
//
// "No results" and "store unavailable" are both 200 responses carrying
// guidance text; only a missing message is rejected.
func (h *Handler) ServeChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is required", "details": "request body must be JSON"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is required"})
		return
	}

	h.Log.Debug("chat query received", zap.String("message", req.Message))
	writeJSON(w, http.StatusOK, h.Service.AnswerQuery(r.Context(), req.Message))
}
