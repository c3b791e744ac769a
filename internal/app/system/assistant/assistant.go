// internal/app/system/assistant/assistant.go
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/cwcconnect/internal/app/system/htmlsanitize"
	"go.uber.org/zap"
)

// Provider names accepted by New.
const (
	ProviderNone   = "none"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// ErrEmptyReply is returned when a provider answers with no usable text.
var ErrEmptyReply = errors.New("assistant returned an empty reply")

// Augmenter rephrases a deterministic directory summary into a
// conversational answer. Implementations are best effort: callers always keep
// the summary as the fallback.
type Augmenter interface {
	Name() string
	Rephrase(ctx context.Context, question, summary string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider     string
	OllamaURL    string
	OllamaModel  string
	GeminiAPIKey string
	GeminiModel  string
}

// KnownProvider reports whether name is a provider New understands.
func KnownProvider(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderNone, ProviderOllama, ProviderGemini:
		return true
	}
	return false
}

// New builds the configured Augmenter. It returns nil, nil when augmentation
// is disabled.
func New(ctx context.Context, cfg Config, client *http.Client, logger *zap.Logger) (Augmenter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderNone:
		return nil, nil
	case ProviderOllama:
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel, client, logger), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", cfg.Provider)
	}
}

// BuildPrompt combines the user's question with the directory summary.
func BuildPrompt(question, summary string) string {
	var b strings.Builder
	b.WriteString("User question: ")
	b.WriteString(question)
	b.WriteString("\n\nEmployee Information from CWC Database:\n")
	b.WriteString(summary)
	b.WriteString("\n\nPlease provide a helpful, conversational response about the CWC employees based on the information above.")
	return b.String()
}

// Clean strips markup from generated text. An empty result is ErrEmptyReply.
func Clean(reply string) (string, error) {
	out := htmlsanitize.StripTags(reply)
	if out == "" {
		return "", ErrEmptyReply
	}
	return out, nil
}
