package inference

import (
	"context"
	"errors"
	"fmt"

	"vlocr/internal/config"
)

// Common engine errors.
var (
	ErrUnsupportedMIME = errors.New("unsupported input type for this engine")
	ErrEmptyInput      = errors.New("empty input data")
)

// Info describes the configured inference backend.
type Info struct {
	Backend string `json:"backend"`
	Model   string `json:"model"`
	Remote  bool   `json:"remote"`
}

// Engine is the inference backend that turns a document page (or a whole
// PDF) into annotated text. Implementations must be safe for concurrent use.
type Engine interface {
	// Recognize sends the document bytes to the backend with the OCR prompt
	// and returns the raw annotated text.
	Recognize(ctx context.Context, mime string, data []byte, prompt string, maxTokens int) (string, error)

	// Info returns static backend metadata for the /models endpoint.
	Info() Info
}

// New selects the engine from configuration. The gemini backend requires an
// API key; tesseract runs locally and needs none.
func New(ctx context.Context, cfg config.ModelConfig) (Engine, error) {
	switch cfg.Backend {
	case "gemini":
		return NewGemini(ctx, cfg)
	case "tesseract":
		return NewTesseract(), nil
	default:
		return nil, fmt.Errorf("unknown model backend: %q", cfg.Backend)
	}
}
