package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the local fallback engine. It produces plain text only (no
// table/equation annotations) and accepts images, not PDFs. A gosseract
// client is created per call because the underlying handle is not
// goroutine-safe.
type Tesseract struct{}

// NewTesseract creates a Tesseract engine.
func NewTesseract() *Tesseract {
	return &Tesseract{}
}

// Recognize runs local Tesseract OCR over the image bytes. The prompt and
// token limit are ignored; they only apply to VL backends.
func (t *Tesseract) Recognize(ctx context.Context, mime string, data []byte, prompt string, maxTokens int) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMIME, mime)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("tesseract set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	return text, nil
}

// Info returns backend metadata.
func (t *Tesseract) Info() Info {
	return Info{Backend: "tesseract", Model: "tesseract", Remote: false}
}
