package inference

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"vlocr/internal/config"
)

// Gemini runs recognition against Google's Gemini API. Images and PDFs are
// sent inline with the OCR prompt; PDFs are handled by the model natively,
// so no local rasterization is needed.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini engine from the model configuration.
func NewGemini(ctx context.Context, cfg config.ModelConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini backend requires MODEL_API_KEY")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{client: client, model: cfg.Name}, nil
}

// Recognize sends the document bytes and prompt in a single user turn and
// returns the model's text output.
func (g *Gemini) Recognize(ctx context.Context, mime string, data []byte, prompt string, maxTokens int) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mime),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	var genCfg *genai.GenerateContentConfig
	if maxTokens > 0 {
		genCfg = &genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens)}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}

// Info returns backend metadata.
func (g *Gemini) Info() Info {
	return Info{Backend: "gemini", Model: g.model, Remote: true}
}
