package driven

import "context"

// GenerationParams are sampling parameters for the downstream model.
type GenerationParams struct {
	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Temperature controls sampling randomness (0.0-1.0).
	Temperature float64
}

// Generator produces answers from assembled prompts. This is an
// optional collaborator: the core never invokes it directly, only the
// orchestrating QueryService does, and only with a context that fits
// the configured token budget.
type Generator interface {
	// Generate returns model output for the prompt.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// OCRService recognises text in a page image. It is the fallback route
// when binary extraction fails the quality gate. Optional; when nil,
// extraction failures surface to the caller.
type OCRService interface {
	// Recognize returns the text found in the image.
	Recognize(ctx context.Context, image []byte) (string, error)
}
