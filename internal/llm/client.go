package llm

import (
	"context"

	"github.com/plansmith/takeoff/internal/model"
)

// LLMClient generates text, optionally grounded on a drawing image. The
// vision collaborator is treated as an opaque, possibly-imperfect oracle;
// callers validate its output, never assume it.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, model.UsageStats, error)
}

// EmbedderClient turns free text into a fixed-length vector for
// nearest-neighbor lookup against embedded document fragments.
type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
