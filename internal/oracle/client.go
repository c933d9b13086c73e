package oracle

import (
	"context"

	"github.com/mindwell/synapse/internal/graph"
	"github.com/mindwell/synapse/internal/note"
)

// LLMClient is a minimal text-in/text-out language model client.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ConnectionOracle discovers pairwise semantic connections and thematic
// clusters for a note snapshot. Implementations may return empty results and
// must not be assumed to cover every input id.
type ConnectionOracle interface {
	Analyze(ctx context.Context, notes []note.Note) (graph.Analysis, error)
}
