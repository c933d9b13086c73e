package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindwell/synapse/internal/graph"
	"github.com/mindwell/synapse/internal/note"
)

const defaultAnalyzePrompt = `You are analyzing a user's personal notes to find semantic connections.

Notes:
%s

Instructions:
1. Identify pairs of notes that are semantically related. For each pair give a short natural-language reason and a strength from 1 (weak) to 10 (strong).
2. Group thematically related notes into clusters. For each cluster give a short label and a one-sentence insight.

Return ONLY a JSON object of this shape:
{
  "connections": [
    {"source_id": "id-1", "target_id": "id-2", "reason": "both discuss embeddings", "strength": 8}
  ],
  "clusters": [
    {"label": "Machine Learning", "insight": "Several notes explore ML ideas.", "member_ids": ["id-1", "id-2"]}
  ]
}
Use only the note ids given above. Return empty arrays if nothing is related.`

// LLMConnectionOracle asks a language model for pairwise connections and
// cluster assignments over a note snapshot.
type LLMConnectionOracle struct {
	LLM    LLMClient
	Prompt string
}

func NewLLMConnectionOracle(client LLMClient, prompt string) *LLMConnectionOracle {
	if prompt == "" {
		prompt = defaultAnalyzePrompt
	}
	return &LLMConnectionOracle{LLM: client, Prompt: prompt}
}

func (o *LLMConnectionOracle) Analyze(ctx context.Context, notes []note.Note) (graph.Analysis, error) {
	if len(notes) < 2 {
		// Nothing to connect.
		return graph.Analysis{}, nil
	}

	prompt := fmt.Sprintf(o.Prompt, serializeNotes(notes))

	response, err := o.LLM.Generate(ctx, prompt)
	if err != nil {
		return graph.Analysis{}, fmt.Errorf("connection analysis failed: %w", err)
	}

	parsed, err := ParseJSON[graph.Analysis](response)
	if err != nil {
		return graph.Analysis{}, fmt.Errorf("failed to parse analysis: %w", err)
	}

	return sanitize(parsed), nil
}

// sanitize enforces the oracle contract at the boundary: required fields
// present, strength in 1..10. Malformed entries degrade to "no data" instead
// of surfacing as errors downstream.
func sanitize(a graph.Analysis) graph.Analysis {
	var out graph.Analysis
	for _, c := range a.Connections {
		if c.SourceID == "" || c.TargetID == "" || c.SourceID == c.TargetID {
			continue
		}
		if c.Strength < 1 {
			c.Strength = 1
		}
		if c.Strength > 10 {
			c.Strength = 10
		}
		out.Connections = append(out.Connections, c)
	}
	for _, cl := range a.Clusters {
		if cl.Label == "" || len(cl.MemberIDs) == 0 {
			continue
		}
		out.Clusters = append(out.Clusters, cl)
	}
	return out
}

func serializeNotes(notes []note.Note) string {
	var b strings.Builder
	for _, n := range notes {
		text := n.Text
		if len(text) > 300 {
			text = text[:300] + "..."
		}
		fmt.Fprintf(&b, "- ID: %s, Tags: [%s], Text: %s\n", n.ID, strings.Join(n.Tags, ", "), text)
	}
	return b.String()
}
