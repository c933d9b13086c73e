package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell/synapse/internal/note"
)

func analyzeNotes() []note.Note {
	return []note.Note{
		{ID: "n1", Text: "Word embeddings capture meaning.", Tags: []string{"ml"}},
		{ID: "n2", Text: "Vector search over note embeddings.", Tags: []string{"ml", "search"}},
	}
}

func TestAnalyze_ParsesMarkdownWrappedResponse(t *testing.T) {
	llm := &mockLLM{response: "Here is the analysis:\n```json\n" + `{
		"connections": [
			{"source_id": "n1", "target_id": "n2", "reason": "both discuss embeddings", "strength": 8}
		],
		"clusters": [
			{"label": "ML", "insight": "Both notes explore embeddings.", "member_ids": ["n1", "n2"]}
		]
	}` + "\n```"}
	o := NewLLMConnectionOracle(llm, "")

	analysis, err := o.Analyze(context.Background(), analyzeNotes())

	require.NoError(t, err)
	require.Len(t, analysis.Connections, 1)
	c := analysis.Connections[0]
	assert.Equal(t, "n1", c.SourceID)
	assert.Equal(t, "n2", c.TargetID)
	assert.Equal(t, 8, c.Strength)
	require.Len(t, analysis.Clusters, 1)
	assert.Equal(t, "ML", analysis.Clusters[0].Label)

	// The prompt carried the note ids for the model to reference.
	assert.Contains(t, llm.lastPrompt, "n1")
	assert.Contains(t, llm.lastPrompt, "n2")
}

func TestAnalyze_FewerThanTwoNotesSkipsTheLLM(t *testing.T) {
	llm := &mockLLM{response: "should not be called"}
	o := NewLLMConnectionOracle(llm, "")

	analysis, err := o.Analyze(context.Background(), analyzeNotes()[:1])

	require.NoError(t, err)
	assert.Empty(t, analysis.Connections)
	assert.Empty(t, analysis.Clusters)
	assert.Zero(t, llm.calls)
}

func TestAnalyze_MalformedResponseFails(t *testing.T) {
	o := NewLLMConnectionOracle(&mockLLM{response: "I could not find any connections, sorry."}, "")

	_, err := o.Analyze(context.Background(), analyzeNotes())

	assert.Error(t, err)
}

func TestAnalyze_LLMErrorWraps(t *testing.T) {
	o := NewLLMConnectionOracle(&mockLLM{err: assert.AnError}, "")

	_, err := o.Analyze(context.Background(), analyzeNotes())

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAnalyze_SanitizesContract(t *testing.T) {
	llm := &mockLLM{response: `{
		"connections": [
			{"source_id": "n1", "target_id": "n2", "reason": "ok", "strength": 99},
			{"source_id": "n1", "target_id": "n2", "reason": "floor", "strength": 0},
			{"source_id": "n1", "target_id": "n1", "reason": "self loop", "strength": 5},
			{"source_id": "", "target_id": "n2", "reason": "missing id", "strength": 5}
		],
		"clusters": [
			{"label": "", "insight": "unlabeled", "member_ids": ["n1"]},
			{"label": "Empty", "insight": "no members", "member_ids": []},
			{"label": "Kept", "insight": "fine", "member_ids": ["n2"]}
		]
	}`}
	o := NewLLMConnectionOracle(llm, "")

	analysis, err := o.Analyze(context.Background(), analyzeNotes())

	require.NoError(t, err)
	require.Len(t, analysis.Connections, 2)
	assert.Equal(t, 10, analysis.Connections[0].Strength) // clamped down
	assert.Equal(t, 1, analysis.Connections[1].Strength)  // clamped up
	require.Len(t, analysis.Clusters, 1)
	assert.Equal(t, "Kept", analysis.Clusters[0].Label)
}

func TestSerializeNotes_TruncatesLongText(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	out := serializeNotes([]note.Note{{ID: "n1", Text: string(long)}})

	assert.Less(t, len(out), 400)
	assert.Contains(t, out, "...")
}
