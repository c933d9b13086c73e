package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell/synapse/internal/note"
)

func rankNotes() []note.Note {
	return []note.Note{
		{ID: "close", Text: "about embeddings"},
		{ID: "far", Text: "grocery list"},
	}
}

func TestRank_OrdersByCosineSimilarity(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"embeddings":       {1, 0},
		"about embeddings": {0.9, 0.1},
		"grocery list":     {-1, 0},
	}}
	r := NewEmbeddingRanker(emb)

	matches, err := r.Rank(context.Background(), "embeddings", rankNotes())

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "close", matches[0].NoteID)
	assert.Equal(t, "far", matches[1].NoteID)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 1.0)
	}
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestRank_CachesNoteVectors(t *testing.T) {
	emb := &mockEmbedder{vectors: map[string][]float32{
		"q":                {1, 0},
		"about embeddings": {1, 0},
		"grocery list":     {0, 1},
	}}
	r := NewEmbeddingRanker(emb)

	_, err := r.Rank(context.Background(), "q", rankNotes())
	require.NoError(t, err)
	firstCalls := emb.calls // query + both notes

	_, err = r.Rank(context.Background(), "q", rankNotes())
	require.NoError(t, err)

	// The second pass embeds only the query.
	assert.Equal(t, firstCalls+1, emb.calls)
}

func TestRank_FallsBackToTextMatchWithoutEmbedder(t *testing.T) {
	r := NewEmbeddingRanker(nil)

	matches, err := r.Rank(context.Background(), "embeddings", rankNotes())

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "close", matches[0].NoteID)
}

func TestRank_FallsBackWhenEmbedderFails(t *testing.T) {
	r := NewEmbeddingRanker(&mockEmbedder{err: assert.AnError})

	matches, err := r.Rank(context.Background(), "embeddings", rankNotes())

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "close", matches[0].NoteID)
}

func TestTextRank_TagMatchOutranksBodyMatch(t *testing.T) {
	notes := []note.Note{
		{ID: "body", Text: "a long note that mentions golang once somewhere in the middle"},
		{ID: "tagged", Text: "unrelated text", Tags: []string{"golang"}},
	}

	matches := textRank("golang", notes)

	require.Len(t, matches, 2)
	assert.Equal(t, "tagged", matches[0].NoteID)
}

func TestSimilarity_Bounds(t *testing.T) {
	assert.InDelta(t, 1.0, similarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, similarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 0.5, similarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, similarity([]float32{0, 0}, []float32{1, 1}))
}
