package oracle

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/mindwell/synapse/internal/note"
)

// Match is one ranked search hit.
type Match struct {
	NoteID string  `json:"note_id"`
	Score  float64 `json:"score"` // 0..1
}

// EmbeddingRanker scores notes against a free-text query by cosine
// similarity of embeddings. Note vectors are cached by id so repeated
// queries over the same snapshot embed only the query. With no embedder
// configured it falls back to plain substring matching.
type EmbeddingRanker struct {
	Embedder Embedder

	mu    sync.Mutex
	cache map[string][]float32
}

func NewEmbeddingRanker(embedder Embedder) *EmbeddingRanker {
	return &EmbeddingRanker{
		Embedder: embedder,
		cache:    make(map[string][]float32),
	}
}

func (r *EmbeddingRanker) Rank(ctx context.Context, query string, notes []note.Note) ([]Match, error) {
	if r.Embedder == nil {
		return textRank(query, notes), nil
	}

	queryVec, err := r.Embedder.Embed(ctx, query)
	if err != nil || len(queryVec) == 0 {
		// Embedding oracle unavailable: degrade, don't fail the search.
		return textRank(query, notes), nil
	}

	var matches []Match
	for _, n := range notes {
		vec, err := r.noteVector(ctx, n)
		if err != nil || len(vec) == 0 {
			continue
		}
		matches = append(matches, Match{
			NoteID: n.ID,
			Score:  similarity(queryVec, vec),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

func (r *EmbeddingRanker) noteVector(ctx context.Context, n note.Note) ([]float32, error) {
	r.mu.Lock()
	vec, ok := r.cache[n.ID]
	r.mu.Unlock()
	if ok {
		return vec, nil
	}

	vec, err := r.Embedder.Embed(ctx, n.Text)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[n.ID] = vec
	r.mu.Unlock()
	return vec, nil
}

// similarity maps cosine similarity from [-1,1] into [0,1].
func similarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}

func textRank(query string, notes []note.Note) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []Match
	for _, n := range notes {
		text := strings.ToLower(n.Text)
		score := 0.0
		if strings.Contains(text, q) {
			// Shorter notes containing the query rank higher.
			score = float64(len(q)) / float64(len(text))
			if score > 1 {
				score = 1
			}
		}
		for _, tag := range n.Tags {
			if strings.Contains(strings.ToLower(tag), q) && score < 0.9 {
				score = 0.9
			}
		}
		if score > 0 {
			matches = append(matches, Match{NoteID: n.ID, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
