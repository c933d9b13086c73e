// Package search maps ranked relevance results onto the graph, enforcing the
// last-query-wins rule for overlapping in-flight searches.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mindwell/synapse/internal/graph"
	"github.com/mindwell/synapse/internal/note"
	"github.com/mindwell/synapse/internal/oracle"
)

// Ranker scores notes against a query, best first.
type Ranker interface {
	Rank(ctx context.Context, query string, notes []note.Note) ([]oracle.Match, error)
}

// Session serializes search intent for one viewer. Overlapping queries are
// resolved by discard, not queuing: when a result arrives after a newer query
// has been issued it is thrown away, because stale results are actively
// misleading.
type Session struct {
	ranker Ranker

	mu      sync.Mutex
	seq     uint64
	results []oracle.Match
}

func NewSession(ranker Ranker) *Session {
	return &Session{ranker: ranker}
}

// Search ranks the query against the snapshot and applies the result if no
// newer query superseded it meanwhile. It returns the applied matches, or
// nil when the query was empty or lost the last-wins race. Matches whose
// note no longer resolves in g are silently dropped; the note may have been
// filtered out from under the search box.
func (s *Session) Search(ctx context.Context, query string, g *graph.Graph, notes []note.Note) ([]oracle.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	s.mu.Lock()
	s.seq++
	id := s.seq
	s.mu.Unlock()

	matches, err := s.ranker.Rank(ctx, query, notes)
	if err != nil {
		return nil, err
	}

	var kept []oracle.Match
	for _, m := range matches {
		if g != nil && g.HasNode(m.NoteID) {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.seq {
		// A newer query was issued while this one was in flight.
		return nil, nil
	}
	s.results = kept
	return kept, nil
}

// Results returns the matches of the most recently applied query.
func (s *Session) Results() []oracle.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]oracle.Match, len(s.results))
	copy(out, s.results)
	return out
}

// Clear drops the active result set and invalidates in-flight queries.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.results = nil
}
