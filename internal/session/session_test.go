package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell/synapse/internal/config"
	"github.com/mindwell/synapse/internal/graph"
	"github.com/mindwell/synapse/internal/note"
	"github.com/mindwell/synapse/internal/oracle"
)

// stubOracle hands out one canned analysis per call, optionally blocking on
// release so tests can overlap in-flight analyses.
type stubOracle struct {
	analyses []graph.Analysis
	err      error
	release  chan struct{}

	mu    sync.Mutex
	calls int
}

func (o *stubOracle) Analyze(ctx context.Context, notes []note.Note) (graph.Analysis, error) {
	o.mu.Lock()
	idx := o.calls
	o.calls++
	o.mu.Unlock()

	if o.release != nil {
		<-o.release
	}
	if o.err != nil {
		return graph.Analysis{}, o.err
	}
	if idx < len(o.analyses) {
		return o.analyses[idx], nil
	}
	return graph.Analysis{}, nil
}

type stubRanker struct {
	matches []oracle.Match
	release chan struct{}
}

func (s *stubRanker) Rank(ctx context.Context, query string, notes []note.Note) ([]oracle.Match, error) {
	if s.release != nil {
		<-s.release
	}
	return s.matches, nil
}

func seededStore() *note.MemoryStore {
	store := note.NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.Add(note.Note{ID: "a", Text: "embeddings", Tags: []string{"ml"}, CreatedAt: base})
	store.Add(note.Note{ID: "b", Text: "vector search", Tags: []string{"ml"}, CreatedAt: base.Add(time.Hour)})
	store.Add(note.Note{ID: "c", Text: "palette ideas", Tags: []string{"design"}, CreatedAt: base.Add(2 * time.Hour)})
	return store
}

func newTestSession(t *testing.T, o oracle.ConnectionOracle, ranker *stubRanker) *Session {
	t.Helper()
	if ranker == nil {
		ranker = &stubRanker{}
	}
	s, err := New(context.Background(), config.Default(), seededStore(), o, ranker, "")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func aiAnalysis() graph.Analysis {
	return graph.Analysis{
		Connections: []graph.Connection{
			{SourceID: "a", TargetID: "b", Reason: "both about embeddings", Strength: 8},
		},
		Clusters: []graph.Cluster{
			{Label: "ML", Insight: "ML notes", MemberIDs: []string{"a", "b"}},
		},
	}
}

func TestNew_BuildsInitialGraphWithoutAnalysis(t *testing.T) {
	s := newTestSession(t, &stubOracle{}, nil)

	p := s.Payload()
	assert.Len(t, p.Nodes, 3)
	assert.False(t, p.NotEnoughData)
	for _, e := range p.Edges {
		assert.Equal(t, graph.OriginTag, e.Origin)
	}
	// Every node has a seeded position from the start.
	for _, n := range p.Nodes {
		_, ok := p.Positions[n.ID]
		assert.Truef(t, ok, "node %s has no position", n.ID)
	}
}

func TestAnalyze_AppliesOracleResult(t *testing.T) {
	s := newTestSession(t, &stubOracle{analyses: []graph.Analysis{aiAnalysis()}}, nil)

	applied, err := s.Analyze(context.Background())

	require.NoError(t, err)
	assert.True(t, applied)

	p := s.Payload()
	require.Len(t, p.Clusters, 1)
	var foundAI bool
	for _, e := range p.Edges {
		if e.Origin == graph.OriginAI {
			foundAI = true
			assert.InDelta(t, 0.8, e.Weight, 1e-9)
		}
	}
	assert.True(t, foundAI)
	// Cluster color is assigned in the payload.
	assert.Contains(t, p.Colors, "ML")
}

func TestAnalyze_NewerAnalysisWins(t *testing.T) {
	release := make(chan struct{})
	o := &stubOracle{
		analyses: []graph.Analysis{
			{Connections: []graph.Connection{{SourceID: "a", TargetID: "c", Reason: "stale", Strength: 3}}},
			aiAnalysis(),
		},
		release: release,
	}
	s := newTestSession(t, o, nil)

	firstDone := make(chan bool, 1)
	go func() {
		applied, _ := s.Analyze(context.Background())
		firstDone <- applied
	}()
	time.Sleep(20 * time.Millisecond)

	secondDone := make(chan bool, 1)
	go func() {
		applied, _ := s.Analyze(context.Background())
		secondDone <- applied
	}()
	time.Sleep(20 * time.Millisecond)

	close(release)

	// The superseded analysis is discarded; the newest one lands.
	assert.False(t, <-firstDone)
	assert.True(t, <-secondDone)

	var labels []string
	for _, e := range s.Payload().Edges {
		if e.Origin == graph.OriginAI {
			labels = append(labels, e.Label)
		}
	}
	assert.Equal(t, []string{"both about embeddings"}, labels)
}

func TestAnalyze_DiscardedAfterRefresh(t *testing.T) {
	release := make(chan struct{})
	o := &stubOracle{analyses: []graph.Analysis{aiAnalysis()}, release: release}
	s := newTestSession(t, o, nil)

	done := make(chan bool, 1)
	go func() {
		applied, _ := s.Analyze(context.Background())
		done <- applied
	}()
	time.Sleep(20 * time.Millisecond)

	// The snapshot changes while the oracle is thinking.
	require.NoError(t, s.Refresh(context.Background(), ""))
	close(release)

	assert.False(t, <-done)
	for _, e := range s.Payload().Edges {
		assert.NotEqual(t, graph.OriginAI, e.Origin)
	}
}

func TestAnalyze_OracleErrorKeepsGraph(t *testing.T) {
	s := newTestSession(t, &stubOracle{err: assert.AnError}, nil)
	before := len(s.Payload().Edges)

	applied, err := s.Analyze(context.Background())

	assert.False(t, applied)
	assert.Error(t, err)
	assert.Len(t, s.Payload().Edges, before)
}

func TestRefresh_AppliesTagFilter(t *testing.T) {
	s := newTestSession(t, &stubOracle{}, nil)

	require.NoError(t, s.Refresh(context.Background(), "ml"))

	p := s.Payload()
	assert.Len(t, p.Nodes, 2)
	for _, n := range p.Nodes {
		assert.NotEqual(t, "c", n.ID)
	}

	// Widening the filter brings everything back.
	require.NoError(t, s.Refresh(context.Background(), ""))
	assert.Len(t, s.Payload().Nodes, 3)
}

func TestSearch_FeedsEmphasisChannel(t *testing.T) {
	ranker := &stubRanker{matches: []oracle.Match{
		{NoteID: "a", Score: 0.8},
		{NoteID: "b", Score: 0.4},
	}}
	s := newTestSession(t, &stubOracle{}, ranker)

	matches, err := s.Search(context.Background(), "embeddings")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	em := s.Emphasis()
	assert.InDelta(t, 1.0, em.Nodes["a"].Highlight, 1e-9)
	assert.InDelta(t, 0.5, em.Nodes["b"].Highlight, 1e-9)
	assert.Zero(t, em.Nodes["c"].Highlight)

	s.ClearSearch()
	em = s.Emphasis()
	for _, ne := range em.Nodes {
		assert.Zero(t, ne.Highlight)
	}
}

func TestSearch_DiscardedAfterRefresh(t *testing.T) {
	release := make(chan struct{})
	ranker := &stubRanker{
		matches: []oracle.Match{
			{NoteID: "a", Score: 0.9},
			{NoteID: "c", Score: 0.7},
		},
		release: release,
	}
	s := newTestSession(t, &stubOracle{}, ranker)

	done := make(chan []oracle.Match, 1)
	go func() {
		m, _ := s.Search(context.Background(), "embeddings")
		done <- m
	}()
	time.Sleep(20 * time.Millisecond)

	// The snapshot narrows while the ranker is thinking; c no longer exists.
	require.NoError(t, s.Refresh(context.Background(), "ml"))
	close(release)

	assert.Nil(t, <-done)
	em := s.Emphasis()
	for id, ne := range em.Nodes {
		assert.Zerof(t, ne.Highlight, "stale search emphasis applied to %s", id)
	}
}

func TestPayload_NotEnoughData(t *testing.T) {
	store := note.NewMemoryStore()
	store.Add(note.Note{ID: "only", Text: "one note"})
	s, err := New(context.Background(), config.Default(), store, &stubOracle{}, &stubRanker{}, "")
	require.NoError(t, err)
	defer s.Close()

	p := s.Payload()
	assert.True(t, p.NotEnoughData)
	assert.Len(t, p.Nodes, 1)
}

func TestInteractionDelegates(t *testing.T) {
	s := newTestSession(t, &stubOracle{}, nil)

	s.Click("a")
	s.Hover("b")
	em := s.Emphasis()
	assert.True(t, em.Nodes["a"].Ring)

	s.ClickBackground()
	s.Leave()
	em = s.Emphasis()
	for _, ne := range em.Nodes {
		assert.False(t, ne.Ring)
	}

	s.Pin("a", 10, 20)
	p := s.Payload()
	assert.InDelta(t, 10.0, p.Positions["a"].X, 1e-9)
	assert.InDelta(t, 20.0, p.Positions["a"].Y, 1e-9)
	s.Unpin("a")
}
