// Package session scopes one viewer's live graph: a note snapshot, the
// derived graph, the running layout simulation, interaction state, and the
// guards that keep stale oracle results from being applied.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindwell/synapse/internal/config"
	"github.com/mindwell/synapse/internal/graph"
	"github.com/mindwell/synapse/internal/layout"
	"github.com/mindwell/synapse/internal/note"
	"github.com/mindwell/synapse/internal/oracle"
	"github.com/mindwell/synapse/internal/search"
	"github.com/mindwell/synapse/internal/view"
)

type Session struct {
	ID string

	cfg        *config.Config
	store      note.Store
	connOracle oracle.ConnectionOracle

	mu         sync.Mutex
	notes      []note.Note
	tagFilter  string
	analysis   graph.Analysis
	g          *graph.Graph
	snapshot   uint64 // bumped per refetch; in-flight analyses for older snapshots are discarded
	analyzeSeq uint64

	sim      *layout.Simulator
	inter    *view.Interaction
	searcher *search.Session
	colors   *view.ColorRegistry

	cancel context.CancelFunc
}

// New takes the initial note snapshot, builds the graph without any analysis
// yet, and starts the layout loop. Close must be called to stop it.
func New(ctx context.Context, cfg *config.Config, store note.Store, connOracle oracle.ConnectionOracle, ranker search.Ranker, tagFilter string) (*Session, error) {
	notes, err := store.Recent(ctx, cfg.Notes.FetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}

	s := &Session{
		ID:         uuid.New().String(),
		cfg:        cfg,
		store:      store,
		connOracle: connOracle,
		notes:      notes,
		tagFilter:  tagFilter,
		sim: layout.NewSimulator(layout.Config{
			LinkDistance:    cfg.Layout.LinkDistance,
			AILinkScale:     cfg.Layout.AILinkScale,
			LinkStrength:    cfg.Layout.LinkStrength,
			AILinkStrength:  cfg.Layout.AILinkStrength,
			Repulsion:       cfg.Layout.Repulsion,
			CollisionMargin: cfg.Layout.CollisionMargin,
			CenterStrength:  cfg.Layout.CenterStrength,
			Damping:         cfg.Layout.Damping,
			Width:           cfg.Layout.Width,
			Height:          cfg.Layout.Height,
		}),
		inter:    view.NewInteraction(),
		searcher: search.NewSession(ranker),
		colors:   view.NewColorRegistry(),
	}

	s.rebuild()

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.sim.Run(loopCtx, 16*time.Millisecond, nil)

	return s, nil
}

// Close stops the layout loop and invalidates any oracle work in flight.
func (s *Session) Close() {
	s.mu.Lock()
	s.snapshot++
	s.analyzeSeq++
	s.mu.Unlock()
	s.searcher.Clear()
	s.cancel()
}

// Refresh refetches the note snapshot (optionally narrowed to one tag) and
// rebuilds the derived graph from scratch. Positions persist by id; results
// from analyses issued against the previous snapshot will be discarded.
func (s *Session) Refresh(ctx context.Context, tagFilter string) error {
	notes, err := s.store.Recent(ctx, s.cfg.Notes.FetchLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch notes: %w", err)
	}

	s.mu.Lock()
	s.notes = notes
	s.tagFilter = tagFilter
	s.snapshot++
	s.rebuild()
	s.mu.Unlock()

	// In-flight searches ranked the previous snapshot; invalidate them and
	// drop the stale emphasis instead of letting their results land here.
	s.searcher.Clear()
	s.inter.SetSearch(nil)
	return nil
}

// Analyze asks the connection oracle for connections and clusters over the
// current snapshot and applies the reply, unless a newer analysis or a
// snapshot change superseded it meanwhile (last-wins). The boolean reports
// whether the result was applied.
func (s *Session) Analyze(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.connOracle == nil {
		s.mu.Unlock()
		return false, fmt.Errorf("no connection oracle configured")
	}
	s.analyzeSeq++
	seq := s.analyzeSeq
	snap := s.snapshot
	notes := s.visibleNotesLocked()
	s.mu.Unlock()

	analysis, err := s.connOracle.Analyze(ctx, notes)
	if err != nil {
		// Oracle unavailable is "no new data yet": keep the current graph.
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.analyzeSeq || snap != s.snapshot {
		return false, nil
	}
	s.analysis = analysis
	s.rebuild()
	return true, nil
}

// Search runs a relevance query and feeds the surviving matches into the
// emphasis channel. Empty queries and superseded queries are no-ops.
func (s *Session) Search(ctx context.Context, query string) ([]oracle.Match, error) {
	s.mu.Lock()
	g := s.g
	snap := s.snapshot
	notes := s.visibleNotesLocked()
	s.mu.Unlock()

	matches, err := s.searcher.Search(ctx, query, g, notes)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		return nil, nil
	}

	// Same guard as Analyze: a snapshot change between issue and apply means
	// the matches rank notes the viewer is no longer looking at.
	s.mu.Lock()
	stale := snap != s.snapshot
	s.mu.Unlock()
	if stale {
		return nil, nil
	}

	scores := make(map[string]float64, len(matches))
	for _, m := range matches {
		scores[m.NoteID] = m.Score
	}
	s.inter.SetSearch(scores)
	return matches, nil
}

// ClearSearch drops search emphasis and invalidates in-flight queries.
func (s *Session) ClearSearch() {
	s.searcher.Clear()
	s.inter.SetSearch(nil)
}

func (s *Session) Pin(id string, x, y float64) { s.sim.Pin(id, x, y) }
func (s *Session) Unpin(id string)             { s.sim.Unpin(id) }
func (s *Session) Hover(id string)             { s.inter.Hover(id) }
func (s *Session) Leave()                      { s.inter.Leave() }
func (s *Session) Click(id string)             { s.inter.Click(id) }
func (s *Session) ClickBackground()            { s.inter.ClickBackground() }
func (s *Session) SetFocusMode(on bool)        { s.inter.SetFocusMode(on) }
func (s *Session) Emphasis() view.Emphasis     { return s.inter.Emphasis() }

// Payload is the full render state for one frame.
type Payload struct {
	Nodes     []graph.Node               `json:"nodes"`
	Edges     []graph.Edge               `json:"edges"`
	Clusters  []graph.Cluster            `json:"clusters"`
	Positions map[string]layout.Position `json:"positions"`
	Colors    map[string]string          `json:"colors"`
	Emphasis  view.Emphasis              `json:"emphasis"`
	// NotEnoughData flags the degenerate snapshot (fewer than two notes):
	// the client shows an empty state instead of a graph.
	NotEnoughData bool `json:"not_enough_data"`
}

func (s *Session) Payload() Payload {
	s.mu.Lock()
	g := s.g
	s.mu.Unlock()

	// Colors are assigned in first-seen order, so iterating clusters before
	// tags keeps assignments stable across frames.
	for _, c := range g.Clusters {
		s.colors.ColorFor(c.Label)
	}
	for _, n := range g.Nodes {
		for _, t := range n.Tags {
			s.colors.ColorFor("#" + t)
		}
	}

	return Payload{
		Nodes:         g.Nodes,
		Edges:         g.Edges,
		Clusters:      g.Clusters,
		Positions:     s.sim.Positions(),
		Colors:        s.colors.Snapshot(),
		Emphasis:      s.inter.Emphasis(),
		NotEnoughData: len(g.Nodes) < 2,
	}
}

// rebuild reruns the graph builder against the current snapshot and points
// the simulator and interaction state at the result. Callers hold s.mu
// except during construction.
func (s *Session) rebuild() {
	s.g = graph.Build(s.notes, s.tagFilter, s.analysis, graph.Options{
		TagEdgeWeight:     s.cfg.Graph.TagEdgeWeight,
		ClusterEdgeWeight: s.cfg.Graph.ClusterEdgeWeight,
	})
	s.sim.SetGraph(s.g)
	s.inter.SetGraph(s.g)
}

// visibleNotesLocked returns the notes surviving the current tag filter.
func (s *Session) visibleNotesLocked() []note.Note {
	if s.tagFilter == "" {
		out := make([]note.Note, len(s.notes))
		copy(out, s.notes)
		return out
	}
	var out []note.Note
	for _, n := range s.notes {
		if n.HasTag(s.tagFilter) {
			out = append(out, n)
		}
	}
	return out
}
