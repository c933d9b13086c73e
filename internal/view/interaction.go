// Package view owns the per-frame visual state of the graph: hover and
// selection emphasis, focus mode, search highlighting, and the color
// registry the renderer draws from.
package view

import (
	"sync"

	"github.com/mindwell/synapse/internal/graph"
)

const (
	fullOpacity      = 1.0
	dimmedOpacity    = 0.15
	focusDimOpacity  = 0.05
	restAIOpacity    = 0.7
	restTagOpacity   = 0.4
	restOtherOpacity = 0.3
)

type NodeEmphasis struct {
	Opacity   float64 `json:"opacity"`
	Ring      bool    `json:"ring"`
	Highlight float64 `json:"highlight"` // search channel, rank-proportional
}

type EdgeEmphasis struct {
	Opacity     float64 `json:"opacity"`
	Highlighted bool    `json:"highlighted"`
}

// Emphasis is the derived visual state for one frame. Edges line up with
// Graph.Edges by index.
type Emphasis struct {
	Nodes map[string]NodeEmphasis `json:"nodes"`
	Edges []EdgeEmphasis          `json:"edges"`
}

// Interaction tracks hover/selection/focus/search state and derives node and
// edge emphasis from it. Stale ids (a hovered or selected node that vanished
// in a rebuild) are tolerated and simply stop contributing.
type Interaction struct {
	mu        sync.Mutex
	g         *graph.Graph
	hovered   string
	selected  string
	focusMode bool
	matches   map[string]float64
}

func NewInteraction() *Interaction {
	return &Interaction{}
}

// SetGraph points the state machine at a rebuilt graph. Hover, selection and
// search state are kept; ids that no longer resolve are ignored during
// derivation rather than cleared, matching the stale-id tolerance rule.
func (in *Interaction) SetGraph(g *graph.Graph) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.g = g
}

func (in *Interaction) Hover(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.hovered = id
}

func (in *Interaction) Leave() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.hovered = ""
}

// Click toggles selection: clicking the selected node clears it.
func (in *Interaction) Click(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.selected == id {
		in.selected = ""
	} else {
		in.selected = id
	}
}

// ClickBackground clears the selection. Hover and search are untouched.
func (in *Interaction) ClickBackground() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.selected = ""
}

func (in *Interaction) SetFocusMode(on bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.focusMode = on
}

// SetSearch applies ranked search scores. Passing nil or an empty map clears
// the search channel. Selection is deliberately not cleared.
func (in *Interaction) SetSearch(scores map[string]float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(scores) == 0 {
		in.matches = nil
		return
	}
	in.matches = scores
}

func (in *Interaction) Selected() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.selected
}

// Emphasis derives the per-node and per-edge visual state for the current
// frame. Selection takes precedence over hover for the focal node; the focus
// set is the focal node plus its one-hop neighbors.
func (in *Interaction) Emphasis() Emphasis {
	in.mu.Lock()
	defer in.mu.Unlock()

	em := Emphasis{Nodes: make(map[string]NodeEmphasis)}
	if in.g == nil {
		return em
	}

	focal := ""
	if in.selected != "" && in.g.HasNode(in.selected) {
		focal = in.selected
	} else if in.hovered != "" && in.g.HasNode(in.hovered) {
		focal = in.hovered
	}

	focusSet := map[string]bool{}
	if focal != "" {
		focusSet[focal] = true
		for _, n := range in.g.Neighbors(focal) {
			focusSet[n] = true
		}
	}

	dim := dimmedOpacity
	if in.focusMode {
		dim = focusDimOpacity
	}

	maxScore := 0.0
	for _, s := range in.matches {
		if s > maxScore {
			maxScore = s
		}
	}

	for _, n := range in.g.Nodes {
		ne := NodeEmphasis{Opacity: fullOpacity}
		if focal != "" && !focusSet[n.ID] {
			ne.Opacity = dim
		}
		if n.ID == focal {
			ne.Ring = true
		}
		if score, ok := in.matches[n.ID]; ok && maxScore > 0 {
			ne.Highlight = score / maxScore
		}
		em.Nodes[n.ID] = ne
	}

	em.Edges = make([]EdgeEmphasis, len(in.g.Edges))
	for i, e := range in.g.Edges {
		if focal != "" && (e.SourceID == focal || e.TargetID == focal) {
			em.Edges[i] = EdgeEmphasis{Opacity: fullOpacity, Highlighted: true}
			continue
		}
		em.Edges[i] = EdgeEmphasis{Opacity: restOpacity(e.Origin)}
	}

	return em
}

// restOpacity is the origin-based styling for every edge not touching the
// focal node: AI edges read brighter than tag or cluster edges even at rest.
func restOpacity(origin graph.EdgeOrigin) float64 {
	switch origin {
	case graph.OriginAI:
		return restAIOpacity
	case graph.OriginTag:
		return restTagOpacity
	default:
		return restOtherOpacity
	}
}
