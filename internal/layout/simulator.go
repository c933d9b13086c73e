// Package layout runs the force-directed simulation that positions graph
// nodes. It is an explicit tick-based integrator so tests can drive it
// headless; the server wraps Step in a ticker loop for live views.
package layout

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/mindwell/synapse/internal/graph"
)

type Config struct {
	LinkDistance    float64 // target separation for connected nodes
	AILinkScale     float64 // target-distance multiplier for AI edges (<1 pulls closer)
	LinkStrength    float64
	AILinkStrength  float64
	Repulsion       float64
	CollisionMargin float64
	CenterStrength  float64
	Damping         float64 // velocity retained per tick
	AlphaDecay      float64
	AlphaMin        float64 // floor, never fully stops
	Width           float64
	Height          float64
}

func (c Config) withDefaults() Config {
	if c.LinkDistance == 0 {
		c.LinkDistance = 100
	}
	if c.AILinkScale == 0 {
		c.AILinkScale = 0.7
	}
	if c.LinkStrength == 0 {
		c.LinkStrength = 0.3
	}
	if c.AILinkStrength == 0 {
		c.AILinkStrength = 0.8
	}
	if c.Repulsion == 0 {
		c.Repulsion = 2000
	}
	if c.CollisionMargin == 0 {
		c.CollisionMargin = 4
	}
	if c.CenterStrength == 0 {
		c.CenterStrength = 0.02
	}
	if c.Damping == 0 {
		c.Damping = 0.85
	}
	if c.AlphaDecay == 0 {
		c.AlphaDecay = 0.02
	}
	if c.AlphaMin == 0 {
		c.AlphaMin = 0.003
	}
	if c.Width == 0 {
		c.Width = 1200
	}
	if c.Height == 0 {
		c.Height = 800
	}
	return c
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type body struct {
	x, y   float64
	vx, vy float64
	radius float64
	pinned bool
	fx, fy float64
}

type link struct {
	a, b     string
	distance float64
	strength float64
}

// Simulator integrates forces over the current graph topology. Positions
// survive SetGraph for ids that persist, so emphasis-only changes and
// incremental analyses never make the layout jump.
type Simulator struct {
	mu     sync.Mutex
	cfg    Config
	alpha  float64
	bodies map[string]*body
	order  []string
	links  []link
}

func NewSimulator(cfg Config) *Simulator {
	return &Simulator{
		cfg:    cfg.withDefaults(),
		alpha:  1,
		bodies: make(map[string]*body),
	}
}

// SetGraph swaps in a new topology. Existing node positions are kept;
// new nodes are seeded on a deterministic spiral. The simulation is
// reheated so the new topology settles instead of freezing stale.
func (s *Simulator) SetGraph(g *graph.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cx, cy := s.cfg.Width/2, s.cfg.Height/2
	next := make(map[string]*body, len(g.Nodes))
	s.order = s.order[:0]

	for i, n := range g.Nodes {
		if b, ok := s.bodies[n.ID]; ok {
			b.radius = n.VisualSize
			next[n.ID] = b
		} else {
			// Phyllotaxis seeding: deterministic, roughly uniform disc.
			r := 12 * math.Sqrt(float64(i)+0.5)
			theta := float64(i) * 2.39996
			next[n.ID] = &body{
				x:      cx + r*math.Cos(theta),
				y:      cy + r*math.Sin(theta),
				radius: n.VisualSize,
			}
		}
		s.order = append(s.order, n.ID)
	}
	s.bodies = next

	s.links = s.links[:0]
	for _, e := range g.Edges {
		distance := s.cfg.LinkDistance
		strength := s.cfg.LinkStrength
		if e.Origin == graph.OriginAI {
			// Semantic connections pull harder and closer.
			distance *= s.cfg.AILinkScale
			strength = s.cfg.AILinkStrength
		}
		s.links = append(s.links, link{
			a:        e.SourceID,
			b:        e.TargetID,
			distance: distance,
			strength: strength,
		})
	}

	s.alpha = 1
}

// Pin fixes a node at (x, y). The node stops integrating but keeps acting
// as an anchor for its neighbors.
func (s *Simulator) Pin(id string, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[id]
	if !ok {
		return
	}
	b.pinned = true
	b.fx, b.fy = x, y
	b.x, b.y = x, y
	b.vx, b.vy = 0, 0
	s.alpha = math.Max(s.alpha, 0.3)
}

func (s *Simulator) Unpin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bodies[id]; ok {
		b.pinned = false
	}
}

// Reheat injects fresh kinetic energy. Call after any topology change.
func (s *Simulator) Reheat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alpha = 1
}

// Alpha reports the current simulation energy.
func (s *Simulator) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Step advances the simulation one tick: link attraction, pairwise
// repulsion, collision separation, centering, then integration.
func (s *Simulator) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.bodies) == 0 {
		return
	}

	alpha := s.alpha
	cx, cy := s.cfg.Width/2, s.cfg.Height/2

	// Link force: spring toward the per-link target distance.
	for _, l := range s.links {
		a, okA := s.bodies[l.a]
		b, okB := s.bodies[l.b]
		if !okA || !okB {
			continue
		}
		dx, dy, dist := delta(a, b)
		f := (dist - l.distance) / dist * l.strength * alpha
		fx, fy := dx*f, dy*f
		b.vx -= fx / 2
		b.vy -= fy / 2
		a.vx += fx / 2
		a.vy += fy / 2
	}

	// Repulsion: every pair pushes apart, falling off with distance squared.
	for i := 0; i < len(s.order); i++ {
		for j := i + 1; j < len(s.order); j++ {
			a := s.bodies[s.order[i]]
			b := s.bodies[s.order[j]]
			dx, dy, dist := delta(a, b)
			f := s.cfg.Repulsion * alpha / (dist * dist)
			fx, fy := dx/dist*f, dy/dist*f
			a.vx -= fx
			a.vy -= fy
			b.vx += fx
			b.vy += fy
		}
	}

	// Collision: enforce minimum separation of radius+radius+margin so
	// labeled nodes never visually overlap.
	for i := 0; i < len(s.order); i++ {
		for j := i + 1; j < len(s.order); j++ {
			a := s.bodies[s.order[i]]
			b := s.bodies[s.order[j]]
			minSep := a.radius + b.radius + s.cfg.CollisionMargin
			dx, dy, dist := delta(a, b)
			if dist >= minSep {
				continue
			}
			push := (minSep - dist) / dist * 0.5
			a.vx -= dx * push
			a.vy -= dy * push
			b.vx += dx * push
			b.vy += dy * push
		}
	}

	// Centering: gentle pull toward the viewport center.
	for _, id := range s.order {
		b := s.bodies[id]
		b.vx += (cx - b.x) * s.cfg.CenterStrength * alpha
		b.vy += (cy - b.y) * s.cfg.CenterStrength * alpha
	}

	// Integrate. Pinned bodies hold their fixed position but have still
	// contributed forces to their neighbors above.
	for _, id := range s.order {
		b := s.bodies[id]
		if b.pinned {
			b.x, b.y = b.fx, b.fy
			b.vx, b.vy = 0, 0
			continue
		}
		b.vx *= s.cfg.Damping
		b.vy *= s.cfg.Damping
		b.x += b.vx
		b.y += b.vy
	}

	// Cool toward the floor; the loop keeps running at low energy so the
	// view stays interactive.
	s.alpha += (s.cfg.AlphaMin - s.alpha) * s.cfg.AlphaDecay
}

// Positions returns a snapshot of current node positions.
func (s *Simulator) Positions() map[string]Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Position, len(s.bodies))
	for id, b := range s.bodies {
		out[id] = Position{X: b.x, Y: b.y}
	}
	return out
}

// Run drives the tick loop until ctx is cancelled, delivering a position
// snapshot to fn after every tick. fn may be nil.
func (s *Simulator) Run(ctx context.Context, interval time.Duration, fn func(map[string]Position)) {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step()
			if fn != nil {
				fn(s.Positions())
			}
		}
	}
}

// delta returns the displacement from a to b with a tiny floor on the
// distance so coincident nodes cannot divide by zero.
func delta(a, b *body) (dx, dy, dist float64) {
	dx = b.x - a.x
	dy = b.y - a.y
	dist = math.Hypot(dx, dy)
	if dist < 1e-6 {
		// Nudge coincident nodes apart deterministically.
		dx, dy = 0.1, 0.1
		dist = math.Hypot(dx, dy)
	}
	return dx, dy, dist
}
