package graph

import (
	"math"
	"time"
)

// NoCluster marks a node the connection oracle left unclustered.
const NoCluster = -1

type EdgeOrigin string

const (
	OriginAI      EdgeOrigin = "ai"
	OriginTag     EdgeOrigin = "tag"
	OriginCluster EdgeOrigin = "cluster"
)

// Node is one note projected into the graph.
type Node struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	ClusterID  int       `json:"cluster_id"` // index into Graph.Clusters, or NoCluster
	VisualSize float64   `json:"visual_size"`
}

// Edge is a weighted, deduplicated relation between two nodes. At most one
// edge exists per unordered node pair; Origin records which source won.
type Edge struct {
	SourceID string     `json:"source_id"`
	TargetID string     `json:"target_id"`
	Weight   float64    `json:"weight"`
	Label    string     `json:"label"`
	Origin   EdgeOrigin `json:"origin"`
}

// Connection is one pairwise hint from the connection oracle.
type Connection struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Reason   string `json:"reason"`
	Strength int    `json:"strength"` // 1..10
}

// Cluster is one thematic grouping from the connection oracle. Clusters only
// cover the subset of notes the oracle chose to label.
type Cluster struct {
	Label     string   `json:"label"`
	Insight   string   `json:"insight"`
	MemberIDs []string `json:"member_ids"`
}

// Analysis is the connection oracle's full reply for one note snapshot.
type Analysis struct {
	Connections []Connection `json:"connections"`
	Clusters    []Cluster    `json:"clusters"`
}

type Graph struct {
	Nodes    []Node    `json:"nodes"`
	Edges    []Edge    `json:"edges"`
	Clusters []Cluster `json:"clusters"`

	nodesByID map[string]int
	adjacency map[string][]string
}

// HasNode reports whether id is present in the node set.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodesByID[id]
	return ok
}

// NodeByID returns the node for id, if present.
func (g *Graph) NodeByID(id string) (Node, bool) {
	i, ok := g.nodesByID[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Neighbors returns the ids reachable from id via exactly one edge.
func (g *Graph) Neighbors(id string) []string {
	return g.adjacency[id]
}

func (g *Graph) index() {
	g.nodesByID = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.nodesByID[n.ID] = i
	}
	g.adjacency = make(map[string][]string)
	for _, e := range g.Edges {
		g.adjacency[e.SourceID] = append(g.adjacency[e.SourceID], e.TargetID)
		g.adjacency[e.TargetID] = append(g.adjacency[e.TargetID], e.SourceID)
	}
}

// visualSize maps tag count and text length to an on-canvas radius.
// Monotonic in both inputs and bounded above so labels stay legible.
func visualSize(tagCount, textLen int) float64 {
	size := 8 + 2*float64(tagCount) + float64(textLen)/40
	return math.Min(size, 30)
}
