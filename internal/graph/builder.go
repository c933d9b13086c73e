package graph

import (
	"github.com/mindwell/synapse/internal/note"
)

// Options carries the tuned edge-weight constants (see config.GraphConfig).
type Options struct {
	TagEdgeWeight     float64
	ClusterEdgeWeight float64
}

func (o Options) withDefaults() Options {
	if o.TagEdgeWeight == 0 {
		o.TagEdgeWeight = 0.2
	}
	if o.ClusterEdgeWeight == 0 {
		o.ClusterEdgeWeight = 0.1
	}
	return o
}

// Build derives the canonical node/edge/cluster graph from one note snapshot
// plus the oracle's analysis. It is a pure function of its inputs and is
// re-run from scratch on every snapshot change.
//
// Edge precedence: AI connections are inserted first and never overwritten;
// tag-overlap edges fill pairs with no edge yet; same-cluster edges are the
// final fallback. The result holds at most one edge per unordered pair.
//
// Connections or cluster members referencing ids outside the (filtered) note
// set are silently dropped. Pair enumeration is O(n^2); n is bounded by the
// caller's fetch limit (config.NotesConfig.FetchLimit).
func Build(notes []note.Note, tagFilter string, analysis Analysis, opts Options) *Graph {
	opts = opts.withDefaults()

	// 1. Filter and dedupe the snapshot.
	seen := make(map[string]bool)
	var kept []note.Note
	for _, n := range notes {
		if seen[n.ID] {
			continue
		}
		if tagFilter != "" && !n.HasTag(tagFilter) {
			continue
		}
		seen[n.ID] = true
		kept = append(kept, n)
	}

	g := &Graph{Clusters: analysis.Clusters}

	// 2. One node per surviving note. Cluster membership is first match in
	// oracle response order; at most one cluster per node.
	for _, n := range kept {
		node := Node{
			ID:         n.ID,
			Text:       n.Text,
			Tags:       n.Tags,
			CreatedAt:  n.CreatedAt,
			ClusterID:  NoCluster,
			VisualSize: visualSize(len(n.Tags), len(n.Text)),
		}
		for ci, cluster := range analysis.Clusters {
			if containsID(cluster.MemberIDs, n.ID) {
				node.ClusterID = ci
				break
			}
		}
		g.Nodes = append(g.Nodes, node)
	}
	g.index()

	// 3. AI edges first. Unknown endpoints are dropped, not errors.
	connected := make(map[[2]string]bool)
	for _, c := range analysis.Connections {
		if !g.HasNode(c.SourceID) || !g.HasNode(c.TargetID) || c.SourceID == c.TargetID {
			continue
		}
		key := pairKey(c.SourceID, c.TargetID)
		if connected[key] {
			continue
		}
		connected[key] = true
		g.Edges = append(g.Edges, Edge{
			SourceID: c.SourceID,
			TargetID: c.TargetID,
			Weight:   float64(c.Strength) / 10,
			Label:    c.Reason,
			Origin:   OriginAI,
		})
	}

	// 4. Remaining pairs: shared tags, then shared cluster.
	for i := 0; i < len(g.Nodes); i++ {
		for j := i + 1; j < len(g.Nodes); j++ {
			a, b := g.Nodes[i], g.Nodes[j]
			key := pairKey(a.ID, b.ID)
			if connected[key] {
				continue
			}

			if shared := sharedTags(a.Tags, b.Tags); len(shared) > 0 {
				connected[key] = true
				g.Edges = append(g.Edges, Edge{
					SourceID: a.ID,
					TargetID: b.ID,
					Weight:   opts.TagEdgeWeight * float64(len(shared)),
					Label:    "#" + shared[0],
					Origin:   OriginTag,
				})
				continue
			}

			if a.ClusterID != NoCluster && a.ClusterID == b.ClusterID {
				connected[key] = true
				g.Edges = append(g.Edges, Edge{
					SourceID: a.ID,
					TargetID: b.ID,
					Weight:   opts.ClusterEdgeWeight,
					Label:    "Same Cluster",
					Origin:   OriginCluster,
				})
			}
		}
	}

	g.index()
	return g
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func sharedTags(a, b []string) []string {
	var shared []string
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb {
				shared = append(shared, ta)
				break
			}
		}
	}
	return shared
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
