package corepipeline

import "fmt"

// Graph is the reconstructed, read-only topic graph produced by [Replay].
// It carries the same shape as the mutable graph inside [State] but is a
// plain value with no associated mutation methods — a downstream consumer
// that only wants to inspect an exported snapshot has no reason to depend
// on [State] itself.
type Graph struct {
	Nodes map[TopicID]TopicNode
	Edges []Edge
}

// Replay rebuilds a [Graph] and topic path from an exported [Snapshot],
// validating the round-trip invariants that make the export meaningful on
// its own: every edge must reference nodes present in the snapshot, and
// every entry in the topic path must too. This is the property named in
// the testable-properties scenario on round-trip & idempotence — encoding
// the check as a real function rather than leaving it implicit in a test.
func Replay(snapshot Snapshot) (*Graph, []TopicID, error) {
	nodes := make(map[TopicID]TopicNode, len(snapshot.Nodes))
	for _, n := range snapshot.Nodes {
		nodes[n.ID] = n
	}

	for _, e := range snapshot.Edges {
		if _, ok := nodes[e.From]; !ok {
			return nil, nil, fmt.Errorf("corepipeline: replay: edge references unknown node %d", e.From)
		}
		if _, ok := nodes[e.To]; !ok {
			return nil, nil, fmt.Errorf("corepipeline: replay: edge references unknown node %d", e.To)
		}
	}

	path := make([]TopicID, len(snapshot.TopicPath))
	for i, id := range snapshot.TopicPath {
		if _, ok := nodes[id]; !ok {
			return nil, nil, fmt.Errorf("corepipeline: replay: topic path references unknown node %d", id)
		}
		path[i] = id
	}

	edges := make([]Edge, len(snapshot.Edges))
	copy(edges, snapshot.Edges)

	return &Graph{Nodes: nodes, Edges: edges}, path, nil
}
