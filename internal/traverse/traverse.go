// Package traverse implements graph traversal and the derived queries built
// on it: callers, callees, impact radius, call graphs, type hierarchies,
// shortest paths, and dead-code detection.
package traverse

import (
	"github.com/codegraphhq/codegraph/internal/graph"
)

// Store is the read surface the traverser needs. *store.Store satisfies it.
type Store interface {
	GetNodeByID(id string) (*graph.Node, error)
	GetNodesByKind(kind graph.NodeKind) ([]*graph.Node, error)
	GetNodesByFile(filePath string) ([]*graph.Node, error)
	AllNodes() ([]*graph.Node, error)
	AllFiles() ([]*graph.FileRecord, error)
	GetOutgoingEdges(sourceID string, kinds []graph.EdgeKind) ([]*graph.Edge, error)
	GetIncomingEdges(targetID string, kinds []graph.EdgeKind) ([]*graph.Edge, error)
	IncomingEdgeCounts(excludeKinds []graph.EdgeKind) (map[string]int, error)
}

// Traverser performs traversal queries over a store.
type Traverser struct {
	st Store
}

// New creates a Traverser backed by the given store.
func New(st Store) *Traverser {
	return &Traverser{st: st}
}

// Hit pairs a discovered node with the edge used to reach it.
type Hit struct {
	Node *graph.Node `json:"node"`
	Edge *graph.Edge `json:"edge"`
}

// BFS performs a breadth-first traversal from startID under the given
// options. Depth counting is per level; a visited set keyed by node ID keeps
// cyclic graphs finite.
func (t *Traverser) BFS(startID string, opts graph.TraversalOptions) (*graph.Subgraph, error) {
	sub := &graph.Subgraph{}

	start, err := t.st.GetNodeByID(startID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return sub, nil
	}

	visited := map[string]bool{startID: true}
	if opts.IncludeStart && nodeMatches(start, opts.NodeKinds) {
		sub.Roots = append(sub.Roots, startID)
		sub.Nodes = append(sub.Nodes, start)
	}

	type queued struct {
		id    string
		depth int
	}
	queue := []queued{{id: startID}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= opts.MaxDepth {
			continue
		}
		if opts.Limit > 0 && len(sub.Nodes) >= opts.Limit {
			break
		}

		edges, err := t.edgesFor(item.id, opts.EdgeKinds, opts.Direction)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			neighborID := neighborOf(edge, item.id, opts.Direction)
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			neighbor, err := t.st.GetNodeByID(neighborID)
			if err != nil {
				return nil, err
			}
			if neighbor == nil {
				continue
			}
			sub.Edges = append(sub.Edges, edge)
			if nodeMatches(neighbor, opts.NodeKinds) {
				sub.Nodes = append(sub.Nodes, neighbor)
				if opts.Limit > 0 && len(sub.Nodes) >= opts.Limit {
					return sub, nil
				}
			}
			queue = append(queue, queued{id: neighborID, depth: item.depth + 1})
		}
	}

	return sub, nil
}

// DFS performs a depth-first traversal from startID under the given options.
func (t *Traverser) DFS(startID string, opts graph.TraversalOptions) (*graph.Subgraph, error) {
	sub := &graph.Subgraph{}

	start, err := t.st.GetNodeByID(startID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return sub, nil
	}

	visited := map[string]bool{startID: true}
	if opts.IncludeStart && nodeMatches(start, opts.NodeKinds) {
		sub.Roots = append(sub.Roots, startID)
		sub.Nodes = append(sub.Nodes, start)
	}
	if err := t.dfs(startID, 0, opts, visited, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (t *Traverser) dfs(currentID string, depth int, opts graph.TraversalOptions, visited map[string]bool, sub *graph.Subgraph) error {
	if depth >= opts.MaxDepth {
		return nil
	}
	if opts.Limit > 0 && len(sub.Nodes) >= opts.Limit {
		return nil
	}

	edges, err := t.edgesFor(currentID, opts.EdgeKinds, opts.Direction)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		neighborID := neighborOf(edge, currentID, opts.Direction)
		if visited[neighborID] {
			continue
		}
		visited[neighborID] = true

		neighbor, err := t.st.GetNodeByID(neighborID)
		if err != nil {
			return err
		}
		if neighbor == nil {
			continue
		}
		sub.Edges = append(sub.Edges, edge)
		if nodeMatches(neighbor, opts.NodeKinds) {
			sub.Nodes = append(sub.Nodes, neighbor)
			if opts.Limit > 0 && len(sub.Nodes) >= opts.Limit {
				return nil
			}
		}
		if err := t.dfs(neighborID, depth+1, opts, visited, sub); err != nil {
			return err
		}
	}
	return nil
}

// Callers returns the nodes that transitively call the given node, with the
// call edge that discovered each, following incoming Calls edges up to
// maxDepth levels.
func (t *Traverser) Callers(nodeID string, maxDepth int) ([]Hit, error) {
	return t.callChain(nodeID, maxDepth, graph.DirIncoming)
}

// Callees returns the nodes the given node transitively calls, following
// outgoing Calls edges up to maxDepth levels.
func (t *Traverser) Callees(nodeID string, maxDepth int) ([]Hit, error) {
	return t.callChain(nodeID, maxDepth, graph.DirOutgoing)
}

func (t *Traverser) callChain(nodeID string, maxDepth int, dir graph.Direction) ([]Hit, error) {
	var hits []Hit
	visited := map[string]bool{nodeID: true}

	type queued struct {
		id    string
		depth int
	}
	queue := []queued{{id: nodeID}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.depth >= maxDepth {
			continue
		}

		edges, err := t.edgesFor(item.id, []graph.EdgeKind{graph.EdgeCalls}, dir)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			nextID := neighborOf(edge, item.id, dir)
			if visited[nextID] {
				continue
			}
			visited[nextID] = true

			node, err := t.st.GetNodeByID(nextID)
			if err != nil {
				return nil, err
			}
			if node == nil {
				continue
			}
			hits = append(hits, Hit{Node: node, Edge: edge})
			queue = append(queue, queued{id: nextID, depth: item.depth + 1})
		}
	}
	return hits, nil
}

// ImpactRadius returns the transitive set of nodes that reach the given node
// via Calls edges — everything that would be affected if it changed. The
// start node itself is not part of its own impact.
func (t *Traverser) ImpactRadius(nodeID string, maxDepth int) (*graph.Subgraph, error) {
	return t.BFS(nodeID, graph.TraversalOptions{
		MaxDepth:  maxDepth,
		EdgeKinds: []graph.EdgeKind{graph.EdgeCalls},
		Direction: graph.DirIncoming,
	})
}

// CallGraph builds a bidirectional call graph around a node: callees via
// outgoing Calls edges and callers via incoming ones, merged and
// deduplicated.
func (t *Traverser) CallGraph(nodeID string, depth int) (*graph.Subgraph, error) {
	outgoing, err := t.BFS(nodeID, graph.TraversalOptions{
		MaxDepth:     depth,
		EdgeKinds:    []graph.EdgeKind{graph.EdgeCalls},
		Direction:    graph.DirOutgoing,
		IncludeStart: true,
	})
	if err != nil {
		return nil, err
	}
	incoming, err := t.BFS(nodeID, graph.TraversalOptions{
		MaxDepth:  depth,
		EdgeKinds: []graph.EdgeKind{graph.EdgeCalls},
		Direction: graph.DirIncoming,
	})
	if err != nil {
		return nil, err
	}
	return mergeSubgraphs(outgoing, incoming), nil
}

// TypeHierarchy discovers the hierarchy around a node by following
// Implements and Extends edges in both directions.
func (t *Traverser) TypeHierarchy(nodeID string) (*graph.Subgraph, error) {
	return t.BFS(nodeID, graph.TraversalOptions{
		MaxDepth:     10,
		EdgeKinds:    []graph.EdgeKind{graph.EdgeImplements, graph.EdgeExtends},
		Direction:    graph.DirBoth,
		IncludeStart: true,
	})
}

// FindPath returns the shortest path between two nodes over the given edge
// kinds (any kind when empty), traversing edges in both directions. Each
// step pairs a node with the edge used to reach it; the first step has a nil
// edge. Returns nil when no path exists.
func (t *Traverser) FindPath(fromID, toID string, kinds []graph.EdgeKind) ([]Hit, error) {
	if fromID == toID {
		node, err := t.st.GetNodeByID(fromID)
		if err != nil || node == nil {
			return nil, err
		}
		return []Hit{{Node: node}}, nil
	}

	type parentLink struct {
		parent string
		edge   *graph.Edge
	}
	parents := map[string]parentLink{}
	visited := map[string]bool{fromID: true}
	queue := []string{fromID}
	found := false

	for len(queue) > 0 && !found {
		currentID := queue[0]
		queue = queue[1:]

		edges, err := t.edgesFor(currentID, kinds, graph.DirBoth)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			neighbor := neighborOf(edge, currentID, graph.DirBoth)
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			parents[neighbor] = parentLink{parent: currentID, edge: edge}
			if neighbor == toID {
				found = true
				break
			}
			queue = append(queue, neighbor)
		}
	}
	if !found {
		return nil, nil
	}

	// Walk the parent map back from the target.
	var reversed []Hit
	current := toID
	for current != fromID {
		link, ok := parents[current]
		if !ok {
			return nil, nil
		}
		node, err := t.st.GetNodeByID(current)
		if err != nil {
			return nil, err
		}
		if node != nil {
			reversed = append(reversed, Hit{Node: node, Edge: link.edge})
		}
		current = link.parent
	}
	startNode, err := t.st.GetNodeByID(fromID)
	if err != nil {
		return nil, err
	}
	if startNode != nil {
		reversed = append(reversed, Hit{Node: startNode})
	}

	path := make([]Hit, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path, nil
}

func (t *Traverser) edgesFor(nodeID string, kinds []graph.EdgeKind, dir graph.Direction) ([]*graph.Edge, error) {
	switch dir {
	case graph.DirOutgoing:
		return t.st.GetOutgoingEdges(nodeID, kinds)
	case graph.DirIncoming:
		return t.st.GetIncomingEdges(nodeID, kinds)
	default:
		out, err := t.st.GetOutgoingEdges(nodeID, kinds)
		if err != nil {
			return nil, err
		}
		in, err := t.st.GetIncomingEdges(nodeID, kinds)
		if err != nil {
			return nil, err
		}
		return append(out, in...), nil
	}
}

// neighborOf returns the edge endpoint opposite the current node for the
// given direction.
func neighborOf(edge *graph.Edge, currentID string, dir graph.Direction) string {
	switch dir {
	case graph.DirOutgoing:
		return edge.Target
	case graph.DirIncoming:
		return edge.Source
	default:
		if edge.Source == currentID {
			return edge.Target
		}
		return edge.Source
	}
}

func nodeMatches(n *graph.Node, kinds []graph.NodeKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// mergeSubgraphs concatenates two subgraphs, deduplicating nodes by ID and
// edges by (source, target, kind, line).
func mergeSubgraphs(a, b *graph.Subgraph) *graph.Subgraph {
	merged := &graph.Subgraph{Roots: a.Roots}
	seenNodes := map[string]bool{}
	type edgeKey struct {
		source, target string
		kind           graph.EdgeKind
		line           int
	}
	seenEdges := map[edgeKey]bool{}

	for _, sub := range []*graph.Subgraph{a, b} {
		for _, n := range sub.Nodes {
			if !seenNodes[n.ID] {
				seenNodes[n.ID] = true
				merged.Nodes = append(merged.Nodes, n)
			}
		}
		for _, e := range sub.Edges {
			key := edgeKey{source: e.Source, target: e.Target, kind: e.Kind, line: e.Line}
			if !seenEdges[key] {
				seenEdges[key] = true
				merged.Edges = append(merged.Edges, e)
			}
		}
	}
	return merged
}
