package traverse

import (
	"sort"
	"strings"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// deadCodeIgnoredKinds are incoming edge kinds that do not count as usage:
// every node has a Contains parent, and an annotation attached to a symbol
// does not make it reachable.
var deadCodeIgnoredKinds = []graph.EdgeKind{graph.EdgeContains, graph.EdgeAnnotates}

// DeadCode returns nodes with no incoming non-containment edges, restricted
// to the given kinds (all kinds when empty). Entry points named "main",
// publicly visible symbols, and test entries are excluded.
func (t *Traverser) DeadCode(kinds []graph.NodeKind) ([]*graph.Node, error) {
	var nodes []*graph.Node
	var err error
	if len(kinds) == 0 {
		nodes, err = t.st.AllNodes()
	} else {
		for _, kind := range kinds {
			batch, kindErr := t.st.GetNodesByKind(kind)
			if kindErr != nil {
				return nil, kindErr
			}
			nodes = append(nodes, batch...)
		}
	}
	if err != nil {
		return nil, err
	}

	counts, err := t.st.IncomingEdgeCounts(deadCodeIgnoredKinds)
	if err != nil {
		return nil, err
	}

	var dead []*graph.Node
	for _, node := range nodes {
		if node.Name == "main" {
			continue
		}
		if node.Visibility == graph.VisPub {
			// Publicly callable is not dead by this definition.
			continue
		}
		if counts[node.ID] > 0 {
			continue
		}
		isTest, err := t.isTestEntry(node)
		if err != nil {
			return nil, err
		}
		if isTest {
			continue
		}
		dead = append(dead, node)
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i].ID < dead[j].ID })
	return dead, nil
}

// isTestEntry reports whether a node is a test entry: a test-prefixed name
// or a symbol annotated with a Test annotation.
func (t *Traverser) isTestEntry(node *graph.Node) (bool, error) {
	if strings.HasPrefix(node.Name, "test") || strings.HasPrefix(node.Name, "Test") {
		return true, nil
	}
	annotates, err := t.st.GetIncomingEdges(node.ID, []graph.EdgeKind{graph.EdgeAnnotates})
	if err != nil {
		return false, err
	}
	for _, edge := range annotates {
		source, err := t.st.GetNodeByID(edge.Source)
		if err != nil {
			return false, err
		}
		if source != nil && strings.Contains(source.Name, "Test") {
			return true, nil
		}
	}
	return false, nil
}

// NodeMetrics describes the connectivity and structure around a node.
type NodeMetrics struct {
	IncomingEdgeCount int `json:"incoming_edge_count"`
	OutgoingEdgeCount int `json:"outgoing_edge_count"`
	CallCount         int `json:"call_count"`
	CallerCount       int `json:"caller_count"`
	ChildCount        int `json:"child_count"`
	Depth             int `json:"depth"`
}

// Metrics computes graph connectivity metrics for a single node.
func (t *Traverser) Metrics(nodeID string) (*NodeMetrics, error) {
	incoming, err := t.st.GetIncomingEdges(nodeID, nil)
	if err != nil {
		return nil, err
	}
	outgoing, err := t.st.GetOutgoingEdges(nodeID, nil)
	if err != nil {
		return nil, err
	}

	m := &NodeMetrics{
		IncomingEdgeCount: len(incoming),
		OutgoingEdgeCount: len(outgoing),
	}
	for _, e := range incoming {
		if e.Kind == graph.EdgeCalls {
			m.CallerCount++
		}
	}
	for _, e := range outgoing {
		switch e.Kind {
		case graph.EdgeCalls:
			m.CallCount++
		case graph.EdgeContains:
			m.ChildCount++
		}
	}

	depth, err := t.containmentDepth(nodeID)
	if err != nil {
		return nil, err
	}
	m.Depth = depth
	return m, nil
}

// containmentDepth walks up incoming Contains edges to the forest root.
func (t *Traverser) containmentDepth(nodeID string) (int, error) {
	depth := 0
	visited := map[string]bool{}
	currentID := nodeID
	for {
		if visited[currentID] {
			break
		}
		visited[currentID] = true
		incoming, err := t.st.GetIncomingEdges(currentID, []graph.EdgeKind{graph.EdgeContains})
		if err != nil {
			return 0, err
		}
		if len(incoming) == 0 {
			break
		}
		currentID = incoming[0].Source
		depth++
	}
	return depth, nil
}

// FileDependencies returns the sorted set of files the given file depends
// on, via outgoing Uses and Calls edges from its nodes.
func (t *Traverser) FileDependencies(filePath string) ([]string, error) {
	return t.fileNeighbors(filePath, graph.DirOutgoing)
}

// FileDependents returns the sorted set of files that depend on the given
// file, via incoming Uses and Calls edges to its nodes.
func (t *Traverser) FileDependents(filePath string) ([]string, error) {
	return t.fileNeighbors(filePath, graph.DirIncoming)
}

func (t *Traverser) fileNeighbors(filePath string, dir graph.Direction) ([]string, error) {
	nodes, err := t.st.GetNodesByFile(filePath)
	if err != nil {
		return nil, err
	}

	kinds := []graph.EdgeKind{graph.EdgeUses, graph.EdgeCalls}
	seen := map[string]bool{}
	for _, node := range nodes {
		edges, err := t.edgesFor(node.ID, kinds, dir)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			otherID := neighborOf(edge, node.ID, dir)
			other, err := t.st.GetNodeByID(otherID)
			if err != nil {
				return nil, err
			}
			if other != nil && other.FilePath != filePath {
				seen[other.FilePath] = true
			}
		}
	}

	result := make([]string, 0, len(seen))
	for path := range seen {
		result = append(result, path)
	}
	sort.Strings(result)
	return result, nil
}

// CircularDependencies detects file-level dependency cycles. Each returned
// cycle lists the file paths along it, ending with a repeat of the entry
// file.
func (t *Traverser) CircularDependencies() ([][]string, error) {
	files, err := t.st.AllFiles()
	if err != nil {
		return nil, err
	}

	adj := make(map[string][]string, len(files))
	for _, f := range files {
		deps, err := t.FileDependencies(f.Path)
		if err != nil {
			return nil, err
		}
		adj[f.Path] = deps
	}

	paths := make([]string, 0, len(adj))
	for p := range adj {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var cycles [][]string
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string

	var visit func(node string)
	visit = func(node string) {
		visited[node] = true
		onStack[node] = true
		stack = append(stack, node)

		for _, neighbor := range adj[node] {
			if !visited[neighbor] {
				visit(neighbor)
			} else if onStack[neighbor] {
				var cycle []string
				collecting := false
				for _, item := range stack {
					if item == neighbor {
						collecting = true
					}
					if collecting {
						cycle = append(cycle, item)
					}
				}
				cycle = append(cycle, neighbor)
				cycles = append(cycles, cycle)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[node] = false
	}

	for _, p := range paths {
		if !visited[p] {
			visit(p)
		}
	}
	return cycles, nil
}
