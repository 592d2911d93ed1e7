package traverse

import (
	"testing"

	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/codegraphhq/codegraph/internal/store"
)

// chainStore builds a store with the call chain A → B → C → D plus a File
// root containing all of them.
func chainStore(t *testing.T) (*store.Store, map[string]string) {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ids := map[string]string{}
	file := &graph.Node{
		ID: graph.GenerateNodeID("chain.rs", graph.KindFile, "chain.rs", 1),
		Kind: graph.KindFile, Name: "chain.rs", QualifiedName: "chain.rs",
		FilePath: "chain.rs", StartLine: 1, EndLine: 40, Visibility: graph.VisPub,
	}
	if err := s.UpsertNode(file); err != nil {
		t.Fatalf("UpsertNode file: %v", err)
	}
	ids["file"] = file.ID

	line := 1
	for _, name := range []string{"A", "B", "C", "D"} {
		n := &graph.Node{
			ID:   graph.GenerateNodeID("chain.rs", graph.KindFunction, name, line),
			Kind: graph.KindFunction, Name: name,
			QualifiedName: "chain.rs::" + name, FilePath: "chain.rs",
			StartLine: line, EndLine: line + 2, Visibility: graph.VisPrivate,
		}
		if err := s.UpsertNode(n); err != nil {
			t.Fatalf("UpsertNode %s: %v", name, err)
		}
		ids[name] = n.ID
		_ = s.InsertEdge(&graph.Edge{Source: file.ID, Target: n.ID, Kind: graph.EdgeContains, Line: line})
		line += 10
	}

	for _, pair := range [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}} {
		err := s.InsertEdge(&graph.Edge{
			Source: ids[pair[0]], Target: ids[pair[1]], Kind: graph.EdgeCalls, Line: 2,
		})
		if err != nil {
			t.Fatalf("InsertEdge: %v", err)
		}
	}
	return s, ids
}

func names(nodes []*graph.Node) map[string]bool {
	out := map[string]bool{}
	for _, n := range nodes {
		out[n.Name] = true
	}
	return out
}

func TestImpactRadiusFullDepth(t *testing.T) {
	s, ids := chainStore(t)
	tr := New(s)

	sub, err := tr.ImpactRadius(ids["D"], 10)
	if err != nil {
		t.Fatalf("ImpactRadius: %v", err)
	}
	got := names(sub.Nodes)
	for _, want := range []string{"A", "B", "C"} {
		if !got[want] {
			t.Errorf("expected %s in impact set, got %v", want, got)
		}
	}
	if got["D"] {
		t.Error("start node must not be in its own impact set")
	}
	if len(sub.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(sub.Nodes))
	}
}

func TestImpactRadiusDepthOne(t *testing.T) {
	s, ids := chainStore(t)
	tr := New(s)

	sub, err := tr.ImpactRadius(ids["D"], 1)
	if err != nil {
		t.Fatalf("ImpactRadius: %v", err)
	}
	got := names(sub.Nodes)
	if len(sub.Nodes) != 1 || !got["C"] {
		t.Errorf("expected exactly {C}, got %v", got)
	}
}

func TestCallersAndCallees(t *testing.T) {
	s, ids := chainStore(t)
	tr := New(s)

	callers, err := tr.Callers(ids["C"], 5)
	if err != nil {
		t.Fatalf("Callers: %v", err)
	}
	gotCallers := map[string]bool{}
	for _, hit := range callers {
		gotCallers[hit.Node.Name] = true
		if hit.Edge.Kind != graph.EdgeCalls {
			t.Errorf("caller hit with non-call edge: %+v", hit.Edge)
		}
	}
	if !gotCallers["A"] || !gotCallers["B"] || len(callers) != 2 {
		t.Errorf("expected callers {A, B}, got %v", gotCallers)
	}

	callees, err := tr.Callees(ids["A"], 5)
	if err != nil {
		t.Fatalf("Callees: %v", err)
	}
	gotCallees := map[string]bool{}
	for _, hit := range callees {
		gotCallees[hit.Node.Name] = true
	}
	if !gotCallees["B"] || !gotCallees["C"] || !gotCallees["D"] || len(callees) != 3 {
		t.Errorf("expected callees {B, C, D}, got %v", gotCallees)
	}

	shallow, _ := tr.Callees(ids["A"], 1)
	if len(shallow) != 1 || shallow[0].Node.Name != "B" {
		t.Errorf("expected depth-1 callees {B}, got %d hits", len(shallow))
	}
}

func TestCyclicCallGraphTerminates(t *testing.T) {
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	var ids []string
	for i, name := range []string{"ping", "pong"} {
		n := &graph.Node{
			ID:   graph.GenerateNodeID("cyc.rs", graph.KindFunction, name, i*10+1),
			Kind: graph.KindFunction, Name: name,
			QualifiedName: "cyc.rs::" + name, FilePath: "cyc.rs",
			StartLine: i*10 + 1, Visibility: graph.VisPrivate,
		}
		_ = s.UpsertNode(n)
		ids = append(ids, n.ID)
	}
	// Mutual recursion.
	_ = s.InsertEdge(&graph.Edge{Source: ids[0], Target: ids[1], Kind: graph.EdgeCalls, Line: 2})
	_ = s.InsertEdge(&graph.Edge{Source: ids[1], Target: ids[0], Kind: graph.EdgeCalls, Line: 12})

	tr := New(s)
	sub, err := tr.BFS(ids[0], graph.TraversalOptions{
		MaxDepth:     100,
		EdgeKinds:    []graph.EdgeKind{graph.EdgeCalls},
		Direction:    graph.DirBoth,
		IncludeStart: true,
	})
	if err != nil {
		t.Fatalf("BFS: %v", err)
	}
	if len(sub.Nodes) != 2 {
		t.Errorf("expected 2 nodes in cycle, got %d", len(sub.Nodes))
	}

	hits, err := tr.Callees(ids[0], 50)
	if err != nil {
		t.Fatalf("Callees: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 callee in cycle, got %d", len(hits))
	}
}

func TestBFSNodeKindFilter(t *testing.T) {
	s, ids := chainStore(t)
	tr := New(s)

	sub, err := tr.BFS(ids["file"], graph.TraversalOptions{
		MaxDepth:  1,
		EdgeKinds: []graph.EdgeKind{graph.EdgeContains},
		NodeKinds: []graph.NodeKind{graph.KindFunction},
		Direction: graph.DirOutgoing,
	})
	if err != nil {
		t.Fatalf("BFS: %v", err)
	}
	if len(sub.Nodes) != 4 {
		t.Errorf("expected 4 contained functions, got %d", len(sub.Nodes))
	}
}

func TestBFSMissingStart(t *testing.T) {
	s, _ := chainStore(t)
	tr := New(s)

	sub, err := tr.BFS("function:missing", graph.DefaultTraversalOptions())
	if err != nil {
		t.Fatalf("BFS: %v", err)
	}
	if len(sub.Nodes) != 0 || len(sub.Roots) != 0 {
		t.Errorf("expected empty subgraph, got %+v", sub)
	}
}

func TestDFSMatchesBFSReachability(t *testing.T) {
	s, ids := chainStore(t)
	tr := New(s)

	opts := graph.TraversalOptions{
		MaxDepth:  10,
		EdgeKinds: []graph.EdgeKind{graph.EdgeCalls},
		Direction: graph.DirOutgoing,
	}
	bfs, err := tr.BFS(ids["A"], opts)
	if err != nil {
		t.Fatalf("BFS: %v", err)
	}
	dfs, err := tr.DFS(ids["A"], opts)
	if err != nil {
		t.Fatalf("DFS: %v", err)
	}
	if len(bfs.Nodes) != len(dfs.Nodes) {
		t.Errorf("BFS found %d nodes, DFS found %d", len(bfs.Nodes), len(dfs.Nodes))
	}
}

func TestCallGraphBothDirections(t *testing.T) {
	s, ids := chainStore(t)
	tr := New(s)

	sub, err := tr.CallGraph(ids["B"], 1)
	if err != nil {
		t.Fatalf("CallGraph: %v", err)
	}
	got := names(sub.Nodes)
	for _, want := range []string{"A", "B", "C"} {
		if !got[want] {
			t.Errorf("expected %s in call graph, got %v", want, got)
		}
	}
	if got["D"] {
		t.Error("D is beyond depth 1")
	}
}

func TestTypeHierarchy(t *testing.T) {
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	reader := &graph.Node{
		ID:   graph.GenerateNodeID("io.go", graph.KindInterfaceType, "Reader", 1),
		Kind: graph.KindInterfaceType, Name: "Reader",
		QualifiedName: "io.go::Reader", FilePath: "io.go", StartLine: 1,
		Visibility: graph.VisPub,
	}
	readWriter := &graph.Node{
		ID:   graph.GenerateNodeID("io.go", graph.KindInterfaceType, "ReadWriter", 5),
		Kind: graph.KindInterfaceType, Name: "ReadWriter",
		QualifiedName: "io.go::ReadWriter", FilePath: "io.go", StartLine: 5,
		Visibility: graph.VisPub,
	}
	impl := &graph.Node{
		ID:   graph.GenerateNodeID("file.go", graph.KindStruct, "File", 1),
		Kind: graph.KindStruct, Name: "File",
		QualifiedName: "file.go::File", FilePath: "file.go", StartLine: 1,
		Visibility: graph.VisPub,
	}
	for _, n := range []*graph.Node{reader, readWriter, impl} {
		_ = s.UpsertNode(n)
	}
	_ = s.InsertEdge(&graph.Edge{Source: readWriter.ID, Target: reader.ID, Kind: graph.EdgeExtends, Line: 6})
	_ = s.InsertEdge(&graph.Edge{Source: impl.ID, Target: reader.ID, Kind: graph.EdgeImplements, Line: 1})

	tr := New(s)
	sub, err := tr.TypeHierarchy(reader.ID)
	if err != nil {
		t.Fatalf("TypeHierarchy: %v", err)
	}
	got := names(sub.Nodes)
	for _, want := range []string{"Reader", "ReadWriter", "File"} {
		if !got[want] {
			t.Errorf("expected %s in hierarchy, got %v", want, got)
		}
	}
}

func TestFindPath(t *testing.T) {
	s, ids := chainStore(t)
	tr := New(s)

	path, err := tr.FindPath(ids["A"], ids["D"], []graph.EdgeKind{graph.EdgeCalls})
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if path == nil {
		t.Fatal("expected a path")
	}
	if len(path) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(path))
	}
	if path[0].Node.Name != "A" || path[0].Edge != nil {
		t.Errorf("unexpected first step: %+v", path[0])
	}
	if path[3].Node.Name != "D" || path[3].Edge == nil {
		t.Errorf("unexpected last step: %+v", path[3])
	}

	none, err := tr.FindPath(ids["A"], "function:nowhere", nil)
	if err != nil {
		t.Fatalf("FindPath missing: %v", err)
	}
	if none != nil {
		t.Error("expected nil path to unknown node")
	}
}
