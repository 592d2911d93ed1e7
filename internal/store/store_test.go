package store

import (
	"testing"

	"github.com/codegraphhq/codegraph/internal/graph"
)

func testNode(id, name, file string, kind graph.NodeKind, line int) *graph.Node {
	if id == "" {
		id = graph.GenerateNodeID(file, kind, name, line)
	}
	return &graph.Node{
		ID:            id,
		Kind:          kind,
		Name:          name,
		QualifiedName: file + "::" + name,
		FilePath:      file,
		StartLine:     line,
		EndLine:       line + 2,
		StartColumn:   1,
		EndColumn:     1,
		Visibility:    graph.VisPrivate,
		UpdatedAt:     1700000000,
	}
}

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	s.Close()
}

func TestSchemaVersion(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != schemaVersion {
		t.Errorf("expected version %d, got %d", schemaVersion, v)
	}
}

func TestNodeCRUD(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	n := testNode("", "Foo", "main.go", graph.KindFunction, 10)
	n.Signature = "func Foo(x int) error"
	n.Docstring = "Foo does things."
	n.Visibility = graph.VisPub
	if err := s.UpsertNode(n); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}

	found, err := s.GetNodeByID(n.ID)
	if err != nil {
		t.Fatalf("GetNodeByID: %v", err)
	}
	if found == nil {
		t.Fatal("expected node, got nil")
	}
	if found.Name != "Foo" || found.Signature != "func Foo(x int) error" {
		t.Errorf("unexpected node: %+v", found)
	}
	if found.Visibility != graph.VisPub {
		t.Errorf("expected public visibility, got %q", found.Visibility)
	}

	missing, err := s.GetNodeByID("function:doesnotexist")
	if err != nil {
		t.Fatalf("GetNodeByID missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing node")
	}

	byFile, err := s.GetNodesByFile("main.go")
	if err != nil {
		t.Fatalf("GetNodesByFile: %v", err)
	}
	if len(byFile) != 1 {
		t.Fatalf("expected 1 node, got %d", len(byFile))
	}

	byKind, err := s.GetNodesByKind(graph.KindFunction)
	if err != nil {
		t.Fatalf("GetNodesByKind: %v", err)
	}
	if len(byKind) != 1 {
		t.Fatalf("expected 1 node, got %d", len(byKind))
	}
}

func TestUpsertNodeReplaces(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	n := testNode("", "Foo", "main.go", graph.KindFunction, 10)
	if err := s.UpsertNode(n); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	n.Signature = "func Foo() // updated"
	if err := s.UpsertNode(n); err != nil {
		t.Fatalf("UpsertNode again: %v", err)
	}

	count, _ := s.CountNodes()
	if count != 1 {
		t.Errorf("expected 1 node after replace, got %d", count)
	}
	found, _ := s.GetNodeByID(n.ID)
	if found.Signature != "func Foo() // updated" {
		t.Errorf("expected updated signature, got %q", found.Signature)
	}
}

func TestUpsertNodeBatch(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	var nodes []*graph.Node
	for i := 0; i < 200; i++ {
		nodes = append(nodes, testNode("", "fn"+string(rune('a'+i%26))+string(rune('0'+i/26)), "big.go", graph.KindFunction, i+1))
	}
	if err := s.UpsertNodeBatch(nodes); err != nil {
		t.Fatalf("UpsertNodeBatch: %v", err)
	}
	count, _ := s.CountNodes()
	if count != 200 {
		t.Errorf("expected 200 nodes, got %d", count)
	}
}

func TestEdgeCRUD(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	a := testNode("", "a", "x.go", graph.KindFunction, 1)
	b := testNode("", "b", "x.go", graph.KindFunction, 5)
	for _, n := range []*graph.Node{a, b} {
		if err := s.UpsertNode(n); err != nil {
			t.Fatalf("UpsertNode: %v", err)
		}
	}

	e := &graph.Edge{Source: a.ID, Target: b.ID, Kind: graph.EdgeCalls, Line: 2}
	if err := s.InsertEdge(e); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	out, err := s.GetOutgoingEdges(a.ID, nil)
	if err != nil {
		t.Fatalf("GetOutgoingEdges: %v", err)
	}
	if len(out) != 1 || out[0].Target != b.ID || out[0].Line != 2 {
		t.Fatalf("unexpected outgoing edges: %+v", out)
	}

	in, err := s.GetIncomingEdges(b.ID, []graph.EdgeKind{graph.EdgeCalls})
	if err != nil {
		t.Fatalf("GetIncomingEdges: %v", err)
	}
	if len(in) != 1 || in[0].Source != a.ID {
		t.Fatalf("unexpected incoming edges: %+v", in)
	}

	none, err := s.GetIncomingEdges(b.ID, []graph.EdgeKind{graph.EdgeContains})
	if err != nil {
		t.Fatalf("GetIncomingEdges filtered: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no contains edges, got %d", len(none))
	}
}

func TestDuplicateEdgesDifferentLines(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	a := testNode("", "a", "x.go", graph.KindFunction, 1)
	b := testNode("", "b", "x.go", graph.KindFunction, 5)
	for _, n := range []*graph.Node{a, b} {
		_ = s.UpsertNode(n)
	}

	// Two call sites at different lines stay distinct.
	_ = s.InsertEdge(&graph.Edge{Source: a.ID, Target: b.ID, Kind: graph.EdgeCalls, Line: 2})
	_ = s.InsertEdge(&graph.Edge{Source: a.ID, Target: b.ID, Kind: graph.EdgeCalls, Line: 3})

	out, _ := s.GetOutgoingEdges(a.ID, []graph.EdgeKind{graph.EdgeCalls})
	if len(out) != 2 {
		t.Errorf("expected 2 call edges, got %d", len(out))
	}

	exists, err := s.EdgeExists(&graph.Edge{Source: a.ID, Target: b.ID, Kind: graph.EdgeCalls, Line: 2})
	if err != nil {
		t.Fatalf("EdgeExists: %v", err)
	}
	if !exists {
		t.Error("expected edge at line 2 to exist")
	}
	exists, _ = s.EdgeExists(&graph.Edge{Source: a.ID, Target: b.ID, Kind: graph.EdgeCalls, Line: 9})
	if exists {
		t.Error("expected no edge at line 9")
	}
}

func TestDeleteNodesByFileCascade(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	kept := testNode("", "keep", "other.go", graph.KindFunction, 1)
	doomedA := testNode("", "a", "gone.go", graph.KindFunction, 1)
	doomedB := testNode("", "b", "gone.go", graph.KindFunction, 9)
	for _, n := range []*graph.Node{kept, doomedA, doomedB} {
		_ = s.UpsertNode(n)
	}

	// Edges in both directions across the file boundary.
	_ = s.InsertEdge(&graph.Edge{Source: doomedA.ID, Target: doomedB.ID, Kind: graph.EdgeContains})
	_ = s.InsertEdge(&graph.Edge{Source: kept.ID, Target: doomedA.ID, Kind: graph.EdgeCalls, Line: 2})
	_ = s.InsertEdge(&graph.Edge{Source: doomedB.ID, Target: kept.ID, Kind: graph.EdgeCalls, Line: 10})

	_ = s.InsertUnresolvedRefs([]graph.UnresolvedRef{
		{FromNodeID: doomedA.ID, ReferenceName: "x", ReferenceKind: graph.EdgeCalls, Line: 2, Column: 1, FilePath: "gone.go"},
	})
	_ = s.UpsertVector(doomedA.ID, []byte{0, 0, 128, 63}, "test-model")

	if err := s.DeleteNodesByFile("gone.go"); err != nil {
		t.Fatalf("DeleteNodesByFile: %v", err)
	}

	// No node, edge, ref, or vector may reference the file's nodes.
	for _, id := range []string{doomedA.ID, doomedB.ID} {
		if n, _ := s.GetNodeByID(id); n != nil {
			t.Errorf("node %s survived deletion", id)
		}
	}
	if in, _ := s.GetIncomingEdges(kept.ID, nil); len(in) != 0 {
		t.Errorf("expected no incoming edges to kept node, got %d", len(in))
	}
	if out, _ := s.GetOutgoingEdges(kept.ID, nil); len(out) != 0 {
		t.Errorf("expected no outgoing edges from kept node, got %d", len(out))
	}
	if refs, _ := s.GetUnresolvedRefs(); len(refs) != 0 {
		t.Errorf("expected no unresolved refs, got %d", len(refs))
	}
	if v, _ := s.GetVector(doomedA.ID); v != nil {
		t.Error("expected vector deleted")
	}
	if n, _ := s.GetNodeByID(kept.ID); n == nil {
		t.Error("kept node should survive")
	}
}

func TestFileRecords(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	fr := &graph.FileRecord{
		Path:        "src/main.rs",
		ContentHash: "abc123",
		Size:        42,
		ModifiedAt:  1700000000,
		IndexedAt:   1700000001,
		NodeCount:   3,
	}
	if err := s.UpsertFile(fr); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}

	got, err := s.GetFile("src/main.rs")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if got == nil || got.ContentHash != "abc123" || got.NodeCount != 3 {
		t.Fatalf("unexpected file record: %+v", got)
	}

	missing, err := s.GetFile("nope.rs")
	if err != nil {
		t.Fatalf("GetFile missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for untracked file")
	}

	fr.ContentHash = "def456"
	_ = s.UpsertFile(fr)
	got, _ = s.GetFile("src/main.rs")
	if got.ContentHash != "def456" {
		t.Errorf("expected updated hash, got %q", got.ContentHash)
	}

	all, _ := s.AllFiles()
	if len(all) != 1 {
		t.Errorf("expected 1 file, got %d", len(all))
	}

	if err := s.DeleteFile("src/main.rs"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	got, _ = s.GetFile("src/main.rs")
	if got != nil {
		t.Error("expected file record deleted")
	}
}

func TestUnresolvedRefs(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	refs := []graph.UnresolvedRef{
		{FromNodeID: "function:aaa", ReferenceName: "helper", ReferenceKind: graph.EdgeCalls, Line: 3, Column: 5, FilePath: "main.rs"},
		{FromNodeID: "use:bbb", ReferenceName: "crate::util", ReferenceKind: graph.EdgeUses, Line: 1, Column: 1, FilePath: "main.rs"},
	}
	if err := s.InsertUnresolvedRefs(refs); err != nil {
		t.Fatalf("InsertUnresolvedRefs: %v", err)
	}

	got, err := s.GetUnresolvedRefs()
	if err != nil {
		t.Fatalf("GetUnresolvedRefs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 refs, got %d", len(got))
	}
	if got[0].ReferenceName != "helper" || got[0].ReferenceKind != graph.EdgeCalls {
		t.Errorf("unexpected ref: %+v", got[0])
	}

	count, _ := s.CountUnresolvedRefs()
	if count != 2 {
		t.Errorf("expected 2, got %d", count)
	}

	if err := s.ClearUnresolvedRefs(); err != nil {
		t.Fatalf("ClearUnresolvedRefs: %v", err)
	}
	count, _ = s.CountUnresolvedRefs()
	if count != 0 {
		t.Errorf("expected 0 after clear, got %d", count)
	}
}

func TestVectors(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	blob := []byte{0, 0, 128, 63, 0, 0, 0, 64} // [1.0, 2.0] little-endian
	if err := s.UpsertVector("function:abc", blob, "test-model-v1"); err != nil {
		t.Fatalf("UpsertVector: %v", err)
	}

	v, err := s.GetVector("function:abc")
	if err != nil {
		t.Fatalf("GetVector: %v", err)
	}
	if v == nil || v.Model != "test-model-v1" || len(v.Embedding) != 8 {
		t.Fatalf("unexpected vector: %+v", v)
	}

	all, _ := s.AllVectors()
	if len(all) != 1 {
		t.Errorf("expected 1 vector, got %d", len(all))
	}

	if err := s.DeleteVector("function:abc"); err != nil {
		t.Fatalf("DeleteVector: %v", err)
	}
	v, _ = s.GetVector("function:abc")
	if v != nil {
		t.Error("expected vector deleted")
	}
}

func TestSearchLikeFallback(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	n := testNode("", "ProcessOrder", "svc.go", graph.KindFunction, 4)
	_ = s.UpsertNode(n)

	results, err := s.SearchNodes("cessOrd", 10)
	if err != nil {
		t.Fatalf("SearchNodes: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Node.Name != "ProcessOrder" {
		t.Errorf("unexpected result: %+v", results[0].Node)
	}
	// Substring LIKE matches carry the flat fallback score.
	if results[0].Score != likeFallbackScore {
		t.Errorf("expected fallback score %v, got %v", likeFallbackScore, results[0].Score)
	}
}

func TestStats(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	_ = s.UpsertNode(testNode("", "a", "x.go", graph.KindFunction, 1))
	_ = s.UpsertNode(testNode("", "B", "x.go", graph.KindStruct, 5))
	_ = s.UpsertFile(&graph.FileRecord{Path: "x.go", ContentHash: "h"})

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.NodeCount != 2 || stats.FileCount != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.NodesByKind["function"] != 1 || stats.NodesByKind["struct"] != 1 {
		t.Errorf("unexpected kind breakdown: %+v", stats.NodesByKind)
	}
}

func TestClear(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	_ = s.UpsertNode(testNode("", "a", "x.go", graph.KindFunction, 1))
	_ = s.UpsertFile(&graph.FileRecord{Path: "x.go", ContentHash: "h"})
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	nodes, _ := s.CountNodes()
	files, _ := s.CountFiles()
	if nodes != 0 || files != 0 {
		t.Errorf("expected empty store, got %d nodes %d files", nodes, files)
	}
}

func TestWithTransactionRollback(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	failErr := s.WithTransaction(func(tx *Store) error {
		if err := tx.UpsertNode(testNode("", "a", "x.go", graph.KindFunction, 1)); err != nil {
			return err
		}
		return ErrCorrupt // any error rolls back
	})
	if failErr == nil {
		t.Fatal("expected error from transaction")
	}
	count, _ := s.CountNodes()
	if count != 0 {
		t.Errorf("expected rollback, got %d nodes", count)
	}
}
