package extract

import (
	"testing"

	"github.com/codegraphhq/codegraph/internal/graph"
)

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	cases := map[string]string{
		"src/main.rs":          "Rust",
		"pkg/util.go":          "Go",
		"com/example/App.java": "Java",
	}
	for path, want := range cases {
		e := r.ForPath(path)
		if e == nil {
			t.Fatalf("no extractor for %s", path)
		}
		if e.LanguageName() != want {
			t.Errorf("ForPath(%q) = %s, want %s", path, e.LanguageName(), want)
		}
	}
}

func TestRegistryUnknownExtension(t *testing.T) {
	r := NewRegistry()
	if e := r.ForPath("script.py"); e != nil {
		t.Errorf("expected nil for unhandled extension, got %s", e.LanguageName())
	}
	if e := r.ForPath("Makefile"); e != nil {
		t.Errorf("expected nil for extensionless file, got %s", e.LanguageName())
	}
}

func TestRegistryLanguages(t *testing.T) {
	langs := NewRegistry().Languages()
	if len(langs) != 3 {
		t.Fatalf("expected 3 languages, got %v", langs)
	}
}

// Repeated extraction of the same input yields the same nodes and edges
// modulo updated_at.
func TestExtractionDeterministic(t *testing.T) {
	source := []byte("fn main() { helper(); }\nfn helper() {}\n")
	e := &RustExtractor{}
	a := e.Extract("main.rs", source)
	b := e.Extract("main.rs", source)

	if len(a.Nodes) != len(b.Nodes) || len(a.Edges) != len(b.Edges) || len(a.UnresolvedRefs) != len(b.UnresolvedRefs) {
		t.Fatalf("nondeterministic shape: %d/%d nodes, %d/%d edges",
			len(a.Nodes), len(b.Nodes), len(a.Edges), len(b.Edges))
	}
	for i := range a.Nodes {
		if a.Nodes[i].ID != b.Nodes[i].ID || a.Nodes[i].QualifiedName != b.Nodes[i].QualifiedName {
			t.Errorf("node %d differs: %+v vs %+v", i, a.Nodes[i], b.Nodes[i])
		}
	}
}

// Every non-File node must be connected to the File root through Contains
// edges.
func TestContainsForestRootedAtFile(t *testing.T) {
	source := []byte(`
pub struct Config {
    pub name: String,
}

impl Config {
    pub fn new() -> Self { Config { name: String::new() } }
}
`)
	res := (&RustExtractor{}).Extract("config.rs", source)

	parents := map[string]string{}
	for _, e := range res.Edges {
		if e.Kind == graph.EdgeContains {
			parents[e.Target] = e.Source
		}
	}
	var fileID string
	for _, n := range res.Nodes {
		if n.Kind == graph.KindFile {
			fileID = n.ID
		}
	}
	if fileID == "" {
		t.Fatal("no file node")
	}
	for _, n := range res.Nodes {
		if n.Kind == graph.KindFile {
			continue
		}
		current := n.ID
		for steps := 0; current != fileID; steps++ {
			next, ok := parents[current]
			if !ok {
				t.Fatalf("node %s (%s) not rooted at file", n.Name, n.ID)
			}
			if steps > 100 {
				t.Fatal("containment chain too deep")
			}
			current = next
		}
	}
}

func findNode(t *testing.T, res *graph.ExtractionResult, kind graph.NodeKind, name string) *graph.Node {
	t.Helper()
	for _, n := range res.Nodes {
		if n.Kind == kind && n.Name == name {
			return n
		}
	}
	t.Fatalf("node %s/%s not found; have %v", kind, name, nodeNames(res))
	return nil
}

func hasNode(res *graph.ExtractionResult, kind graph.NodeKind, name string) bool {
	for _, n := range res.Nodes {
		if n.Kind == kind && n.Name == name {
			return true
		}
	}
	return false
}

func findRef(res *graph.ExtractionResult, kind graph.EdgeKind, name string) *graph.UnresolvedRef {
	for i, r := range res.UnresolvedRefs {
		if r.ReferenceKind == kind && r.ReferenceName == name {
			return &res.UnresolvedRefs[i]
		}
	}
	return nil
}

func nodeNames(res *graph.ExtractionResult) []string {
	var out []string
	for _, n := range res.Nodes {
		out = append(out, string(n.Kind)+":"+n.Name)
	}
	return out
}
