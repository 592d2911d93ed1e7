package codegraph

import (
	gocontext "context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codegraphhq/codegraph/internal/config"
	"github.com/codegraphhq/codegraph/internal/graph"
)

func TestInitCreatesProjectLayout(t *testing.T) {
	root := t.TempDir()
	cg, err := Init(root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer cg.Close()

	if _, err := os.Stat(config.Path(root)); err != nil {
		t.Errorf("config not written: %v", err)
	}
	if _, err := os.Stat(config.DBPath(root)); err != nil {
		t.Errorf("database not created: %v", err)
	}
	if !IsInitialized(root) {
		t.Error("IsInitialized should report true after Init")
	}
}

func TestOpenMissingProjectFails(t *testing.T) {
	root := t.TempDir()
	if IsInitialized(root) {
		t.Fatal("fresh dir must not be initialized")
	}
	if _, err := Open(root); err == nil {
		t.Error("expected error opening uninitialized project")
	}
}

func TestIndexSearchQueryRoundTrip(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	source := "fn main(){ helper(); }\n\npub fn helper(){}\n"
	if err := os.WriteFile(filepath.Join(src, "main.rs"), []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	cg, err := Init(root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer cg.Close()

	result, err := cg.IndexAll(gocontext.Background())
	if err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	if result.FileCount != 1 {
		t.Errorf("expected 1 file, got %d", result.FileCount)
	}

	results, err := cg.Search("helper", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected search hit for helper")
	}
	helper := results[0].Node

	callers, err := cg.Callers(helper.ID, 3)
	if err != nil {
		t.Fatalf("Callers: %v", err)
	}
	if len(callers) != 1 || callers[0].Node.Name != "main" {
		t.Errorf("expected main as sole caller, got %+v", callers)
	}

	stats, err := cg.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.FileCount != 1 || stats.NodeCount == 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	// Reopen and confirm the data persisted.
	if err := cg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	reopened, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()
	node, err := reopened.Node(helper.ID)
	if err != nil {
		t.Fatalf("Node: %v", err)
	}
	if node == nil || node.Name != "helper" {
		t.Errorf("expected persisted helper node, got %+v", node)
	}
}

func TestDeadCodeViaFacade(t *testing.T) {
	root := t.TempDir()
	source := "fn main(){ used(); }\nfn used(){}\nfn orphan(){}\n"
	if err := os.WriteFile(filepath.Join(root, "app.rs"), []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	cg, err := Init(root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer cg.Close()

	if _, err := cg.IndexAll(gocontext.Background()); err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	dead, err := cg.DeadCode([]graph.NodeKind{graph.KindFunction})
	if err != nil {
		t.Fatalf("DeadCode: %v", err)
	}
	if len(dead) != 1 || dead[0].Name != "orphan" {
		t.Errorf("expected exactly orphan, got %+v", dead)
	}
}
