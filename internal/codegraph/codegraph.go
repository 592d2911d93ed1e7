// Package codegraph is the central orchestrator tying the store, extractor
// registry, sync driver, resolver, and query layers together behind one
// handle. It is created per command invocation and torn down on exit.
package codegraph

import (
	gocontext "context"
	"fmt"
	"os"

	"github.com/codegraphhq/codegraph/internal/config"
	"github.com/codegraphhq/codegraph/internal/context"
	"github.com/codegraphhq/codegraph/internal/extract"
	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/codegraphhq/codegraph/internal/index"
	"github.com/codegraphhq/codegraph/internal/store"
	"github.com/codegraphhq/codegraph/internal/traverse"
)

// CodeGraph owns the open store and the immutable language registry for one
// project.
type CodeGraph struct {
	st       *store.Store
	cfg      *config.Config
	registry *extract.Registry
	root     string
}

// Init initializes a new project at root: writes the default configuration
// and creates a fresh database under .codegraph/.
func Init(root string) (*CodeGraph, error) {
	cfg := config.Default()
	cfg.RootDir = root
	if err := config.Save(root, cfg); err != nil {
		return nil, err
	}
	st, err := store.Open(config.DBPath(root))
	if err != nil {
		return nil, err
	}
	return &CodeGraph{st: st, cfg: cfg, registry: extract.NewRegistry(), root: root}, nil
}

// Open opens an existing project at root.
func Open(root string) (*CodeGraph, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	dbPath := config.DBPath(root)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no CodeGraph database at %s; run 'codegraph init' first", dbPath)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &CodeGraph{st: st, cfg: cfg, registry: extract.NewRegistry(), root: root}, nil
}

// IsInitialized reports whether a project exists at root.
func IsInitialized(root string) bool {
	_, err := os.Stat(config.DBPath(root))
	return err == nil
}

// Close releases the store handle.
func (cg *CodeGraph) Close() error {
	return cg.st.Close()
}

// Store exposes the underlying store to thin shells (the tool server).
func (cg *CodeGraph) Store() *store.Store {
	return cg.st
}

// Config returns the loaded configuration.
func (cg *CodeGraph) Config() *config.Config {
	return cg.cfg
}

// Root returns the project root path.
func (cg *CodeGraph) Root() string {
	return cg.root
}

// IndexAll clears the store and re-indexes the whole tree.
func (cg *CodeGraph) IndexAll(ctx gocontext.Context) (*index.Result, error) {
	return cg.indexer().IndexAll(ctx)
}

// Sync re-indexes only files whose content hash changed.
func (cg *CodeGraph) Sync(ctx gocontext.Context) (*index.Result, error) {
	return cg.indexer().Sync(ctx)
}

func (cg *CodeGraph) indexer() *index.Indexer {
	return index.New(cg.st, cg.registry, cg.cfg, cg.root)
}

// Search runs full-text symbol search.
func (cg *CodeGraph) Search(query string, limit int) ([]*graph.SearchResult, error) {
	return cg.st.SearchNodes(query, limit)
}

// Stats returns aggregate graph statistics.
func (cg *CodeGraph) Stats() (*graph.GraphStats, error) {
	return cg.st.Stats()
}

// Node retrieves a single node by ID, or nil when absent.
func (cg *CodeGraph) Node(id string) (*graph.Node, error) {
	return cg.st.GetNodeByID(id)
}

// Callers returns the nodes that transitively call the given node.
func (cg *CodeGraph) Callers(nodeID string, maxDepth int) ([]traverse.Hit, error) {
	return cg.traverser().Callers(nodeID, maxDepth)
}

// Callees returns the nodes the given node transitively calls.
func (cg *CodeGraph) Callees(nodeID string, maxDepth int) ([]traverse.Hit, error) {
	return cg.traverser().Callees(nodeID, maxDepth)
}

// ImpactRadius returns everything that reaches the node via Calls edges.
func (cg *CodeGraph) ImpactRadius(nodeID string, maxDepth int) (*graph.Subgraph, error) {
	return cg.traverser().ImpactRadius(nodeID, maxDepth)
}

// CallGraph returns the bidirectional call graph around the node.
func (cg *CodeGraph) CallGraph(nodeID string, depth int) (*graph.Subgraph, error) {
	return cg.traverser().CallGraph(nodeID, depth)
}

// TypeHierarchy returns the Implements/Extends hierarchy around the node.
func (cg *CodeGraph) TypeHierarchy(nodeID string) (*graph.Subgraph, error) {
	return cg.traverser().TypeHierarchy(nodeID)
}

// DeadCode finds nodes with no incoming usage edges.
func (cg *CodeGraph) DeadCode(kinds []graph.NodeKind) ([]*graph.Node, error) {
	return cg.traverser().DeadCode(kinds)
}

func (cg *CodeGraph) traverser() *traverse.Traverser {
	return traverse.New(cg.st)
}

// BuildContext assembles an AI-ready context for a task description.
func (cg *CodeGraph) BuildContext(task string, opts context.Options) (*context.TaskContext, error) {
	return context.NewBuilder(cg.st, cg.root).Build(task, opts)
}
