// Package index implements the sync orchestrator: content-hash driven dirty
// detection and file-scoped atomic re-indexing, followed by a global
// resolution pass. A full index is a sync against an empty store.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codegraphhq/codegraph/internal/config"
	"github.com/codegraphhq/codegraph/internal/extract"
	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/codegraphhq/codegraph/internal/resolve"
	"github.com/codegraphhq/codegraph/internal/store"
)

// Indexer drives indexing runs against one project root.
type Indexer struct {
	store    *store.Store
	registry *extract.Registry
	cfg      *config.Config
	root     string
}

// New creates an Indexer.
func New(st *store.Store, registry *extract.Registry, cfg *config.Config, root string) *Indexer {
	return &Indexer{store: st, registry: registry, cfg: cfg, root: root}
}

// Result summarizes one indexing run.
type Result struct {
	FilesAdded    int   `json:"files_added"`
	FilesModified int   `json:"files_modified"`
	FilesRemoved  int   `json:"files_removed"`
	FileCount     int   `json:"file_count"`
	NodeCount     int   `json:"node_count"`
	EdgeCount     int   `json:"edge_count"`
	RefsResolved  int   `json:"refs_resolved"`
	DurationMS    int64 `json:"duration_ms"`
}

// IndexAll clears the store and re-indexes everything.
func (ix *Indexer) IndexAll(ctx context.Context) (*Result, error) {
	if err := ix.store.Clear(); err != nil {
		return nil, err
	}
	return ix.Sync(ctx)
}

// Sync performs one incremental run: enumerate → hash → diff → per-file
// atomic replace → global resolve.
func (ix *Indexer) Sync(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	candidates, err := scan(ctx, ix.root, ix.cfg)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	candidates, err = hashFiles(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("hash: %w", err)
	}

	tracked, err := ix.store.AllFiles()
	if err != nil {
		return nil, fmt.Errorf("list tracked files: %w", err)
	}
	trackedByPath := make(map[string]*graph.FileRecord, len(tracked))
	for _, fr := range tracked {
		trackedByPath[fr.Path] = fr
	}

	var added, dirty []FileInfo
	seen := make(map[string]bool, len(candidates))
	for _, f := range candidates {
		seen[f.RelPath] = true
		prior, ok := trackedByPath[f.RelPath]
		switch {
		case !ok:
			added = append(added, f)
		case prior.ContentHash != f.ContentHash:
			dirty = append(dirty, f)
		}
	}
	var removed []string
	for _, fr := range tracked {
		if !seen[fr.Path] {
			removed = append(removed, fr.Path)
		}
	}
	slog.Info("sync.classify",
		"candidates", len(candidates), "added", len(added),
		"dirty", len(dirty), "removed", len(removed))

	for _, path := range removed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := ix.store.DeleteFile(path); err != nil {
			return nil, fmt.Errorf("delete file %s: %w", path, err)
		}
		result.FilesRemoved++
	}

	changed := append(append([]FileInfo(nil), added...), dirty...)
	extractions, err := ix.extractFiles(ctx, changed)
	if err != nil {
		return nil, err
	}

	for i, f := range changed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := extractions[i]
		if res == nil {
			continue
		}
		if err := ix.persistFile(f, res); err != nil {
			// A per-file database failure never aborts the run.
			slog.Error("sync.persist.err", "file", f.RelPath, "err", err)
			continue
		}
		result.NodeCount += len(res.Nodes)
		result.EdgeCount += len(res.Edges)
		if i < len(added) {
			result.FilesAdded++
		} else {
			result.FilesModified++
		}
	}

	resolved, err := ix.resolveRefs(ctx)
	if err != nil {
		return nil, err
	}
	result.RefsResolved = resolved
	result.EdgeCount += resolved
	result.FileCount = len(candidates)
	result.DurationMS = time.Since(start).Milliseconds()

	slog.Info("sync.done",
		"added", result.FilesAdded, "modified", result.FilesModified,
		"removed", result.FilesRemoved, "resolved", result.RefsResolved,
		"elapsed", time.Since(start))
	return result, nil
}

// extractFiles parses changed files in parallel. Parallel extraction is an
// optimization only; persistence stays sequential with one transaction per
// file.
func (ix *Indexer) extractFiles(ctx context.Context, files []FileInfo) ([]*graph.ExtractionResult, error) {
	results := make([]*graph.ExtractionResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := range files {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := files[i]
			extractor := ix.registry.ForPath(f.RelPath)
			if extractor == nil {
				return nil
			}
			source, err := os.ReadFile(f.AbsPath)
			if err != nil {
				slog.Warn("sync.read.err", "file", f.RelPath, "err", err)
				return nil
			}
			res := extractor.Extract(f.RelPath, source)
			for _, msg := range res.Errors {
				slog.Warn("extract.err", "file", f.RelPath, "err", msg)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// persistFile atomically replaces one file's graph data: delete prior
// nodes/edges/refs/vectors, insert the fresh extraction, and upsert the file
// record, all in a single transaction.
func (ix *Indexer) persistFile(f FileInfo, res *graph.ExtractionResult) error {
	return ix.store.WithTransaction(func(tx *store.Store) error {
		if err := tx.DeleteNodesByFile(f.RelPath); err != nil {
			return err
		}
		if err := tx.UpsertNodeBatch(res.Nodes); err != nil {
			return err
		}
		if err := tx.InsertEdgeBatch(res.Edges); err != nil {
			return err
		}
		if len(res.UnresolvedRefs) > 0 {
			if err := tx.InsertUnresolvedRefs(res.UnresolvedRefs); err != nil {
				return err
			}
		}
		return tx.UpsertFile(&graph.FileRecord{
			Path:        f.RelPath,
			ContentHash: f.ContentHash,
			Size:        f.Size,
			ModifiedAt:  f.ModifiedAt,
			IndexedAt:   time.Now().Unix(),
			NodeCount:   len(res.Nodes),
		})
	})
}

// resolveRefs runs the resolver globally against the current store and
// materializes edges for newly resolved refs. Refs stay persisted so they
// are retried after future syncs; an edge is only inserted when no identical
// one exists.
func (ix *Indexer) resolveRefs(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	refs, err := ix.store.GetUnresolvedRefs()
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		return 0, nil
	}
	nodes, err := ix.store.AllNodes()
	if err != nil {
		return 0, err
	}

	resolver := resolve.New(nodes)
	res := resolver.ResolveAll(refs)
	slog.Info("resolve.done", "total", res.Total, "resolved", res.ResolvedCount)

	var fresh []*graph.Edge
	for _, edge := range resolve.CreateEdges(res.Resolved) {
		exists, err := ix.store.EdgeExists(edge)
		if err != nil {
			return 0, err
		}
		if !exists {
			fresh = append(fresh, edge)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	err = ix.store.WithTransaction(func(tx *store.Store) error {
		return tx.InsertEdgeBatch(fresh)
	})
	if err != nil {
		return 0, fmt.Errorf("materialize edges: %w", err)
	}
	return len(fresh), nil
}
