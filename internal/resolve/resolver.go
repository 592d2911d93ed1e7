// Package resolve converts unresolved textual references into concrete
// edges by matching them against the current node population.
package resolve

import (
	"path"
	"sort"
	"strings"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// Score bonuses for the name-match strategy.
const (
	scoreSameFile      = 100
	scoreSameModule    = 50
	scoreKindMatch     = 25
	scoreNonPrivate    = 10
	scoreMinResolvable = 50
)

// Resolver resolves references against in-memory indices of the node
// population. Build one per resolution run; it is read-only afterwards.
type Resolver struct {
	byName      map[string][]*graph.Node
	byQualified map[string][]*graph.Node
	usesByFile  map[string][]*graph.Node
	// qualifiedSuffix maps a trailing "::<name>" segment to candidate nodes
	// for the exact qualified-name strategy.
	qualifiedSuffix map[string][]*graph.Node
}

// New builds a resolver over the given node population.
func New(nodes []*graph.Node) *Resolver {
	r := &Resolver{
		byName:          make(map[string][]*graph.Node),
		byQualified:     make(map[string][]*graph.Node),
		usesByFile:      make(map[string][]*graph.Node),
		qualifiedSuffix: make(map[string][]*graph.Node),
	}
	for _, n := range nodes {
		r.byName[n.Name] = append(r.byName[n.Name], n)
		r.byQualified[n.QualifiedName] = append(r.byQualified[n.QualifiedName], n)
		if n.Kind == graph.KindUse {
			r.usesByFile[n.FilePath] = append(r.usesByFile[n.FilePath], n)
		}
		if idx := strings.LastIndex(n.QualifiedName, "::"); idx >= 0 {
			r.qualifiedSuffix[n.QualifiedName[idx+2:]] = append(r.qualifiedSuffix[n.QualifiedName[idx+2:]], n)
		}
	}
	return r
}

// ResolveAll resolves a batch of references and summarizes the outcome.
func (r *Resolver) ResolveAll(refs []graph.UnresolvedRef) *graph.ResolutionResult {
	result := &graph.ResolutionResult{Total: len(refs)}
	for _, ref := range refs {
		if resolved, ok := r.ResolveOne(ref); ok {
			result.Resolved = append(result.Resolved, *resolved)
		} else {
			result.Unresolved = append(result.Unresolved, ref)
		}
	}
	result.ResolvedCount = len(result.Resolved)
	return result
}

// ResolveOne tries the strategies in order: exact qualified-name match
// (0.95), import-scoped match (0.9), then scored name match (0.7).
func (r *Resolver) ResolveOne(ref graph.UnresolvedRef) (*graph.ResolvedRef, bool) {
	if resolved := r.qualifiedMatch(ref); resolved != nil {
		return resolved, true
	}
	if resolved := r.importMatch(ref); resolved != nil {
		return resolved, true
	}
	if resolved := r.nameMatch(ref); resolved != nil {
		return resolved, true
	}
	return nil, false
}

// CreateEdges materializes resolved references as edges: one edge per ref,
// kind equal to the original reference kind, at the original line.
func CreateEdges(resolved []graph.ResolvedRef) []*graph.Edge {
	edges := make([]*graph.Edge, 0, len(resolved))
	for _, rr := range resolved {
		edges = append(edges, &graph.Edge{
			Source: rr.Original.FromNodeID,
			Target: rr.TargetNodeID,
			Kind:   rr.Original.ReferenceKind,
			Line:   rr.Original.Line,
		})
	}
	return edges
}

// qualifiedMatch resolves a reference whose name matches a node's qualified
// name exactly, or unambiguously matches a trailing "::<name>" segment.
func (r *Resolver) qualifiedMatch(ref graph.UnresolvedRef) *graph.ResolvedRef {
	if candidates := r.byQualified[ref.ReferenceName]; len(candidates) == 1 {
		return resolvedRef(ref, candidates[0], 0.95, "qualified-match")
	}
	candidates := r.qualifiedSuffix[baseName(ref.ReferenceName)]
	var match *graph.Node
	for _, c := range candidates {
		if !strings.HasSuffix(c.QualifiedName, "::"+ref.ReferenceName) {
			continue
		}
		if match != nil {
			return nil // ambiguous
		}
		match = c
	}
	if match == nil {
		return nil
	}
	return resolvedRef(ref, match, 0.95, "qualified-match")
}

// importMatch resolves a reference through the Use nodes of the referring
// file: when an import's last path segment names the referenced symbol and
// exactly one node carries that name, the import pins the target.
func (r *Resolver) importMatch(ref graph.UnresolvedRef) *graph.ResolvedRef {
	base := baseName(ref.ReferenceName)
	for _, use := range r.usesByFile[ref.FilePath] {
		if use.ID == ref.FromNodeID {
			continue
		}
		if lastPathSegment(use.Name) != base {
			continue
		}
		candidates := r.byName[base]
		if len(candidates) == 1 {
			return resolvedRef(ref, candidates[0], 0.9, "import-match")
		}
	}
	return nil
}

// nameMatch scores every node sharing the reference's base name: +100 same
// file, +50 same enclosing module, +25 expected kind, +10 non-private
// visibility. Ties break on the lowest node ID for determinism; the winner
// resolves only when its score reaches the threshold.
func (r *Resolver) nameMatch(ref graph.UnresolvedRef) *graph.ResolvedRef {
	candidates := r.byName[baseName(ref.ReferenceName)]
	if len(candidates) == 0 {
		return nil
	}

	type scored struct {
		node  *graph.Node
		score int
	}
	all := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		score := 0
		if c.FilePath == ref.FilePath {
			score += scoreSameFile
		}
		if path.Dir(c.FilePath) == path.Dir(ref.FilePath) {
			score += scoreSameModule
		}
		if kindMatches(ref.ReferenceKind, c.Kind) {
			score += scoreKindMatch
		}
		if c.Visibility != graph.VisPrivate {
			score += scoreNonPrivate
		}
		all = append(all, scored{node: c, score: score})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].node.ID < all[j].node.ID
	})
	best := all[0]
	if best.score < scoreMinResolvable {
		return nil
	}
	return resolvedRef(ref, best.node, 0.7, "name-match")
}

// kindMatches reports whether a node kind is in the expected kind set for a
// reference kind.
func kindMatches(refKind graph.EdgeKind, kind graph.NodeKind) bool {
	switch refKind {
	case graph.EdgeCalls:
		return graph.CallableKinds[kind]
	case graph.EdgeImplements, graph.EdgeExtends, graph.EdgeReceives, graph.EdgeTypeOf, graph.EdgeReturns:
		return graph.TypeKinds[kind]
	case graph.EdgeAnnotates:
		return kind == graph.KindAnnotation
	case graph.EdgeDerivesMacro:
		return kind == graph.KindTrait || kind == graph.KindMacro
	default:
		return false
	}
}

func resolvedRef(ref graph.UnresolvedRef, target *graph.Node, confidence float64, by string) *graph.ResolvedRef {
	return &graph.ResolvedRef{
		Original:     ref,
		TargetNodeID: target.ID,
		Confidence:   confidence,
		ResolvedBy:   by,
	}
}

// baseName strips qualification and constructor syntax from a reference
// name: "crate::types::Node" → "Node", "fmt.Println" → "Println",
// "new Foo" → "Foo".
func baseName(name string) string {
	name = strings.TrimPrefix(name, "new ")
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		name = name[idx+2:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	// Drop generic arguments from names like "List<String>".
	if idx := strings.IndexByte(name, '<'); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// lastPathSegment returns the final segment of an import path, handling
// "::", ".", and "/" separators.
func lastPathSegment(p string) string {
	// Rust use lists like "crate::x::{a, b}" have no single target symbol.
	if strings.ContainsAny(p, "{}") {
		return ""
	}
	for _, sep := range []string{"::", "/", "."} {
		if idx := strings.LastIndex(p, sep); idx >= 0 {
			p = p[idx+len(sep):]
		}
	}
	return strings.TrimSpace(p)
}
