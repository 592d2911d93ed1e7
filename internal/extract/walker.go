package extract

import (
	"bytes"
	"strings"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// stackEntry is one enclosing declaration during a walk.
type stackEntry struct {
	name string
	id   string
}

// walker carries the shared traversal state of a single-file extraction: the
// accumulated nodes/edges/refs, and a stack of enclosing declarations used
// to build qualified names and Contains edges.
type walker struct {
	filePath string
	source   []byte
	now      int64

	nodes []*graph.Node
	edges []*graph.Edge
	refs  []graph.UnresolvedRef
	errs  []string

	stack []stackEntry
}

func newWalker(filePath string, source []byte) *walker {
	return &walker{
		filePath: filePath,
		source:   source,
		now:      time.Now().Unix(),
	}
}

// qualifiedPrefix joins the enclosing declaration names with the
// language-agnostic "::" separator. The stack's bottom entry is the file
// root, so the file path supplies the leading segment.
func (w *walker) qualifiedPrefix() string {
	parts := make([]string, 0, len(w.stack))
	for _, e := range w.stack {
		parts = append(parts, e.name)
	}
	return strings.Join(parts, "::")
}

// parentID returns the current enclosing node ID, or "" at file root level.
func (w *walker) parentID() string {
	if len(w.stack) == 0 {
		return ""
	}
	return w.stack[len(w.stack)-1].id
}

func (w *walker) push(name, id string) {
	w.stack = append(w.stack, stackEntry{name: name, id: id})
}

func (w *walker) pop() {
	w.stack = w.stack[:len(w.stack)-1]
}

// insideIDPrefix reports whether any enclosing declaration's ID starts with
// the given prefix (e.g. "impl:" or "trait:").
func (w *walker) insideIDPrefix(prefix string) bool {
	for _, e := range w.stack {
		if strings.HasPrefix(e.id, prefix) {
			return true
		}
	}
	return false
}

func (w *walker) text(n *tree_sitter.Node) string {
	return nodeText(n, w.source)
}

// newNode builds a graph node for a syntax node: deterministic ID, qualified
// name from the current prefix, and the 1-based source range. Callers fill
// signature, docstring, visibility, and is_async before adding it.
func (w *walker) newNode(kind graph.NodeKind, name string, tsn *tree_sitter.Node) *graph.Node {
	startLine := int(tsn.StartPosition().Row) + 1
	return &graph.Node{
		ID:            graph.GenerateNodeID(w.filePath, kind, name, startLine),
		Kind:          kind,
		Name:          name,
		QualifiedName: w.qualifiedPrefix() + "::" + name,
		FilePath:      w.filePath,
		StartLine:     startLine,
		EndLine:       int(tsn.EndPosition().Row) + 1,
		StartColumn:   int(tsn.StartPosition().Column) + 1,
		EndColumn:     int(tsn.EndPosition().Column) + 1,
		Visibility:    graph.VisPrivate,
		UpdatedAt:     w.now,
	}
}

// addNode records a node and a Contains edge from the enclosing declaration.
func (w *walker) addNode(n *graph.Node) {
	w.nodes = append(w.nodes, n)
	if parent := w.parentID(); parent != "" {
		w.edges = append(w.edges, &graph.Edge{
			Source: parent,
			Target: n.ID,
			Kind:   graph.EdgeContains,
			Line:   n.StartLine,
		})
	}
}

// addRef records an unresolved reference originating at a syntax node.
func (w *walker) addRef(fromID, name string, kind graph.EdgeKind, tsn *tree_sitter.Node) {
	w.refs = append(w.refs, graph.UnresolvedRef{
		FromNodeID:    fromID,
		ReferenceName: name,
		ReferenceKind: kind,
		Line:          int(tsn.StartPosition().Row) + 1,
		Column:        int(tsn.StartPosition().Column) + 1,
		FilePath:      w.filePath,
	})
}

// fileRoot creates the File node anchoring the containment forest for this
// file and pushes it onto the stack.
func (w *walker) fileRoot() *graph.Node {
	endLine := countLines(w.source)
	n := &graph.Node{
		ID:            graph.GenerateNodeID(w.filePath, graph.KindFile, w.filePath, 1),
		Kind:          graph.KindFile,
		Name:          w.filePath,
		QualifiedName: w.filePath,
		FilePath:      w.filePath,
		StartLine:     1,
		EndLine:       endLine,
		StartColumn:   1,
		EndColumn:     1,
		Visibility:    graph.VisPub,
		UpdatedAt:     w.now,
	}
	w.nodes = append(w.nodes, n)
	w.push(w.filePath, n.ID)
	return n
}

// result assembles the final ExtractionResult.
func (w *walker) result(start time.Time) *graph.ExtractionResult {
	return &graph.ExtractionResult{
		Nodes:          w.nodes,
		Edges:          w.edges,
		UnresolvedRefs: w.refs,
		Errors:         w.errs,
		DurationMS:     time.Since(start).Milliseconds(),
	}
}

// countLines returns the number of lines in source, at least 1.
func countLines(source []byte) int {
	if len(source) == 0 {
		return 1
	}
	n := bytes.Count(source, []byte{'\n'})
	if source[len(source)-1] != '\n' {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// signatureUpToBody returns the declarator text up to the body brace, or the
// whole trimmed text (sans trailing ';') for bodyless declarations.
func signatureUpToBody(text string) string {
	if pos := strings.IndexByte(text, '{'); pos >= 0 {
		return strings.TrimSpace(text[:pos])
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
}

// firstLine returns the first line of text, trimmed.
func firstLine(text string) string {
	if pos := strings.IndexByte(text, '\n'); pos >= 0 {
		text = text[:pos]
	}
	return strings.TrimSpace(text)
}
