// Package context assembles AI-ready task context from the graph: it
// extracts symbol names from a natural-language task, searches for entry
// points, expands the surrounding subgraph, and attaches source code
// blocks.
package context

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/codegraphhq/codegraph/internal/store"
	"github.com/codegraphhq/codegraph/internal/traverse"
)

// Options control context building.
type Options struct {
	MaxNodes         int
	MaxCodeBlocks    int
	MaxCodeBlockSize int
	IncludeCode      bool
	SearchLimit      int
	TraversalDepth   int
	MinScore         float64
}

// DefaultOptions returns the context-building defaults.
func DefaultOptions() Options {
	return Options{
		MaxNodes:         20,
		MaxCodeBlocks:    5,
		MaxCodeBlockSize: 1500,
		IncludeCode:      true,
		SearchLimit:      3,
		TraversalDepth:   1,
		MinScore:         0.3,
	}
}

// CodeBlock is a snippet of source belonging to a node.
type CodeBlock struct {
	Content   string `json:"content"`
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	NodeID    string `json:"node_id,omitempty"`
}

// TaskContext is the assembled context for a task.
type TaskContext struct {
	Query        string         `json:"query"`
	Summary      string         `json:"summary"`
	Subgraph     *graph.Subgraph `json:"subgraph"`
	EntryPoints  []*graph.Node  `json:"entry_points"`
	CodeBlocks   []CodeBlock    `json:"code_blocks"`
	RelatedFiles []string       `json:"related_files"`
}

// Builder combines search, traversal, and source extraction.
type Builder struct {
	st   *store.Store
	root string
}

// NewBuilder creates a Builder over a store and the project root used to
// read source files.
func NewBuilder(st *store.Store, root string) *Builder {
	return &Builder{st: st, root: root}
}

// Build assembles a complete task context for the query.
func (b *Builder) Build(query string, opts Options) (*TaskContext, error) {
	symbols := ExtractSymbols(query)
	entryPoints, err := b.findEntryPoints(query, symbols, opts)
	if err != nil {
		return nil, err
	}
	subgraph, err := b.expandSubgraph(entryPoints, opts)
	if err != nil {
		return nil, err
	}

	var blocks []CodeBlock
	if opts.IncludeCode {
		blocks = b.codeBlocks(entryPoints, opts)
	}

	return &TaskContext{
		Query:        query,
		Summary:      summary(query, entryPoints, subgraph),
		Subgraph:     subgraph,
		EntryPoints:  entryPoints,
		CodeBlocks:   blocks,
		RelatedFiles: relatedFiles(subgraph),
	}, nil
}

// findEntryPoints searches for nodes matching the query and each extracted
// symbol, deduplicating by node ID and capping at MaxNodes.
func (b *Builder) findEntryPoints(query string, symbols []string, opts Options) ([]*graph.Node, error) {
	seen := map[string]bool{}
	var entryPoints []*graph.Node

	addResults := func(results []*graph.SearchResult) {
		for _, sr := range results {
			if sr.Score <= 0 || sr.Score < opts.MinScore {
				continue
			}
			if !seen[sr.Node.ID] {
				seen[sr.Node.ID] = true
				entryPoints = append(entryPoints, sr.Node)
			}
		}
	}

	results, err := b.st.SearchNodes(query, opts.SearchLimit)
	if err != nil {
		return nil, err
	}
	addResults(results)

	for _, symbol := range symbols {
		if len(entryPoints) >= opts.MaxNodes {
			break
		}
		results, err := b.st.SearchNodes(symbol, opts.SearchLimit)
		if err != nil {
			return nil, err
		}
		addResults(results)
	}

	if len(entryPoints) > opts.MaxNodes {
		entryPoints = entryPoints[:opts.MaxNodes]
	}
	return entryPoints, nil
}

// expandSubgraph grows the subgraph around the entry points by BFS in both
// directions.
func (b *Builder) expandSubgraph(entryPoints []*graph.Node, opts Options) (*graph.Subgraph, error) {
	t := traverse.New(b.st)
	merged := &graph.Subgraph{}
	seenNodes := map[string]bool{}
	type edgeKey struct {
		source, target string
		kind           graph.EdgeKind
	}
	seenEdges := map[edgeKey]bool{}

	travOpts := graph.TraversalOptions{
		MaxDepth:     opts.TraversalDepth,
		Direction:    graph.DirBoth,
		Limit:        opts.MaxNodes,
		IncludeStart: true,
	}

	for _, entry := range entryPoints {
		sub, err := t.BFS(entry.ID, travOpts)
		if err != nil {
			return nil, err
		}
		for _, root := range sub.Roots {
			merged.Roots = appendUnique(merged.Roots, root)
		}
		for _, n := range sub.Nodes {
			if !seenNodes[n.ID] {
				seenNodes[n.ID] = true
				merged.Nodes = append(merged.Nodes, n)
			}
		}
		for _, e := range sub.Edges {
			key := edgeKey{source: e.Source, target: e.Target, kind: e.Kind}
			if !seenEdges[key] {
				seenEdges[key] = true
				merged.Edges = append(merged.Edges, e)
			}
		}
		if len(merged.Nodes) >= opts.MaxNodes {
			break
		}
	}

	if len(merged.Nodes) > opts.MaxNodes {
		merged.Nodes = merged.Nodes[:opts.MaxNodes]
	}
	return merged, nil
}

// Code reads the source lines backing a node, or "" when the file cannot be
// read or the range is invalid.
func (b *Builder) Code(n *graph.Node) string {
	data, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(n.FilePath)))
	if err != nil {
		return ""
	}
	if n.StartLine <= 0 || n.EndLine <= 0 {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	start := n.StartLine - 1
	if start >= len(lines) {
		return ""
	}
	end := n.EndLine
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func (b *Builder) codeBlocks(entryPoints []*graph.Node, opts Options) []CodeBlock {
	var blocks []CodeBlock
	for _, node := range entryPoints {
		if len(blocks) >= opts.MaxCodeBlocks {
			break
		}
		code := b.Code(node)
		if code == "" {
			continue
		}
		if len(code) > opts.MaxCodeBlockSize {
			code = truncateAtLine(code, opts.MaxCodeBlockSize) + "..."
		}
		blocks = append(blocks, CodeBlock{
			Content:   code,
			FilePath:  node.FilePath,
			StartLine: node.StartLine,
			EndLine:   node.EndLine,
			NodeID:    node.ID,
		})
	}
	return blocks
}

// truncateAtLine cuts code at a UTF-8 boundary no later than max, preferring
// the last full line.
func truncateAtLine(code string, max int) string {
	end := max
	for end > 0 && !isUTF8Boundary(code, end) {
		end--
	}
	if pos := strings.LastIndexByte(code[:end], '\n'); pos > 0 {
		end = pos
	}
	return code[:end]
}

func isUTF8Boundary(s string, i int) bool {
	return i == 0 || i >= len(s) || (s[i]&0xC0) != 0x80
}

func relatedFiles(sub *graph.Subgraph) []string {
	seen := map[string]bool{}
	var files []string
	for _, n := range sub.Nodes {
		if !seen[n.FilePath] {
			seen[n.FilePath] = true
			files = append(files, n.FilePath)
		}
	}
	return files
}

func summary(query string, entryPoints []*graph.Node, sub *graph.Subgraph) string {
	if len(entryPoints) == 0 {
		return fmt.Sprintf("No matching symbols found for %q", query)
	}
	return fmt.Sprintf("Found %d entry point(s) for %q with %d related node(s) and %d edge(s)",
		len(entryPoints), query, len(sub.Nodes), len(sub.Edges))
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

// stopWords are filtered out of symbol extraction.
var stopWords = map[string]bool{
	"the": true, "is": true, "in": true, "for": true, "to": true, "a": true,
	"an": true, "of": true, "and": true, "or": true, "not": true,
	"this": true, "that": true, "it": true, "with": true, "on": true,
	"at": true, "by": true, "from": true, "as": true, "be": true,
	"was": true, "are": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "how": true,
	"what": true, "where": true, "when": true, "who": true, "which": true,
	"why": true, "if": true, "then": true, "else": true, "but": true,
	"so": true, "up": true, "out": true, "no": true, "yes": true,
	"all": true, "any": true, "each": true, "every": true, "fix": true,
	"look": true, "update": true, "add": true, "remove": true,
	"delete": true, "change": true, "check": true, "find": true,
	"get": true, "set": true, "use": true, "make": true, "call": true,
	"function": true, "method": true, "class": true, "struct": true,
	"type": true, "module": true, "file": true, "handler": true,
	"implement": true, "create": true, "about": true,
}

// ExtractSymbols pulls likely symbol names out of natural-language text:
// CamelCase and snake_case words, SCREAMING_SNAKE constants, and
// "::"-qualified paths (both the path and its last segment).
func ExtractSymbols(query string) []string {
	var symbols []string
	seen := map[string]bool{}

	add := func(s string) {
		if s == "" || stopWords[strings.ToLower(s)] || seen[s] {
			return
		}
		seen[s] = true
		symbols = append(symbols, s)
	}

	for _, token := range strings.Fields(query) {
		clean := strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != ':'
		})
		if clean == "" {
			continue
		}

		if strings.Contains(clean, "::") {
			segments := strings.Split(clean, "::")
			add(segments[len(segments)-1])
			if !stopWords[strings.ToLower(clean)] && !seen[clean] {
				seen[clean] = true
				symbols = append(symbols, clean)
			}
			continue
		}
		if strings.Contains(clean, "_") {
			add(clean)
			continue
		}
		if isCamelCase(clean) {
			add(clean)
		}
	}
	return symbols
}

// isCamelCase reports whether a word is alphanumeric with at least one
// uppercase letter after the first character.
func isCamelCase(word string) bool {
	if len(word) < 2 {
		return false
	}
	for _, r := range word {
		if r > unicode.MaxASCII || (!unicode.IsLetter(r) && !unicode.IsDigit(r)) {
			return false
		}
	}
	for _, r := range word[1:] {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
