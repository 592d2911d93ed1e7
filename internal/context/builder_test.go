package context

import (
	"strings"
	"testing"

	"github.com/codegraphhq/codegraph/internal/graph"
)

func TestExtractSnakeCase(t *testing.T) {
	symbols := ExtractSymbols("fix the process_request function")
	if !containsSymbol(symbols, "process_request") {
		t.Errorf("expected process_request in %v", symbols)
	}
}

func TestExtractCamelCase(t *testing.T) {
	symbols := ExtractSymbols("update UserService handler")
	if !containsSymbol(symbols, "UserService") {
		t.Errorf("expected UserService in %v", symbols)
	}
}

func TestExtractScreamingSnake(t *testing.T) {
	symbols := ExtractSymbols("increase MAX_RETRIES limit")
	if !containsSymbol(symbols, "MAX_RETRIES") {
		t.Errorf("expected MAX_RETRIES in %v", symbols)
	}
}

func TestExtractQualifiedPath(t *testing.T) {
	symbols := ExtractSymbols("look at crate::types::Node")
	found := false
	for _, s := range symbols {
		if strings.Contains(s, "Node") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Node-derived symbol in %v", symbols)
	}
}

func TestFiltersStopWords(t *testing.T) {
	symbols := ExtractSymbols("the is in for to a an")
	if len(symbols) != 0 {
		t.Errorf("expected no symbols, got %v", symbols)
	}
}

func TestIsCamelCase(t *testing.T) {
	cases := map[string]bool{
		"UserService":     true,
		"processRequest":  true,
		"user":            false,
		"U":               false,
		"process_request": false,
	}
	for word, want := range cases {
		if got := isCamelCase(word); got != want {
			t.Errorf("isCamelCase(%q) = %v, want %v", word, got, want)
		}
	}
}

func TestTruncateAtLine(t *testing.T) {
	code := "line one\nline two\nline three"
	got := truncateAtLine(code, 12)
	if got != "line one" {
		t.Errorf("expected truncation at line boundary, got %q", got)
	}
}

func TestSummaryNoMatches(t *testing.T) {
	s := summary("mystery", nil, &graph.Subgraph{})
	if !strings.Contains(s, "No matching symbols") {
		t.Errorf("unexpected summary %q", s)
	}
}

func TestRelatedFilesDeduplicates(t *testing.T) {
	sub := &graph.Subgraph{Nodes: []*graph.Node{
		{ID: "a", FilePath: "x.go"},
		{ID: "b", FilePath: "x.go"},
		{ID: "c", FilePath: "y.go"},
	}}
	files := relatedFiles(sub)
	if len(files) != 2 {
		t.Errorf("expected 2 files, got %v", files)
	}
}

func TestFormatMarkdown(t *testing.T) {
	tc := &TaskContext{
		Query:   "trace orders",
		Summary: "Found 1 entry point(s)",
		Subgraph: &graph.Subgraph{
			Nodes: []*graph.Node{
				{ID: "n1", Name: "ProcessOrder", Kind: graph.KindFunction, FilePath: "svc.go", StartLine: 4},
				{ID: "n2", Name: "validate", Kind: graph.KindFunction, FilePath: "svc.go", StartLine: 20},
			},
			Edges: []*graph.Edge{{Source: "n1", Target: "n2", Kind: graph.EdgeCalls, Line: 6}},
		},
		EntryPoints: []*graph.Node{
			{ID: "n1", Name: "ProcessOrder", Kind: graph.KindFunction, FilePath: "svc.go", StartLine: 4, Signature: "func ProcessOrder()"},
		},
		CodeBlocks:   []CodeBlock{{Content: "func ProcessOrder() {}", FilePath: "svc.go", StartLine: 4, EndLine: 6}},
		RelatedFiles: []string{"svc.go"},
	}
	md := FormatMarkdown(tc)
	for _, want := range []string{"# Context for: trace orders", "ProcessOrder", "calls", "```", "svc.go"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	tc := &TaskContext{Query: "q", Subgraph: &graph.Subgraph{}}
	out := FormatJSON(tc)
	if !strings.Contains(out, `"query": "q"`) {
		t.Errorf("unexpected JSON %q", out)
	}
}

func containsSymbol(symbols []string, want string) bool {
	for _, s := range symbols {
		if s == want {
			return true
		}
	}
	return false
}
