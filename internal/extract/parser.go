package extract

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// language identifies a tree-sitter grammar.
type language string

const (
	langRust language = "rust"
	langGo   language = "go"
	langJava language = "java"
)

var (
	languagesOnce sync.Once
	languages     map[language]*tree_sitter.Language
	parserPools   map[language]*sync.Pool
)

func initLanguages() {
	languagesOnce.Do(func() {
		languages = map[language]*tree_sitter.Language{
			langRust: tree_sitter.NewLanguage(tree_sitter_rust.Language()),
			langGo:   tree_sitter.NewLanguage(tree_sitter_go.Language()),
			langJava: tree_sitter.NewLanguage(tree_sitter_java.Language()),
		}

		parserPools = make(map[language]*sync.Pool, len(languages))
		for l, tsLang := range languages {
			tsLang := tsLang
			parserPools[l] = &sync.Pool{
				New: func() any {
					p := tree_sitter.NewParser()
					if err := p.SetLanguage(tsLang); err != nil {
						panic(fmt.Sprintf("set language: %v", err))
					}
					return p
				},
			}
		}
	})
}

// parse parses source into a tree-sitter AST. The caller must Close the
// tree. Parsers are pooled per language to avoid per-file allocation.
func parse(l language, source []byte) (*tree_sitter.Tree, error) {
	initLanguages()

	pool, ok := parserPools[l]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", l)
	}

	p, _ := pool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, fmt.Errorf("failed to get parser for language %s", l)
	}
	tree := p.Parse(source, nil)
	pool.Put(p)

	if tree == nil {
		return nil, fmt.Errorf("parse failed for language %s", l)
	}
	return tree, nil
}

// nodeText returns the source text covered by a node.
func nodeText(n *tree_sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}

// eachChild calls fn for every direct child of n.
func eachChild(n *tree_sitter.Node, fn func(child *tree_sitter.Node)) {
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			fn(child)
		}
	}
}

// findChildByKind returns the first direct child of the given kind.
func findChildByKind(n *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
