package extract

import (
	"strings"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// RustExtractor maps Rust concrete syntax onto the common graph model:
// functions, structs, enums, traits, impl blocks, uses, consts, statics,
// type aliases, modules, and macro invocations.
type RustExtractor struct{}

func (RustExtractor) Extensions() []string { return []string{"rs"} }

func (RustExtractor) LanguageName() string { return "Rust" }

func (e *RustExtractor) Extract(filePath string, source []byte) *graph.ExtractionResult {
	start := time.Now()
	w := newWalker(filePath, source)

	tree, err := parse(langRust, source)
	if err != nil {
		w.errs = append(w.errs, err.Error())
		return w.result(start)
	}
	defer tree.Close()

	w.fileRoot()
	e.visitChildren(w, tree.RootNode())
	w.pop()

	return w.result(start)
}

func (e *RustExtractor) visitChildren(w *walker, n *tree_sitter.Node) {
	eachChild(n, func(child *tree_sitter.Node) {
		e.visitNode(w, child)
	})
}

func (e *RustExtractor) visitNode(w *walker, n *tree_sitter.Node) {
	switch n.Kind() {
	case "function_item", "function_signature_item":
		e.visitFunction(w, n)
	case "struct_item":
		e.visitStruct(w, n)
	case "enum_item":
		e.visitEnum(w, n)
	case "trait_item":
		e.visitTrait(w, n)
	case "impl_item":
		e.visitImpl(w, n)
	case "use_declaration":
		e.visitUse(w, n)
	case "const_item":
		e.visitSimpleItem(w, n, graph.KindConst)
	case "static_item":
		e.visitSimpleItem(w, n, graph.KindStatic)
	case "type_item":
		e.visitTypeAlias(w, n)
	case "mod_item":
		e.visitModule(w, n)
	case "macro_invocation":
		e.visitMacroInvocation(w, n)
	default:
		e.visitChildren(w, n)
	}
}

func (e *RustExtractor) visitFunction(w *walker, n *tree_sitter.Node) {
	name := e.name(w, n)
	kind := graph.KindFunction
	if w.insideIDPrefix("impl:") || w.insideIDPrefix("trait:") {
		kind = graph.KindMethod
	}
	node := w.newNode(kind, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.docstring(w, n)
	node.IsAsync = e.isAsync(w, n)
	w.addNode(node)

	e.callSites(w, n, node.ID)
}

func (e *RustExtractor) visitStruct(w *walker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindStruct, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.docstring(w, n)
	w.addNode(node)

	e.deriveMacros(w, n, node.ID)

	w.push(name, node.ID)
	if body := n.ChildByFieldName("body"); body != nil {
		eachChild(body, func(child *tree_sitter.Node) {
			if child.Kind() == "field_declaration" {
				e.visitField(w, child)
			}
		})
	}
	w.pop()
}

func (e *RustExtractor) visitField(w *walker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindField, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(w.text(n)), ","))
	w.addNode(node)
}

func (e *RustExtractor) visitEnum(w *walker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindEnum, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = firstLine(w.text(n))
	node.Docstring = e.docstring(w, n)
	w.addNode(node)

	e.deriveMacros(w, n, node.ID)

	w.push(name, node.ID)
	if body := n.ChildByFieldName("body"); body != nil {
		eachChild(body, func(child *tree_sitter.Node) {
			if child.Kind() == "enum_variant" {
				e.visitVariant(w, child)
			}
		})
	}
	w.pop()
}

func (e *RustExtractor) visitVariant(w *walker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindEnumVariant, name, n)
	node.Visibility = graph.VisPub
	node.Signature = strings.TrimSuffix(strings.TrimSpace(w.text(n)), ",")
	w.addNode(node)
}

func (e *RustExtractor) visitTrait(w *walker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindTrait, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = "trait " + name
	node.Docstring = e.docstring(w, n)
	w.addNode(node)

	w.push(name, node.ID)
	if body := n.ChildByFieldName("body"); body != nil {
		e.visitChildren(w, body)
	}
	w.pop()
}

func (e *RustExtractor) visitImpl(w *walker, n *tree_sitter.Node) {
	typeName := "<unknown>"
	if t := n.ChildByFieldName("type"); t != nil {
		typeName = w.text(t)
	}
	var traitName string
	if t := n.ChildByFieldName("trait"); t != nil {
		traitName = w.text(t)
	}

	node := w.newNode(graph.KindImpl, typeName, n)
	if traitName != "" {
		node.Signature = "impl " + traitName + " for " + typeName
	} else {
		node.Signature = "impl " + typeName
	}
	w.addNode(node)

	if traitName != "" {
		w.addRef(node.ID, traitName, graph.EdgeImplements, n)
	}

	w.push(typeName, node.ID)
	if body := n.ChildByFieldName("body"); body != nil {
		e.visitChildren(w, body)
	}
	w.pop()
}

func (e *RustExtractor) visitUse(w *walker, n *tree_sitter.Node) {
	text := strings.TrimSpace(w.text(n))
	path := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "use "), ";"))

	node := w.newNode(graph.KindUse, path, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = text
	w.addNode(node)

	w.addRef(node.ID, path, graph.EdgeUses, n)
}

func (e *RustExtractor) visitSimpleItem(w *walker, n *tree_sitter.Node, kind graph.NodeKind) {
	name := e.name(w, n)
	node := w.newNode(kind, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = firstLine(w.text(n))
	node.Docstring = e.docstring(w, n)
	w.addNode(node)
}

func (e *RustExtractor) visitTypeAlias(w *walker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindTypeAlias, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = strings.TrimSpace(w.text(n))
	node.Docstring = e.docstring(w, n)
	w.addNode(node)
}

func (e *RustExtractor) visitModule(w *walker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindModule, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = "mod " + name
	node.Docstring = e.docstring(w, n)
	w.addNode(node)

	w.push(name, node.ID)
	if body := n.ChildByFieldName("body"); body != nil {
		e.visitChildren(w, body)
	}
	w.pop()
}

// visitMacroInvocation records a top-level macro invocation as an unresolved
// call from the enclosing declaration.
func (e *RustExtractor) visitMacroInvocation(w *walker, n *tree_sitter.Node) {
	name := e.macroName(w, n)
	if parent := w.parentID(); parent != "" && name != "" {
		w.addRef(parent, name, graph.EdgeCalls, n)
	}
}

func (e *RustExtractor) macroName(w *walker, n *tree_sitter.Node) string {
	if m := n.ChildByFieldName("macro"); m != nil {
		return w.text(m)
	}
	text := w.text(n)
	if pos := strings.IndexByte(text, '!'); pos >= 0 {
		text = text[:pos]
	}
	return strings.TrimSpace(text)
}

// callSites finds call expressions and macro invocations inside a body and
// records unresolved Calls references. Nested function items are skipped:
// neither the item nor the calls inside it are recorded.
func (e *RustExtractor) callSites(w *walker, n *tree_sitter.Node, fromID string) {
	eachChild(n, func(child *tree_sitter.Node) {
		switch child.Kind() {
		case "call_expression":
			if callee := child.ChildByFieldName("function"); callee != nil {
				w.addRef(fromID, w.text(callee), graph.EdgeCalls, child)
			}
			e.callSites(w, child, fromID)
		case "macro_invocation":
			if name := e.macroName(w, child); name != "" {
				w.addRef(fromID, name, graph.EdgeCalls, child)
			}
		case "function_item":
		default:
			e.callSites(w, child, fromID)
		}
	})
}

// deriveMacros scans attribute items preceding a struct/enum for derive
// lists and records an unresolved DerivesMacro reference per derived trait.
func (e *RustExtractor) deriveMacros(w *walker, n *tree_sitter.Node, itemID string) {
	for sib := n.PrevNamedSibling(); sib != nil; sib = sib.PrevNamedSibling() {
		switch sib.Kind() {
		case "attribute_item":
			text := w.text(sib)
			if strings.Contains(text, "derive") {
				e.parseDeriveList(w, text, itemID, sib)
			}
		case "line_comment", "block_comment":
			// Comments between attributes and the item are skipped.
		default:
			return
		}
	}
}

func (e *RustExtractor) parseDeriveList(w *walker, attrText, itemID string, attr *tree_sitter.Node) {
	start := strings.Index(attrText, "derive(")
	if start < 0 {
		return
	}
	after := attrText[start+len("derive("):]
	end := strings.IndexByte(after, ')')
	if end < 0 {
		return
	}
	for _, traitName := range strings.Split(after[:end], ",") {
		traitName = strings.TrimSpace(traitName)
		if traitName != "" {
			w.addRef(itemID, traitName, graph.EdgeDerivesMacro, attr)
		}
	}
}

func (e *RustExtractor) name(w *walker, n *tree_sitter.Node) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return w.text(nameNode)
	}
	return "<anonymous>"
}

// visibility inspects an item's visibility_modifier child. Explicit
// modifiers take precedence; items without one are private.
func (e *RustExtractor) visibility(w *walker, n *tree_sitter.Node) graph.Visibility {
	if mod := findChildByKind(n, "visibility_modifier"); mod != nil {
		text := w.text(mod)
		switch {
		case strings.Contains(text, "crate"):
			return graph.VisPubCrate
		case strings.Contains(text, "super"):
			return graph.VisPubSuper
		default:
			return graph.VisPub
		}
	}
	return graph.VisPrivate
}

// docstring collects line/block comments immediately preceding an item,
// skipping attribute items sitting between doc comments and the item.
func (e *RustExtractor) docstring(w *walker, n *tree_sitter.Node) string {
	var comments []string
loop:
	for sib := n.PrevNamedSibling(); sib != nil; sib = sib.PrevNamedSibling() {
		switch sib.Kind() {
		case "line_comment", "block_comment":
			comments = append(comments, w.text(sib))
		case "attribute_item":
			// Attributes like #[derive(...)] may sit between doc comments
			// and the item.
		default:
			break loop
		}
	}
	if len(comments) == 0 {
		return ""
	}
	// Collected closest-first; restore source order.
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	cleaned := make([]string, len(comments))
	for i, c := range comments {
		cleaned[i] = cleanRustComment(c)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func cleanRustComment(comment string) string {
	trimmed := strings.TrimSpace(comment)
	for _, marker := range []string{"///", "//!", "//"} {
		if rest, ok := strings.CutPrefix(trimmed, marker); ok {
			return strings.TrimPrefix(rest, " ")
		}
	}
	if strings.HasPrefix(trimmed, "/*") && strings.HasSuffix(trimmed, "*/") {
		return cleanBlockComment(trimmed[2 : len(trimmed)-2])
	}
	return trimmed
}

// cleanBlockComment strips the leading '*' gutter from each line of a block
// comment body.
func cleanBlockComment(inner string) string {
	lines := strings.Split(inner, "\n")
	for i, line := range lines {
		l := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(l, "* "); ok {
			l = rest
		} else {
			l = strings.TrimPrefix(l, "*")
		}
		lines[i] = l
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (e *RustExtractor) isAsync(w *walker, n *tree_sitter.Node) bool {
	text := strings.TrimLeft(w.text(n), " \t")
	for _, prefix := range []string{"async ", "pub async ", "pub(crate) async ", "pub(super) async "} {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}
