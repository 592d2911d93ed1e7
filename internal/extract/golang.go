package extract

import (
	"strings"
	"time"
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// GoExtractor maps Go concrete syntax onto the common graph model: package
// clauses, imports, functions, methods with receivers, structs with fields
// and tags, interfaces with embeddings, type aliases, consts, and vars.
type GoExtractor struct{}

func (GoExtractor) Extensions() []string { return []string{"go"} }

func (GoExtractor) LanguageName() string { return "Go" }

func (e *GoExtractor) Extract(filePath string, source []byte) *graph.ExtractionResult {
	start := time.Now()
	w := newWalker(filePath, source)

	tree, err := parse(langGo, source)
	if err != nil {
		w.errs = append(w.errs, err.Error())
		return w.result(start)
	}
	defer tree.Close()

	w.fileRoot()
	eachChild(tree.RootNode(), func(child *tree_sitter.Node) {
		e.visitNode(w, child)
	})
	w.pop()

	return w.result(start)
}

func (e *GoExtractor) visitNode(w *walker, n *tree_sitter.Node) {
	switch n.Kind() {
	case "package_clause":
		e.visitPackage(w, n)
	case "import_declaration":
		e.visitImports(w, n)
	case "function_declaration":
		e.visitFunction(w, n)
	case "method_declaration":
		e.visitMethod(w, n)
	case "type_declaration":
		e.visitTypeDeclaration(w, n)
	case "const_declaration":
		e.visitSpecs(w, n, "const_spec", graph.KindConst)
	case "var_declaration":
		e.visitSpecs(w, n, "var_spec", graph.KindStatic)
	}
}

func (e *GoExtractor) visitPackage(w *walker, n *tree_sitter.Node) {
	name := "<unknown>"
	if ident := findChildByKind(n, "package_identifier"); ident != nil {
		name = w.text(ident)
	}
	node := w.newNode(graph.KindPackage, name, n)
	node.Visibility = graph.VisPub
	node.Signature = strings.TrimSpace(w.text(n))
	w.addNode(node)
}

// visitImports handles both single import specs and grouped spec lists. Each
// import becomes a Use node plus an unresolved Uses reference.
func (e *GoExtractor) visitImports(w *walker, n *tree_sitter.Node) {
	eachChild(n, func(child *tree_sitter.Node) {
		switch child.Kind() {
		case "import_spec":
			e.visitSingleImport(w, child)
		case "import_spec_list":
			eachChild(child, func(spec *tree_sitter.Node) {
				if spec.Kind() == "import_spec" {
					e.visitSingleImport(w, spec)
				}
			})
		}
	})
}

func (e *GoExtractor) visitSingleImport(w *walker, n *tree_sitter.Node) {
	text := strings.TrimSpace(w.text(n))
	path := strings.Trim(text, `"`)

	node := w.newNode(graph.KindUse, path, n)
	node.Signature = text
	w.addNode(node)

	w.addRef(node.ID, path, graph.EdgeUses, n)
}

func (e *GoExtractor) visitFunction(w *walker, n *tree_sitter.Node) {
	name := "<anonymous>"
	if ident := findChildByKind(n, "identifier"); ident != nil {
		name = w.text(ident)
	}
	node := w.newNode(graph.KindFunction, name, n)
	node.Visibility = goVisibility(name)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.docstring(w, n)
	w.addNode(node)

	e.typeParams(w, n, node.ID)
	if body := findChildByKind(n, "block"); body != nil {
		e.callSites(w, body, node.ID)
	}
}

func (e *GoExtractor) visitMethod(w *walker, n *tree_sitter.Node) {
	name := "<anonymous>"
	if ident := findChildByKind(n, "field_identifier"); ident != nil {
		name = w.text(ident)
	}
	node := w.newNode(graph.KindStructMethod, name, n)
	node.Visibility = goVisibility(name)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.docstring(w, n)
	w.addNode(node)

	e.receiver(w, n, node.ID)
	e.typeParams(w, n, node.ID)
	if body := findChildByKind(n, "block"); body != nil {
		e.callSites(w, body, node.ID)
	}
}

func (e *GoExtractor) visitTypeDeclaration(w *walker, n *tree_sitter.Node) {
	eachChild(n, func(child *tree_sitter.Node) {
		switch child.Kind() {
		case "type_spec":
			e.visitTypeSpec(w, child, n)
		case "type_alias":
			e.visitNamedType(w, child, n, graph.KindTypeAlias)
		}
	})
}

func (e *GoExtractor) visitTypeSpec(w *walker, spec, decl *tree_sitter.Node) {
	name := "<anonymous>"
	if ident := findChildByKind(spec, "type_identifier"); ident != nil {
		name = w.text(ident)
	}
	if structType := findChildByKind(spec, "struct_type"); structType != nil {
		e.visitStruct(w, name, structType, decl)
	} else if ifaceType := findChildByKind(spec, "interface_type"); ifaceType != nil {
		e.visitInterface(w, name, ifaceType, decl)
	} else {
		// A plain defined type (`type Foo int`); graphed like an alias.
		e.visitNamedTypeByName(w, name, decl)
	}
}

func (e *GoExtractor) visitStruct(w *walker, name string, structType, decl *tree_sitter.Node) {
	node := w.newNode(graph.KindStruct, name, decl)
	node.Visibility = goVisibility(name)
	node.Signature = signatureUpToBody(w.text(decl))
	node.Docstring = e.docstring(w, decl)
	w.addNode(node)

	w.push(name, node.ID)
	if fieldList := findChildByKind(structType, "field_declaration_list"); fieldList != nil {
		eachChild(fieldList, func(child *tree_sitter.Node) {
			if child.Kind() == "field_declaration" {
				e.visitField(w, child)
			}
		})
	}
	w.pop()
}

func (e *GoExtractor) visitField(w *walker, n *tree_sitter.Node) {
	name := "<anonymous>"
	if ident := findChildByKind(n, "field_identifier"); ident != nil {
		name = w.text(ident)
	}
	node := w.newNode(graph.KindField, name, n)
	node.Visibility = goVisibility(name)
	node.Signature = strings.TrimSpace(w.text(n))
	w.addNode(node)

	if tag := findChildByKind(n, "raw_string_literal"); tag != nil {
		e.visitStructTag(w, tag, name, node.ID)
	}
}

// visitStructTag records a field's backtick tag as a StructTag child of the
// field.
func (e *GoExtractor) visitStructTag(w *walker, tag *tree_sitter.Node, fieldName, fieldID string) {
	tagName := fieldName + ":tag"
	node := w.newNode(graph.KindStructTag, tagName, tag)
	node.Signature = w.text(tag)
	w.nodes = append(w.nodes, node)
	w.edges = append(w.edges, &graph.Edge{
		Source: fieldID,
		Target: node.ID,
		Kind:   graph.EdgeContains,
		Line:   node.StartLine,
	})
}

func (e *GoExtractor) visitInterface(w *walker, name string, ifaceType, decl *tree_sitter.Node) {
	node := w.newNode(graph.KindInterfaceType, name, decl)
	node.Visibility = goVisibility(name)
	node.Signature = signatureUpToBody(w.text(decl))
	node.Docstring = e.docstring(w, decl)
	w.addNode(node)

	// Embedded interfaces become Extends references.
	eachChild(ifaceType, func(child *tree_sitter.Node) {
		if child.Kind() != "type_elem" {
			return
		}
		if typeID := findChildByKind(child, "type_identifier"); typeID != nil {
			w.addRef(node.ID, w.text(typeID), graph.EdgeExtends, child)
		}
	})
}

func (e *GoExtractor) visitNamedType(w *walker, alias, decl *tree_sitter.Node, kind graph.NodeKind) {
	name := "<anonymous>"
	if ident := findChildByKind(alias, "type_identifier"); ident != nil {
		name = w.text(ident)
	}
	node := w.newNode(kind, name, decl)
	node.Visibility = goVisibility(name)
	node.Signature = strings.TrimSpace(w.text(decl))
	node.Docstring = e.docstring(w, decl)
	w.addNode(node)
}

func (e *GoExtractor) visitNamedTypeByName(w *walker, name string, decl *tree_sitter.Node) {
	node := w.newNode(graph.KindTypeAlias, name, decl)
	node.Visibility = goVisibility(name)
	node.Signature = strings.TrimSpace(w.text(decl))
	node.Docstring = e.docstring(w, decl)
	w.addNode(node)
}

// visitSpecs handles const and var declarations, which group one or more
// specs. Package-level vars are graphed as Static nodes.
func (e *GoExtractor) visitSpecs(w *walker, n *tree_sitter.Node, specKind string, kind graph.NodeKind) {
	eachChild(n, func(child *tree_sitter.Node) {
		if child.Kind() != specKind {
			return
		}
		name := "<anonymous>"
		if ident := findChildByKind(child, "identifier"); ident != nil {
			name = w.text(ident)
		}
		node := w.newNode(kind, name, child)
		node.Visibility = goVisibility(name)
		node.Signature = strings.TrimSpace(w.text(child))
		w.addNode(node)
	})
}

// receiver extracts the method receiver type, recording an unresolved
// Receives reference and, when the receiver struct was already seen in this
// file, a direct Receives edge.
func (e *GoExtractor) receiver(w *walker, n *tree_sitter.Node, methodID string) {
	params := findChildByKind(n, "parameter_list")
	if params == nil {
		return
	}
	param := findChildByKind(params, "parameter_declaration")
	if param == nil {
		return
	}
	typeName := e.receiverTypeName(w, param)
	if typeName == "" {
		return
	}
	w.addRef(methodID, typeName, graph.EdgeReceives, params)

	for _, existing := range w.nodes {
		if existing.Kind == graph.KindStruct && existing.Name == typeName {
			w.edges = append(w.edges, &graph.Edge{
				Source: methodID,
				Target: existing.ID,
				Kind:   graph.EdgeReceives,
				Line:   int(params.StartPosition().Row) + 1,
			})
			break
		}
	}
}

// receiverTypeName handles both value (`c Circle`) and pointer
// (`c *Circle`) receivers.
func (e *GoExtractor) receiverTypeName(w *walker, param *tree_sitter.Node) string {
	if typeID := findChildByKind(param, "type_identifier"); typeID != nil {
		return w.text(typeID)
	}
	if ptr := findChildByKind(param, "pointer_type"); ptr != nil {
		if typeID := findChildByKind(ptr, "type_identifier"); typeID != nil {
			return w.text(typeID)
		}
	}
	return ""
}

// typeParams records generic type parameters as GenericParam children.
func (e *GoExtractor) typeParams(w *walker, n *tree_sitter.Node, parentID string) {
	list := findChildByKind(n, "type_parameter_list")
	if list == nil {
		return
	}
	eachChild(list, func(child *tree_sitter.Node) {
		if child.Kind() != "type_parameter_declaration" {
			return
		}
		ident := findChildByKind(child, "identifier")
		if ident == nil {
			return
		}
		node := w.newNode(graph.KindGenericParam, w.text(ident), child)
		node.Signature = strings.TrimSpace(w.text(child))
		w.nodes = append(w.nodes, node)
		w.edges = append(w.edges, &graph.Edge{
			Source: parentID,
			Target: node.ID,
			Kind:   graph.EdgeContains,
			Line:   node.StartLine,
		})
	})
}

// callSites finds call expressions inside a body and records unresolved
// Calls references. Function literals are skipped so their calls do not
// pollute the enclosing declaration.
func (e *GoExtractor) callSites(w *walker, n *tree_sitter.Node, fromID string) {
	eachChild(n, func(child *tree_sitter.Node) {
		switch child.Kind() {
		case "call_expression":
			if callee := child.NamedChild(0); callee != nil {
				w.addRef(fromID, w.text(callee), graph.EdgeCalls, child)
			}
			e.callSites(w, child, fromID)
		case "func_literal":
		default:
			e.callSites(w, child, fromID)
		}
	})
}

// docstring collects the contiguous comment block immediately preceding a
// declaration.
func (e *GoExtractor) docstring(w *walker, n *tree_sitter.Node) string {
	var comments []string
	for sib := n.PrevNamedSibling(); sib != nil && sib.Kind() == "comment"; sib = sib.PrevNamedSibling() {
		comments = append(comments, w.text(sib))
	}
	if len(comments) == 0 {
		return ""
	}
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	cleaned := make([]string, len(comments))
	for i, c := range comments {
		cleaned[i] = cleanGoComment(c)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

func cleanGoComment(comment string) string {
	trimmed := strings.TrimSpace(comment)
	if rest, ok := strings.CutPrefix(trimmed, "//"); ok {
		return strings.TrimPrefix(rest, " ")
	}
	if strings.HasPrefix(trimmed, "/*") && strings.HasSuffix(trimmed, "*/") {
		return cleanBlockComment(trimmed[2 : len(trimmed)-2])
	}
	return trimmed
}

// goVisibility applies the capitalization rule: an uppercase first rune
// means exported.
func goVisibility(name string) graph.Visibility {
	for _, r := range name {
		if unicode.IsUpper(r) {
			return graph.VisPub
		}
		break
	}
	return graph.VisPrivate
}
