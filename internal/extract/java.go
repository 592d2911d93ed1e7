package extract

import (
	"fmt"
	"strings"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// JavaExtractor maps Java concrete syntax onto the common graph model:
// packages, imports, classes and inner classes, interfaces with abstract
// methods, enums with constants, annotation types and usages, constructors,
// fields, and initializer blocks.
type JavaExtractor struct{}

func (JavaExtractor) Extensions() []string { return []string{"java"} }

func (JavaExtractor) LanguageName() string { return "Java" }

// javaWalker augments the shared walker with the nesting state Java needs:
// class depth distinguishes inner classes, and interface scope turns
// bodyless methods into AbstractMethod nodes.
type javaWalker struct {
	*walker
	classDepth      int
	insideInterface bool
}

func (e *JavaExtractor) Extract(filePath string, source []byte) *graph.ExtractionResult {
	start := time.Now()
	w := &javaWalker{walker: newWalker(filePath, source)}

	tree, err := parse(langJava, source)
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

func (e *JavaExtractor) visitChildren(w *javaWalker, n *tree_sitter.Node) {
	eachChild(n, func(child *tree_sitter.Node) {
		e.visitNode(w, child)
	})
}

func (e *JavaExtractor) visitNode(w *javaWalker, n *tree_sitter.Node) {
	switch n.Kind() {
	case "package_declaration":
		e.visitPackage(w, n)
	case "import_declaration":
		e.visitImport(w, n)
	case "class_declaration":
		e.visitClass(w, n)
	case "interface_declaration":
		e.visitInterface(w, n)
	case "enum_declaration":
		e.visitEnum(w, n)
	case "annotation_type_declaration":
		e.visitAnnotationType(w, n)
	case "method_declaration":
		e.visitMethod(w, n)
	case "constructor_declaration":
		e.visitConstructor(w, n)
	case "field_declaration":
		e.visitFieldDeclaration(w, n)
	case "static_initializer":
		e.visitStaticInitializer(w, n)
	default:
		e.visitChildren(w, n)
	}
}

func (e *JavaExtractor) visitPackage(w *javaWalker, n *tree_sitter.Node) {
	text := strings.TrimSpace(w.text(n))
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "package "), ";"))

	node := w.newNode(graph.KindPackage, name, n)
	node.Visibility = graph.VisPub
	node.Signature = text
	w.addNode(node)
}

func (e *JavaExtractor) visitImport(w *javaWalker, n *tree_sitter.Node) {
	text := strings.TrimSpace(w.text(n))
	path := strings.TrimSpace(strings.TrimPrefix(text, "import "))
	path = strings.TrimSpace(strings.TrimPrefix(path, "static "))
	path = strings.TrimSpace(strings.TrimSuffix(path, ";"))

	node := w.newNode(graph.KindUse, path, n)
	node.Signature = text
	w.addNode(node)

	w.addRef(node.ID, path, graph.EdgeUses, n)
}

func (e *JavaExtractor) visitClass(w *javaWalker, n *tree_sitter.Node) {
	name := e.name(w, n)
	kind := graph.KindClass
	if w.classDepth > 0 {
		kind = graph.KindInnerClass
	}
	node := w.newNode(kind, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.javadoc(w, n)
	w.addNode(node)

	e.superclass(w, n, node.ID)
	e.superInterfaces(w, n, node.ID)
	e.typeParameters(w, n, node.ID)
	e.annotations(w, n, node.ID)

	w.push(name, node.ID)
	w.classDepth++
	if body := n.ChildByFieldName("body"); body != nil {
		e.visitChildren(w, body)
	}
	w.classDepth--
	w.pop()
}

func (e *JavaExtractor) visitInterface(w *javaWalker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindInterface, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.javadoc(w, n)
	w.addNode(node)

	e.extendsInterfaces(w, n, node.ID)
	e.typeParameters(w, n, node.ID)
	e.annotations(w, n, node.ID)

	prev := w.insideInterface
	w.insideInterface = true
	w.push(name, node.ID)
	w.classDepth++
	if body := n.ChildByFieldName("body"); body != nil {
		e.visitChildren(w, body)
	}
	w.classDepth--
	w.pop()
	w.insideInterface = prev
}

func (e *JavaExtractor) visitEnum(w *javaWalker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindEnum, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.javadoc(w, n)
	w.addNode(node)

	e.superInterfaces(w, n, node.ID)
	e.annotations(w, n, node.ID)

	w.push(name, node.ID)
	if body := n.ChildByFieldName("body"); body != nil {
		eachChild(body, func(child *tree_sitter.Node) {
			if child.Kind() == "enum_constant" {
				e.visitEnumConstant(w, child)
			}
		})
	}
	w.pop()
}

func (e *JavaExtractor) visitEnumConstant(w *javaWalker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindEnumVariant, name, n)
	node.Visibility = graph.VisPub
	node.Signature = strings.TrimSpace(w.text(n))
	w.addNode(node)
}

func (e *JavaExtractor) visitAnnotationType(w *javaWalker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindAnnotation, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.javadoc(w, n)
	w.addNode(node)
}

func (e *JavaExtractor) visitMethod(w *javaWalker, n *tree_sitter.Node) {
	name := e.name(w, n)
	hasBody := n.ChildByFieldName("body") != nil || findChildByKind(n, "block") != nil
	isAbstract := e.hasModifier(w, n, "abstract") || (w.insideInterface && !hasBody)

	kind := graph.KindMethod
	if isAbstract {
		kind = graph.KindAbstractMethod
	}

	node := w.newNode(kind, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.javadoc(w, n)
	w.addNode(node)

	e.annotations(w, n, node.ID)

	if hasBody {
		e.callSites(w, n, node.ID)
	}
}

func (e *JavaExtractor) visitConstructor(w *javaWalker, n *tree_sitter.Node) {
	name := e.name(w, n)
	node := w.newNode(graph.KindConstructor, name, n)
	node.Visibility = e.visibility(w, n)
	node.Signature = signatureUpToBody(w.text(n))
	node.Docstring = e.javadoc(w, n)
	w.addNode(node)

	e.annotations(w, n, node.ID)
	e.callSites(w, n, node.ID)
}

// visitFieldDeclaration emits one Field node per variable declarator.
func (e *JavaExtractor) visitFieldDeclaration(w *javaWalker, n *tree_sitter.Node) {
	visibility := e.visibility(w, n)
	signature := strings.TrimSpace(w.text(n))

	eachChild(n, func(child *tree_sitter.Node) {
		if child.Kind() != "variable_declarator" {
			return
		}
		name := "<anonymous>"
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			name = w.text(nameNode)
		}
		node := w.newNode(graph.KindField, name, n)
		node.Visibility = visibility
		node.Signature = signature
		w.addNode(node)
	})
}

func (e *JavaExtractor) visitStaticInitializer(w *javaWalker, n *tree_sitter.Node) {
	startLine := int(n.StartPosition().Row) + 1
	name := fmt.Sprintf("<static_init>:%d", startLine)
	node := w.newNode(graph.KindInitBlock, name, n)
	node.Signature = "static { ... }"
	w.addNode(node)

	e.callSites(w, n, node.ID)
}

// ----------------------------
// Helpers
// ----------------------------

func (e *JavaExtractor) name(w *javaWalker, n *tree_sitter.Node) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return w.text(nameNode)
	}
	return "<anonymous>"
}

// visibility maps Java modifiers: public → Pub, protected → PubCrate,
// private and package-private → Private.
func (e *JavaExtractor) visibility(w *javaWalker, n *tree_sitter.Node) graph.Visibility {
	mods := findChildByKind(n, "modifiers")
	if mods == nil {
		return graph.VisPrivate
	}
	text := w.text(mods)
	switch {
	case strings.Contains(text, "public"):
		return graph.VisPub
	case strings.Contains(text, "protected"):
		return graph.VisPubCrate
	default:
		return graph.VisPrivate
	}
}

func (e *JavaExtractor) hasModifier(w *javaWalker, n *tree_sitter.Node, modifier string) bool {
	mods := findChildByKind(n, "modifiers")
	if mods == nil {
		return false
	}
	for _, word := range strings.Fields(w.text(mods)) {
		if word == modifier {
			return true
		}
	}
	return false
}

// javadoc returns the /** ... */ comment preceding a declaration, cleaned of
// its markers. Ordinary comments are skipped.
func (e *JavaExtractor) javadoc(w *javaWalker, n *tree_sitter.Node) string {
	for sib := n.PrevNamedSibling(); sib != nil; sib = sib.PrevNamedSibling() {
		switch sib.Kind() {
		case "block_comment":
			text := w.text(sib)
			if strings.HasPrefix(text, "/**") {
				return cleanJavadoc(text)
			}
		case "line_comment":
		default:
			return ""
		}
	}
	return ""
}

func cleanJavadoc(comment string) string {
	trimmed := strings.TrimSpace(comment)
	if strings.HasPrefix(trimmed, "/**") && strings.HasSuffix(trimmed, "*/") {
		trimmed = trimmed[3 : len(trimmed)-2]
	}
	return cleanBlockComment(trimmed)
}

// superclass records an Extends reference for `class Foo extends Bar`.
func (e *JavaExtractor) superclass(w *javaWalker, n *tree_sitter.Node, classID string) {
	super := findChildByKind(n, "superclass")
	if super == nil {
		return
	}
	for i := uint(0); i < super.NamedChildCount(); i++ {
		child := super.NamedChild(i)
		if child == nil || child.Kind() == "superclass" {
			continue
		}
		w.addRef(classID, w.text(child), graph.EdgeExtends, child)
		return
	}
}

// superInterfaces records Implements references for an implements clause.
func (e *JavaExtractor) superInterfaces(w *javaWalker, n *tree_sitter.Node, classID string) {
	if clause := findChildByKind(n, "super_interfaces"); clause != nil {
		e.typeListRefs(w, clause, classID, graph.EdgeImplements)
	}
}

// extendsInterfaces records Extends references for `interface A extends B`.
func (e *JavaExtractor) extendsInterfaces(w *javaWalker, n *tree_sitter.Node, ifaceID string) {
	if clause := findChildByKind(n, "extends_interfaces"); clause != nil {
		e.typeListRefs(w, clause, ifaceID, graph.EdgeExtends)
	}
}

func (e *JavaExtractor) typeListRefs(w *javaWalker, n *tree_sitter.Node, fromID string, kind graph.EdgeKind) {
	eachChild(n, func(child *tree_sitter.Node) {
		switch {
		case child.Kind() == "type_list":
			e.typeListRefs(w, child, fromID, kind)
		case child.IsNamed() && (child.Kind() == "type_identifier" || child.Kind() == "generic_type"):
			w.addRef(fromID, w.text(child), kind, child)
		}
	})
}

// typeParameters records generic type parameters as GenericParam children.
func (e *JavaExtractor) typeParameters(w *javaWalker, n *tree_sitter.Node, parentID string) {
	params := findChildByKind(n, "type_parameters")
	if params == nil {
		return
	}
	eachChild(params, func(child *tree_sitter.Node) {
		if child.Kind() != "type_parameter" {
			return
		}
		full := strings.TrimSpace(w.text(child))
		name := full
		if fields := strings.Fields(full); len(fields) > 0 {
			name = fields[0]
		}
		node := w.newNode(graph.KindGenericParam, name, child)
		node.Signature = full
		w.nodes = append(w.nodes, node)
		w.edges = append(w.edges, &graph.Edge{
			Source: parentID,
			Target: node.ID,
			Kind:   graph.EdgeContains,
			Line:   node.StartLine,
		})
	})
}

// annotations records every annotation in a declaration's modifiers as an
// AnnotationUsage node contained by the annotated declaration, with an
// Annotates edge to that declaration, plus an unresolved Annotates reference
// toward the annotation type.
func (e *JavaExtractor) annotations(w *javaWalker, n *tree_sitter.Node, targetID string) {
	mods := findChildByKind(n, "modifiers")
	if mods == nil {
		return
	}
	eachChild(mods, func(child *tree_sitter.Node) {
		if child.Kind() != "marker_annotation" && child.Kind() != "annotation" {
			return
		}
		name := e.annotationName(w, child)
		node := w.newNode(graph.KindAnnotationUsage, name, child)
		node.QualifiedName = w.qualifiedPrefix() + "::@" + name
		node.Signature = strings.TrimSpace(w.text(child))
		w.nodes = append(w.nodes, node)
		w.edges = append(w.edges, &graph.Edge{
			Source: targetID,
			Target: node.ID,
			Kind:   graph.EdgeContains,
			Line:   node.StartLine,
		})

		w.addRef(node.ID, name, graph.EdgeAnnotates, child)
		w.edges = append(w.edges, &graph.Edge{
			Source: node.ID,
			Target: targetID,
			Kind:   graph.EdgeAnnotates,
			Line:   node.StartLine,
		})
	})
}

func (e *JavaExtractor) annotationName(w *javaWalker, n *tree_sitter.Node) string {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child != nil && (child.Kind() == "identifier" || child.Kind() == "scoped_identifier") {
			return w.text(child)
		}
	}
	return strings.TrimPrefix(w.text(n), "@")
}

// callSites finds method invocations and object creations inside a body and
// records unresolved Calls references. Nested declarations are skipped.
func (e *JavaExtractor) callSites(w *javaWalker, n *tree_sitter.Node, fromID string) {
	eachChild(n, func(child *tree_sitter.Node) {
		switch child.Kind() {
		case "method_invocation":
			w.addRef(fromID, e.invocationName(w, child), graph.EdgeCalls, child)
			e.callSites(w, child, fromID)
		case "object_creation_expression":
			w.addRef(fromID, "new "+e.creationType(w, child), graph.EdgeCalls, child)
			e.callSites(w, child, fromID)
		case "method_declaration", "constructor_declaration", "class_declaration":
		default:
			e.callSites(w, child, fromID)
		}
	})
}

// invocationName renders a call like "obj.method" or a bare "method".
func (e *JavaExtractor) invocationName(w *javaWalker, n *tree_sitter.Node) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name := w.text(nameNode)
		if obj := n.ChildByFieldName("object"); obj != nil {
			return w.text(obj) + "." + name
		}
		return name
	}
	text := w.text(n)
	if pos := strings.IndexByte(text, '('); pos >= 0 {
		text = text[:pos]
	}
	return strings.TrimSpace(text)
}

func (e *JavaExtractor) creationType(w *javaWalker, n *tree_sitter.Node) string {
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		return w.text(typeNode)
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "type_identifier", "generic_type", "scoped_type_identifier":
			return w.text(child)
		}
	}
	return "<unknown>"
}
