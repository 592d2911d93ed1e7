// Package graph defines the data model of the code graph: node and edge
// taxonomies, the core records persisted by the store, and the deterministic
// node identity scheme.
package graph

// NodeKind classifies a code symbol. Kinds are stored as strings so that new
// kinds can be added without a schema migration.
type NodeKind string

const (
	KindFile            NodeKind = "file"
	KindModule          NodeKind = "module"
	KindPackage         NodeKind = "package"
	KindStruct          NodeKind = "struct"
	KindEnum            NodeKind = "enum"
	KindEnumVariant     NodeKind = "enum_variant"
	KindTrait           NodeKind = "trait"
	KindInterface       NodeKind = "interface"
	KindInterfaceType   NodeKind = "interface_type"
	KindClass           NodeKind = "class"
	KindInnerClass      NodeKind = "inner_class"
	KindImpl            NodeKind = "impl"
	KindFunction        NodeKind = "function"
	KindMethod          NodeKind = "method"
	KindStructMethod    NodeKind = "struct_method"
	KindConstructor     NodeKind = "constructor"
	KindAbstractMethod  NodeKind = "abstract_method"
	KindField           NodeKind = "field"
	KindConst           NodeKind = "const"
	KindStatic          NodeKind = "static"
	KindTypeAlias       NodeKind = "type_alias"
	KindMacro           NodeKind = "macro"
	KindAnnotation      NodeKind = "annotation"
	KindAnnotationUsage NodeKind = "annotation_usage"
	KindInitBlock       NodeKind = "init_block"
	KindUse             NodeKind = "use"
	KindStructTag       NodeKind = "struct_tag"
	KindGenericParam    NodeKind = "generic_param"
)

var nodeKinds = map[string]NodeKind{}

func init() {
	for _, k := range []NodeKind{
		KindFile, KindModule, KindPackage, KindStruct, KindEnum,
		KindEnumVariant, KindTrait, KindInterface, KindInterfaceType,
		KindClass, KindInnerClass, KindImpl, KindFunction, KindMethod,
		KindStructMethod, KindConstructor, KindAbstractMethod, KindField,
		KindConst, KindStatic, KindTypeAlias, KindMacro, KindAnnotation,
		KindAnnotationUsage, KindInitBlock, KindUse, KindStructTag,
		KindGenericParam,
	} {
		nodeKinds[string(k)] = k
	}
}

// ParseNodeKind maps a stored string to a NodeKind. Unknown strings decode to
// KindFunction so that rows written by a newer schema remain readable.
func ParseNodeKind(s string) NodeKind {
	if k, ok := nodeKinds[s]; ok {
		return k
	}
	return KindFunction
}

// CallableKinds is the expected kind set for Calls references during
// resolution scoring.
var CallableKinds = map[NodeKind]bool{
	KindFunction:       true,
	KindMethod:         true,
	KindStructMethod:   true,
	KindConstructor:    true,
	KindAbstractMethod: true,
}

// TypeKinds is the expected kind set for Implements/Extends/Receives/TypeOf
// references during resolution scoring.
var TypeKinds = map[NodeKind]bool{
	KindStruct:        true,
	KindEnum:          true,
	KindTrait:         true,
	KindInterface:     true,
	KindInterfaceType: true,
	KindClass:         true,
	KindInnerClass:    true,
	KindTypeAlias:     true,
	KindAnnotation:    true,
}

// EdgeKind classifies a directed relationship between two nodes.
type EdgeKind string

const (
	EdgeContains     EdgeKind = "contains"
	EdgeCalls        EdgeKind = "calls"
	EdgeUses         EdgeKind = "uses"
	EdgeImplements   EdgeKind = "implements"
	EdgeExtends      EdgeKind = "extends"
	EdgeTypeOf       EdgeKind = "type_of"
	EdgeReturns      EdgeKind = "returns"
	EdgeDerivesMacro EdgeKind = "derives_macro"
	EdgeAnnotates    EdgeKind = "annotates"
	EdgeReceives     EdgeKind = "receives"
)

var edgeKinds = map[string]EdgeKind{}

func init() {
	for _, k := range []EdgeKind{
		EdgeContains, EdgeCalls, EdgeUses, EdgeImplements, EdgeExtends,
		EdgeTypeOf, EdgeReturns, EdgeDerivesMacro, EdgeAnnotates,
		EdgeReceives,
	} {
		edgeKinds[string(k)] = k
	}
}

// ParseEdgeKind maps a stored string to an EdgeKind, defaulting to EdgeUses
// for unknown values.
func ParseEdgeKind(s string) EdgeKind {
	if k, ok := edgeKinds[s]; ok {
		return k
	}
	return EdgeUses
}

// Visibility of a code symbol.
type Visibility string

const (
	VisPub      Visibility = "public"
	VisPubCrate Visibility = "pub_crate"
	VisPubSuper Visibility = "pub_super"
	VisPrivate  Visibility = "private"
)

// ParseVisibility maps a stored string to a Visibility, defaulting to
// VisPrivate for unknown values.
func ParseVisibility(s string) Visibility {
	switch s {
	case "public", "pub":
		return VisPub
	case "pub_crate":
		return VisPubCrate
	case "pub_super":
		return VisPubSuper
	default:
		return VisPrivate
	}
}

// Node is a code symbol in the graph. Lines and columns are 1-based.
type Node struct {
	ID            string     `json:"id"`
	Kind          NodeKind   `json:"kind"`
	Name          string     `json:"name"`
	QualifiedName string     `json:"qualified_name"`
	FilePath      string     `json:"file_path"`
	StartLine     int        `json:"start_line"`
	EndLine       int        `json:"end_line"`
	StartColumn   int        `json:"start_column"`
	EndColumn     int        `json:"end_column"`
	Signature     string     `json:"signature,omitempty"`
	Docstring     string     `json:"docstring,omitempty"`
	Visibility    Visibility `json:"visibility"`
	IsAsync       bool       `json:"is_async"`
	UpdatedAt     int64      `json:"updated_at"`
}

// Edge is a directed, typed relationship between two nodes. Line is the
// 1-based call-site line, or 0 when not applicable. Edges are not unique by
// (source, target, kind); call sites at different lines stay distinct.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
	Line   int      `json:"line,omitempty"`
}

// FileRecord tracks an indexed file. ContentHash is the SHA-256 of the file
// bytes and is the sole source of truth for dirtiness during sync.
type FileRecord struct {
	Path        string `json:"path"`
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
	ModifiedAt  int64  `json:"modified_at"`
	IndexedAt   int64  `json:"indexed_at"`
	NodeCount   int    `json:"node_count"`
}

// UnresolvedRef is a textual reference emitted by an extractor, persisted so
// that resolution can re-run globally after every sync.
type UnresolvedRef struct {
	FromNodeID    string   `json:"from_node_id"`
	ReferenceName string   `json:"reference_name"`
	ReferenceKind EdgeKind `json:"reference_kind"`
	Line          int      `json:"line"`
	Column        int      `json:"column"`
	FilePath      string   `json:"file_path"`
}

// ResolvedRef pairs an unresolved reference with its chosen target.
type ResolvedRef struct {
	Original     UnresolvedRef `json:"original"`
	TargetNodeID string        `json:"target_node_id"`
	Confidence   float64       `json:"confidence"`
	ResolvedBy   string        `json:"resolved_by"`
}

// ResolutionResult summarizes one resolver run.
type ResolutionResult struct {
	Resolved      []ResolvedRef   `json:"resolved"`
	Unresolved    []UnresolvedRef `json:"unresolved"`
	Total         int             `json:"total"`
	ResolvedCount int             `json:"resolved_count"`
}

// ExtractionResult is the pure output of a language extractor for one file.
type ExtractionResult struct {
	Nodes          []*Node         `json:"nodes"`
	Edges          []*Edge         `json:"edges"`
	UnresolvedRefs []UnresolvedRef `json:"unresolved_refs"`
	Errors         []string        `json:"errors"`
	DurationMS     int64           `json:"duration_ms"`
}

// Subgraph is the result of a traversal: discovered nodes, the edges used to
// reach them, and the starting node IDs.
type Subgraph struct {
	Nodes []*Node  `json:"nodes"`
	Edges []*Edge  `json:"edges"`
	Roots []string `json:"roots"`
}

// SearchResult pairs a node with a relevance score.
type SearchResult struct {
	Node  *Node   `json:"node"`
	Score float64 `json:"score"`
}

// Direction selects which edges a traversal follows.
type Direction string

const (
	DirOutgoing Direction = "outgoing"
	DirIncoming Direction = "incoming"
	DirBoth     Direction = "both"
)

// TraversalOptions controls BFS/DFS traversal behavior.
type TraversalOptions struct {
	MaxDepth     int
	EdgeKinds    []EdgeKind
	NodeKinds    []NodeKind
	Direction    Direction
	Limit        int
	IncludeStart bool
}

// DefaultTraversalOptions returns the traversal defaults used by the query
// layer.
func DefaultTraversalOptions() TraversalOptions {
	return TraversalOptions{
		MaxDepth:     3,
		Direction:    DirOutgoing,
		Limit:        100,
		IncludeStart: true,
	}
}

// GraphStats aggregates store-level statistics.
type GraphStats struct {
	NodeCount   int64            `json:"node_count"`
	EdgeCount   int64            `json:"edge_count"`
	FileCount   int64            `json:"file_count"`
	NodesByKind map[string]int64 `json:"nodes_by_kind"`
	EdgesByKind map[string]int64 `json:"edges_by_kind"`
	DBSizeBytes int64            `json:"db_size_bytes"`
	LastUpdated int64            `json:"last_updated"`
}
