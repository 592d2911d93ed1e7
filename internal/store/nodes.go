package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// nodeCols is the canonical column list for the nodes table.
const nodeCols = "id, kind, name, qualified_name, file_path, start_line, end_line, start_column, end_column, signature, docstring, visibility, is_async, updated_at"

// nodeColumns returns the node column list qualified with a table alias.
func nodeColumns(alias string) string {
	parts := strings.Split(nodeCols, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

// UpsertNode inserts or replaces a node by ID. The FTS mirror is maintained
// by triggers.
func (s *Store) UpsertNode(n *graph.Node) error {
	_, err := s.q.Exec(`
		INSERT INTO nodes (`+nodeCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, name=excluded.name,
			qualified_name=excluded.qualified_name, file_path=excluded.file_path,
			start_line=excluded.start_line, end_line=excluded.end_line,
			start_column=excluded.start_column, end_column=excluded.end_column,
			signature=excluded.signature, docstring=excluded.docstring,
			visibility=excluded.visibility, is_async=excluded.is_async,
			updated_at=excluded.updated_at`,
		nodeArgs(n)...)
	if err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}
	return nil
}

func nodeArgs(n *graph.Node) []any {
	return []any{
		n.ID, string(n.Kind), n.Name, n.QualifiedName, n.FilePath,
		n.StartLine, n.EndLine, n.StartColumn, n.EndColumn,
		n.Signature, n.Docstring, string(n.Visibility), boolToInt(n.IsAsync),
		n.UpdatedAt,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Formula-derived batch size: SQLite has a 999 bind variable limit.
const numNodeCols = 14
const nodesBatchSize = 999 / numNodeCols // = 71

// UpsertNodeBatch inserts or updates nodes in batched multi-row INSERTs
// inside the caller's transaction scope.
func (s *Store) UpsertNodeBatch(nodes []*graph.Node) error {
	for i := 0; i < len(nodes); i += nodesBatchSize {
		end := i + nodesBatchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		if err := s.upsertNodeChunk(nodes[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertNodeChunk(batch []*graph.Node) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO nodes (" + nodeCols + ") VALUES ")
	args := make([]any, 0, len(batch)*numNodeCols)
	for i, n := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args, nodeArgs(n)...)
	}
	sb.WriteString(` ON CONFLICT(id) DO UPDATE SET
		kind=excluded.kind, name=excluded.name,
		qualified_name=excluded.qualified_name, file_path=excluded.file_path,
		start_line=excluded.start_line, end_line=excluded.end_line,
		start_column=excluded.start_column, end_column=excluded.end_column,
		signature=excluded.signature, docstring=excluded.docstring,
		visibility=excluded.visibility, is_async=excluded.is_async,
		updated_at=excluded.updated_at`)

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("upsert node batch: %w", err)
	}
	return nil
}

// GetNodeByID returns the node with the given ID, or nil when absent.
func (s *Store) GetNodeByID(id string) (*graph.Node, error) {
	row := s.q.QueryRow("SELECT "+nodeCols+" FROM nodes WHERE id = ?", id)
	n, err := scanNode(row)
	if err != nil {
		return nil, fmt.Errorf("get node by id: %w", err)
	}
	return n, nil
}

// GetNodesByFile returns all nodes in a file, ordered by start line.
func (s *Store) GetNodesByFile(filePath string) ([]*graph.Node, error) {
	rows, err := s.q.Query(
		"SELECT "+nodeCols+" FROM nodes WHERE file_path = ? ORDER BY start_line", filePath)
	if err != nil {
		return nil, fmt.Errorf("get nodes by file: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetNodesByKind returns all nodes of a given kind.
func (s *Store) GetNodesByKind(kind graph.NodeKind) ([]*graph.Node, error) {
	rows, err := s.q.Query("SELECT "+nodeCols+" FROM nodes WHERE kind = ?", string(kind))
	if err != nil {
		return nil, fmt.Errorf("get nodes by kind: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetNodesByName returns all nodes with the given simple name.
func (s *Store) GetNodesByName(name string) ([]*graph.Node, error) {
	rows, err := s.q.Query("SELECT "+nodeCols+" FROM nodes WHERE name = ?", name)
	if err != nil {
		return nil, fmt.Errorf("get nodes by name: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// AllNodes returns every node in the store.
func (s *Store) AllNodes() ([]*graph.Node, error) {
	rows, err := s.q.Query("SELECT " + nodeCols + " FROM nodes")
	if err != nil {
		return nil, fmt.Errorf("all nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// CountNodes returns the total node count.
func (s *Store) CountNodes() (int64, error) {
	var count int64
	err := s.q.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count)
	return count, err
}

// DeleteNodesByFile deletes all graph data owned by a file in the cascade
// order edges → unresolved refs → vectors → nodes. When called outside a
// transaction it opens one so readers never observe a half-deleted file.
func (s *Store) DeleteNodesByFile(filePath string) error {
	if !s.inTransaction() {
		return s.WithTransaction(func(tx *Store) error {
			return tx.DeleteNodesByFile(filePath)
		})
	}
	stmts := []string{
		`DELETE FROM edges WHERE source IN (SELECT id FROM nodes WHERE file_path = ?)
			OR target IN (SELECT id FROM nodes WHERE file_path = ?)`,
		`DELETE FROM unresolved_refs WHERE file_path = ?
			OR from_node_id IN (SELECT id FROM nodes WHERE file_path = ?)`,
		`DELETE FROM vectors WHERE node_id IN (SELECT id FROM nodes WHERE file_path = ?)`,
		`DELETE FROM nodes WHERE file_path = ?`,
	}
	argc := []int{2, 2, 1, 1}
	for i, stmt := range stmts {
		args := make([]any, argc[i])
		for j := range args {
			args[j] = filePath
		}
		if _, err := s.q.Exec(stmt, args...); err != nil {
			return fmt.Errorf("delete nodes by file: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*graph.Node, error) {
	var n graph.Node
	var kind, vis string
	var isAsync int
	err := row.Scan(
		&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath,
		&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn,
		&n.Signature, &n.Docstring, &vis, &isAsync, &n.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	n.Kind = graph.ParseNodeKind(kind)
	n.Visibility = graph.ParseVisibility(vis)
	n.IsAsync = isAsync != 0
	return &n, nil
}

// scanNodeWithRank scans a node row that carries a trailing FTS rank column.
func scanNodeWithRank(row scanner) (*graph.Node, float64, error) {
	var n graph.Node
	var kind, vis string
	var isAsync int
	var rank float64
	err := row.Scan(
		&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath,
		&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn,
		&n.Signature, &n.Docstring, &vis, &isAsync, &n.UpdatedAt,
		&rank,
	)
	if err != nil {
		return nil, 0, err
	}
	n.Kind = graph.ParseNodeKind(kind)
	n.Visibility = graph.ParseVisibility(vis)
	n.IsAsync = isAsync != 0
	return &n, rank, nil
}

func scanNodes(rows *sql.Rows) ([]*graph.Node, error) {
	var result []*graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
