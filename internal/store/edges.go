package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// InsertEdge appends an edge. Edges are not unique by (source, target,
// kind); duplicates at different call sites differentiate by line.
func (s *Store) InsertEdge(e *graph.Edge) error {
	_, err := s.q.Exec(
		"INSERT INTO edges (source, target, kind, line) VALUES (?, ?, ?, ?)",
		e.Source, e.Target, string(e.Kind), edgeLine(e))
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}

// edgesBatchSize keeps batch INSERTs under the 999 bind variable limit
// (4 cols × 240 = 960).
const edgesBatchSize = 240

// InsertEdgeBatch appends edges in batched multi-row INSERTs.
func (s *Store) InsertEdgeBatch(edges []*graph.Edge) error {
	for i := 0; i < len(edges); i += edgesBatchSize {
		end := i + edgesBatchSize
		if end > len(edges) {
			end = len(edges)
		}
		if err := s.insertEdgeChunk(edges[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertEdgeChunk(batch []*graph.Edge) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO edges (source, target, kind, line) VALUES ")
	args := make([]any, 0, len(batch)*4)
	for i, e := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?)")
		args = append(args, e.Source, e.Target, string(e.Kind), edgeLine(e))
	}
	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("insert edge batch: %w", err)
	}
	return nil
}

// edgeLine maps the zero line sentinel to NULL.
func edgeLine(e *graph.Edge) any {
	if e.Line <= 0 {
		return nil
	}
	return e.Line
}

// EdgeExists reports whether an identical (source, target, kind, line) edge
// is already stored. Used by the resolver so re-running resolution over
// persisted refs stays idempotent.
func (s *Store) EdgeExists(e *graph.Edge) (bool, error) {
	var one int
	var err error
	if e.Line <= 0 {
		err = s.q.QueryRow(
			"SELECT 1 FROM edges WHERE source = ? AND target = ? AND kind = ? AND line IS NULL LIMIT 1",
			e.Source, e.Target, string(e.Kind)).Scan(&one)
	} else {
		err = s.q.QueryRow(
			"SELECT 1 FROM edges WHERE source = ? AND target = ? AND kind = ? AND line = ? LIMIT 1",
			e.Source, e.Target, string(e.Kind), e.Line).Scan(&one)
	}
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("edge exists: %w", err)
	}
	return true, nil
}

// GetOutgoingEdges returns edges from a source node. An empty kinds slice
// means any kind.
func (s *Store) GetOutgoingEdges(sourceID string, kinds []graph.EdgeKind) ([]*graph.Edge, error) {
	return s.edgesByEndpoint("source", sourceID, kinds)
}

// GetIncomingEdges returns edges to a target node. An empty kinds slice
// means any kind.
func (s *Store) GetIncomingEdges(targetID string, kinds []graph.EdgeKind) ([]*graph.Edge, error) {
	return s.edgesByEndpoint("target", targetID, kinds)
}

func (s *Store) edgesByEndpoint(column, id string, kinds []graph.EdgeKind) ([]*graph.Edge, error) {
	query := "SELECT source, target, kind, line FROM edges WHERE " + column + " = ?"
	args := []any{id}
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, k := range kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += " AND kind IN (" + strings.Join(placeholders, ",") + ")"
	}
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("edges by %s: %w", column, err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// CountEdges returns the total edge count.
func (s *Store) CountEdges() (int64, error) {
	var count int64
	err := s.q.QueryRow("SELECT COUNT(*) FROM edges").Scan(&count)
	return count, err
}

// IncomingEdgeCounts returns, for every target node, the number of incoming
// edges excluding the given kinds. Used by the dead-code query.
func (s *Store) IncomingEdgeCounts(excludeKinds []graph.EdgeKind) (map[string]int, error) {
	query := "SELECT target, COUNT(*) FROM edges"
	var args []any
	if len(excludeKinds) > 0 {
		placeholders := make([]string, len(excludeKinds))
		for i, k := range excludeKinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += " WHERE kind NOT IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " GROUP BY target"
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("incoming edge counts: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var target string
		var n int
		if err := rows.Scan(&target, &n); err != nil {
			return nil, err
		}
		counts[target] = n
	}
	return counts, rows.Err()
}

func scanEdges(rows *sql.Rows) ([]*graph.Edge, error) {
	var result []*graph.Edge
	for rows.Next() {
		var e graph.Edge
		var kind string
		var line sql.NullInt64
		if err := rows.Scan(&e.Source, &e.Target, &kind, &line); err != nil {
			return nil, err
		}
		e.Kind = graph.ParseEdgeKind(kind)
		if line.Valid {
			e.Line = int(line.Int64)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}
