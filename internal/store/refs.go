package store

import (
	"fmt"
	"strings"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// refsBatchSize keeps batch INSERTs under the 999 bind variable limit
// (6 cols × 160 = 960).
const refsBatchSize = 160

// InsertUnresolvedRefs appends unresolved references in batched multi-row
// INSERTs.
func (s *Store) InsertUnresolvedRefs(refs []graph.UnresolvedRef) error {
	for i := 0; i < len(refs); i += refsBatchSize {
		end := i + refsBatchSize
		if end > len(refs) {
			end = len(refs)
		}
		if err := s.insertRefChunk(refs[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertRefChunk(batch []graph.UnresolvedRef) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO unresolved_refs (from_node_id, reference_name, reference_kind, line, col, file_path) VALUES ")
	args := make([]any, 0, len(batch)*6)
	for i, r := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?)")
		args = append(args, r.FromNodeID, r.ReferenceName, string(r.ReferenceKind), r.Line, r.Column, r.FilePath)
	}
	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("insert unresolved refs: %w", err)
	}
	return nil
}

// GetUnresolvedRefs returns every persisted unresolved reference.
func (s *Store) GetUnresolvedRefs() ([]graph.UnresolvedRef, error) {
	rows, err := s.q.Query(
		"SELECT from_node_id, reference_name, reference_kind, line, col, file_path FROM unresolved_refs")
	if err != nil {
		return nil, fmt.Errorf("get unresolved refs: %w", err)
	}
	defer rows.Close()
	var result []graph.UnresolvedRef
	for rows.Next() {
		var r graph.UnresolvedRef
		var kind string
		if err := rows.Scan(&r.FromNodeID, &r.ReferenceName, &kind, &r.Line, &r.Column, &r.FilePath); err != nil {
			return nil, err
		}
		r.ReferenceKind = graph.ParseEdgeKind(kind)
		result = append(result, r)
	}
	return result, rows.Err()
}

// CountUnresolvedRefs returns the number of persisted references.
func (s *Store) CountUnresolvedRefs() (int64, error) {
	var count int64
	err := s.q.QueryRow("SELECT COUNT(*) FROM unresolved_refs").Scan(&count)
	return count, err
}

// ClearUnresolvedRefs removes all persisted references.
func (s *Store) ClearUnresolvedRefs() error {
	if _, err := s.q.Exec("DELETE FROM unresolved_refs"); err != nil {
		return fmt.Errorf("clear unresolved refs: %w", err)
	}
	return nil
}
