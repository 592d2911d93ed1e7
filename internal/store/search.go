package store

import (
	"fmt"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// likeFallbackScore is assigned to LIKE matches, which carry no FTS rank.
const likeFallbackScore = 0.5

// SearchNodes searches nodes by name, qualified name, docstring, or
// signature. An FTS5 prefix query runs first; when it yields nothing (or the
// build lacks FTS5), a LIKE query against name and qualified_name takes
// over with a flat score.
func (s *Store) SearchNodes(query string, limit int) ([]*graph.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	results, err := s.searchFTS(query, limit)
	if err == nil && len(results) > 0 {
		return results, nil
	}

	return s.searchLike(query, limit)
}

func (s *Store) searchLike(query string, limit int) ([]*graph.SearchResult, error) {
	pattern := "%" + query + "%"
	rows, err := s.q.Query(
		"SELECT "+nodeCols+" FROM nodes WHERE name LIKE ? OR qualified_name LIKE ? LIMIT ?",
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("like search: %w", err)
	}
	defer rows.Close()

	var results []*graph.SearchResult
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, &graph.SearchResult{Node: n, Score: likeFallbackScore})
	}
	return results, rows.Err()
}
