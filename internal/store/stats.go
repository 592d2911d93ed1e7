package store

import (
	"fmt"
	"time"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// Stats returns aggregate statistics about the stored graph.
func (s *Store) Stats() (*graph.GraphStats, error) {
	stats := &graph.GraphStats{
		NodesByKind: map[string]int64{},
		EdgesByKind: map[string]int64{},
		LastUpdated: time.Now().Unix(),
	}

	var err error
	if stats.NodeCount, err = s.CountNodes(); err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	if stats.EdgeCount, err = s.CountEdges(); err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}
	if stats.FileCount, err = s.CountFiles(); err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}
	if err = s.groupByKind("nodes", stats.NodesByKind); err != nil {
		return nil, err
	}
	if err = s.groupByKind("edges", stats.EdgesByKind); err != nil {
		return nil, err
	}
	if stats.DBSizeBytes, err = s.Size(); err != nil {
		stats.DBSizeBytes = 0
	}
	return stats, nil
}

func (s *Store) groupByKind(table string, out map[string]int64) error {
	rows, err := s.q.Query("SELECT kind, COUNT(*) FROM " + table + " GROUP BY kind")
	if err != nil {
		return fmt.Errorf("group %s by kind: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return err
		}
		out[kind] = count
	}
	return rows.Err()
}
