//go:build !sqlite_fts5

package store

import "github.com/codegraphhq/codegraph/internal/graph"

// Without the sqlite_fts5 build tag the driver lacks the FTS5 extension, so
// no virtual table is created and search relies on the LIKE fallback.
func (s *Store) initFTS() error {
	return nil
}

func (s *Store) searchFTS(query string, limit int) ([]*graph.SearchResult, error) {
	return nil, nil
}
