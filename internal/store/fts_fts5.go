//go:build sqlite_fts5

package store

import (
	"fmt"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// ftsSchemaSQL mirrors (name, qualified_name, docstring, signature) of the
// nodes table into an external-content FTS5 table kept in lock-step by
// triggers.
const ftsSchemaSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
	name,
	qualified_name,
	docstring,
	signature,
	content='nodes',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS nodes_ai AFTER INSERT ON nodes BEGIN
	INSERT INTO nodes_fts(rowid, name, qualified_name, docstring, signature)
	VALUES (new.rowid, new.name, new.qualified_name, new.docstring, new.signature);
END;

CREATE TRIGGER IF NOT EXISTS nodes_ad AFTER DELETE ON nodes BEGIN
	INSERT INTO nodes_fts(nodes_fts, rowid, name, qualified_name, docstring, signature)
	VALUES ('delete', old.rowid, old.name, old.qualified_name, old.docstring, old.signature);
END;

CREATE TRIGGER IF NOT EXISTS nodes_au AFTER UPDATE ON nodes BEGIN
	INSERT INTO nodes_fts(nodes_fts, rowid, name, qualified_name, docstring, signature)
	VALUES ('delete', old.rowid, old.name, old.qualified_name, old.docstring, old.signature);
	INSERT INTO nodes_fts(rowid, name, qualified_name, docstring, signature)
	VALUES (new.rowid, new.name, new.qualified_name, new.docstring, new.signature);
END;
`

func (s *Store) initFTS() error {
	_, err := s.db.Exec(ftsSchemaSQL)
	return err
}

// searchFTS runs an FTS5 prefix query. The FTS rank is negative (closer to
// zero is better); it is negated to produce a positive score.
func (s *Store) searchFTS(query string, limit int) ([]*graph.SearchResult, error) {
	rows, err := s.q.Query(`
		SELECT `+nodeColumns("n")+`, rank
		FROM nodes_fts
		JOIN nodes n ON nodes_fts.rowid = n.rowid
		WHERE nodes_fts MATCH ?
		ORDER BY rank
		LIMIT ?`,
		ftsQuote(query)+"*", limit)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()

	var results []*graph.SearchResult
	for rows.Next() {
		n, rank, err := scanNodeWithRank(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, &graph.SearchResult{Node: n, Score: -rank})
	}
	return results, rows.Err()
}

// ftsQuote wraps the query in double quotes so that identifier characters
// like '_' and ':' do not break FTS5 query syntax.
func ftsQuote(q string) string {
	escaped := make([]byte, 0, len(q)+2)
	escaped = append(escaped, '"')
	for i := 0; i < len(q); i++ {
		if q[i] == '"' {
			escaped = append(escaped, '"')
		}
		escaped = append(escaped, q[i])
	}
	return string(append(escaped, '"'))
}
