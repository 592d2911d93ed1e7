package store

import "fmt"

// schemaVersion is bumped when the base relations change shape. FTS-related
// DDL lives in fts_fts5.go behind its build tag.
const schemaVersion = 1

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS schema_versions (
	version    INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	name           TEXT NOT NULL,
	qualified_name TEXT NOT NULL,
	file_path      TEXT NOT NULL,
	start_line     INTEGER NOT NULL DEFAULT 0,
	end_line       INTEGER NOT NULL DEFAULT 0,
	start_column   INTEGER NOT NULL DEFAULT 0,
	end_column     INTEGER NOT NULL DEFAULT 0,
	signature      TEXT NOT NULL DEFAULT '',
	docstring      TEXT NOT NULL DEFAULT '',
	visibility     TEXT NOT NULL DEFAULT 'private',
	is_async       INTEGER NOT NULL DEFAULT 0,
	updated_at     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_qualified ON nodes(qualified_name);
CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file_path);
CREATE INDEX IF NOT EXISTS idx_nodes_file_line ON nodes(file_path, start_line);

CREATE TABLE IF NOT EXISTS edges (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	kind   TEXT NOT NULL,
	line   INTEGER
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);
CREATE INDEX IF NOT EXISTS idx_edges_kind ON edges(kind);
CREATE INDEX IF NOT EXISTS idx_edges_source_kind ON edges(source, kind);
CREATE INDEX IF NOT EXISTS idx_edges_target_kind ON edges(target, kind);

CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	size         INTEGER NOT NULL DEFAULT 0,
	modified_at  INTEGER NOT NULL DEFAULT 0,
	indexed_at   INTEGER NOT NULL DEFAULT 0,
	node_count   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS unresolved_refs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	from_node_id   TEXT NOT NULL,
	reference_name TEXT NOT NULL,
	reference_kind TEXT NOT NULL,
	line           INTEGER NOT NULL DEFAULT 0,
	col            INTEGER NOT NULL DEFAULT 0,
	file_path      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_refs_from ON unresolved_refs(from_node_id);
CREATE INDEX IF NOT EXISTS idx_refs_name ON unresolved_refs(reference_name);
CREATE INDEX IF NOT EXISTS idx_refs_file ON unresolved_refs(file_path);

CREATE TABLE IF NOT EXISTS vectors (
	node_id    TEXT PRIMARY KEY,
	embedding  BLOB NOT NULL,
	model      TEXT NOT NULL,
	created_at INTEGER NOT NULL DEFAULT 0
);
`

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(coreSchemaSQL); err != nil {
		return err
	}
	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_versions (version, applied_at) VALUES (?, strftime('%s','now'))",
		schemaVersion,
	); err != nil {
		return err
	}
	if err := s.initFTS(); err != nil {
		return fmt.Errorf("init fts: %w", err)
	}
	return nil
}

// SchemaVersion returns the single recorded schema version.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	err := s.q.QueryRow("SELECT MAX(version) FROM schema_versions").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return v, nil
}
