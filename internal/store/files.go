package store

import (
	"database/sql"
	"fmt"

	"github.com/codegraphhq/codegraph/internal/graph"
)

// UpsertFile inserts or replaces a file record.
func (s *Store) UpsertFile(fr *graph.FileRecord) error {
	_, err := s.q.Exec(`
		INSERT INTO files (path, content_hash, size, modified_at, indexed_at, node_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash=excluded.content_hash, size=excluded.size,
			modified_at=excluded.modified_at, indexed_at=excluded.indexed_at,
			node_count=excluded.node_count`,
		fr.Path, fr.ContentHash, fr.Size, fr.ModifiedAt, fr.IndexedAt, fr.NodeCount)
	if err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}
	return nil
}

// GetFile returns the record for a path, or nil when the file is untracked.
func (s *Store) GetFile(path string) (*graph.FileRecord, error) {
	row := s.q.QueryRow(
		"SELECT path, content_hash, size, modified_at, indexed_at, node_count FROM files WHERE path = ?",
		path)
	var fr graph.FileRecord
	err := row.Scan(&fr.Path, &fr.ContentHash, &fr.Size, &fr.ModifiedAt, &fr.IndexedAt, &fr.NodeCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &fr, nil
}

// AllFiles returns every tracked file record.
func (s *Store) AllFiles() ([]*graph.FileRecord, error) {
	rows, err := s.q.Query(
		"SELECT path, content_hash, size, modified_at, indexed_at, node_count FROM files")
	if err != nil {
		return nil, fmt.Errorf("all files: %w", err)
	}
	defer rows.Close()
	var result []*graph.FileRecord
	for rows.Next() {
		var fr graph.FileRecord
		if err := rows.Scan(&fr.Path, &fr.ContentHash, &fr.Size, &fr.ModifiedAt, &fr.IndexedAt, &fr.NodeCount); err != nil {
			return nil, err
		}
		result = append(result, &fr)
	}
	return result, rows.Err()
}

// CountFiles returns the number of tracked files.
func (s *Store) CountFiles() (int64, error) {
	var count int64
	err := s.q.QueryRow("SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

// DeleteFile removes a file record together with all graph data owned by the
// file, atomically.
func (s *Store) DeleteFile(path string) error {
	if !s.inTransaction() {
		return s.WithTransaction(func(tx *Store) error {
			return tx.DeleteFile(path)
		})
	}
	if err := s.DeleteNodesByFile(path); err != nil {
		return err
	}
	if _, err := s.q.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
