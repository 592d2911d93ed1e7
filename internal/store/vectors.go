package store

import (
	"database/sql"
	"fmt"
	"time"
)

// VectorRecord is a stored embedding row. The blob holds little-endian
// packed 32-bit floats; the model column identifies the producing model for
// compatibility checks.
type VectorRecord struct {
	NodeID    string
	Embedding []byte
	Model     string
	CreatedAt int64
}

// UpsertVector stores or replaces the embedding for a node.
func (s *Store) UpsertVector(nodeID string, embedding []byte, model string) error {
	_, err := s.q.Exec(`
		INSERT INTO vectors (node_id, embedding, model, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			embedding=excluded.embedding, model=excluded.model,
			created_at=excluded.created_at`,
		nodeID, embedding, model, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// GetVector returns the stored embedding for a node, or nil when absent.
func (s *Store) GetVector(nodeID string) (*VectorRecord, error) {
	row := s.q.QueryRow(
		"SELECT node_id, embedding, model, created_at FROM vectors WHERE node_id = ?", nodeID)
	var v VectorRecord
	err := row.Scan(&v.NodeID, &v.Embedding, &v.Model, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get vector: %w", err)
	}
	return &v, nil
}

// AllVectors returns every stored embedding.
func (s *Store) AllVectors() ([]*VectorRecord, error) {
	rows, err := s.q.Query("SELECT node_id, embedding, model, created_at FROM vectors")
	if err != nil {
		return nil, fmt.Errorf("all vectors: %w", err)
	}
	defer rows.Close()
	var result []*VectorRecord
	for rows.Next() {
		var v VectorRecord
		if err := rows.Scan(&v.NodeID, &v.Embedding, &v.Model, &v.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &v)
	}
	return result, rows.Err()
}

// DeleteVector removes the embedding for a node.
func (s *Store) DeleteVector(nodeID string) error {
	if _, err := s.q.Exec("DELETE FROM vectors WHERE node_id = ?", nodeID); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}

// CountVectors returns the number of stored embeddings.
func (s *Store) CountVectors() (int64, error) {
	var count int64
	err := s.q.QueryRow("SELECT COUNT(*) FROM vectors").Scan(&count)
	return count, err
}
