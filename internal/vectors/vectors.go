// Package vectors implements the embedding utilities: the little-endian
// float32 blob codec, cosine similarity, and brute-force nearest-neighbor
// search over stored vectors. Embedding model inference is owned by the
// caller, not the core.
package vectors

import (
	"encoding/binary"
	"math"
	"sort"
	"strings"

	"github.com/codegraphhq/codegraph/internal/graph"
	"github.com/codegraphhq/codegraph/internal/store"
)

// Encode packs an embedding as concatenated little-endian 32-bit floats.
func Encode(embedding []float32) []byte {
	out := make([]byte, 0, len(embedding)*4)
	for _, f := range embedding {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

// Decode unpacks a little-endian float32 blob. Dimensionality is derived
// from the blob length; trailing partial values are dropped.
func Decode(blob []byte) []float32 {
	out := make([]float32, 0, len(blob)/4)
	for i := 0; i+4 <= len(blob); i += 4 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(blob[i:])))
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between two vectors, or
// 0 when either has zero magnitude.
func CosineSimilarity(a, b []float32) float32 {
	var dot, magA, magB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, x := range a {
		magA += float64(x) * float64(x)
	}
	for _, y := range b {
		magB += float64(y) * float64(y)
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}

// Match is one brute-force search hit.
type Match struct {
	NodeID string
	Score  float32
}

// BruteForceSearch loads every stored vector, scores it against the query
// by cosine similarity, and returns the top limit matches in descending
// order.
func BruteForceSearch(st *store.Store, query []float32, limit int) ([]Match, error) {
	records, err := st.AllVectors()
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(records))
	for _, rec := range records {
		matches = append(matches, Match{
			NodeID: rec.NodeID,
			Score:  CosineSimilarity(query, Decode(rec.Embedding)),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Store saves an embedding for a node.
func Store(st *store.Store, nodeID string, embedding []float32, model string) error {
	return st.UpsertVector(nodeID, Encode(embedding), model)
}

// Get loads the embedding for a node, or nil when absent.
func Get(st *store.Store, nodeID string) ([]float32, error) {
	rec, err := st.GetVector(nodeID)
	if err != nil || rec == nil {
		return nil, err
	}
	return Decode(rec.Embedding), nil
}

// NodeText renders a node's key fields into the text handed to an embedding
// model.
func NodeText(n *graph.Node) string {
	parts := []string{
		"kind: " + string(n.Kind),
		"name: " + n.Name,
		"qualified_name: " + n.QualifiedName,
		"file: " + n.FilePath,
	}
	if n.Signature != "" {
		parts = append(parts, "signature: "+n.Signature)
	}
	if n.Docstring != "" {
		parts = append(parts, "docstring: "+n.Docstring)
	}
	return strings.Join(parts, "\n")
}
