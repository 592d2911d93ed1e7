package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateNodeID derives a deterministic node ID from the identifying tuple
// (file path, kind, name, start line). The format is "<kind>:<32-hex>" where
// the hex portion is the first half of the SHA-256 digest of the
// colon-joined tuple. IDs are stable across runs and change under rename or
// move.
func GenerateNodeID(filePath string, kind NodeKind, name string, startLine int) string {
	input := fmt.Sprintf("%s:%s:%s:%d", filePath, kind, name, startLine)
	sum := sha256.Sum256([]byte(input))
	return string(kind) + ":" + hex.EncodeToString(sum[:])[:32]
}
