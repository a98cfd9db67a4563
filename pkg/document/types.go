package document

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// Metadata describes where a chunk came from. Every chunk of one document
// carries the same DocumentID, DocumentName, DocumentPath, TotalChunks,
// Category, and Title; ChunkIndex is the chunk's 0-based position.
type Metadata struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	DocumentPath string `json:"document_path"`
	ChunkIndex   int    `json:"chunk_index"`
	TotalChunks  int    `json:"total_chunks"`
	Category     string `json:"category,omitempty"`
	Title        string `json:"title,omitempty"`
}

// Chunk is the unit of embedding and indexing: a bounded text segment
// plus the metadata identifying its position within the source document.
type Chunk struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Meta is a deduplicated document listing entry, one per source document.
type Meta struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	Category     string `json:"category,omitempty"`
	Title        string `json:"title,omitempty"`
}

// ID derives the stable document identifier from a file path. The path is
// cleaned and slash-normalized first, so the same file hashes to the same
// ID across runs and platforms.
func ID(path string) string {
	normalized := filepath.ToSlash(filepath.Clean(path))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}
