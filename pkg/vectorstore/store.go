package vectorstore

import (
	"context"

	"github.com/wissen-dev/wissen/pkg/document"
)

// StatusNotCreated is the Stats status reported for an absent collection.
const StatusNotCreated = "not_created"

// Payload is the stored per-point record: the chunk text plus its
// document metadata, flattened into one JSON object.
type Payload struct {
	Content string `json:"content"`
	document.Metadata
}

// Point is one stored unit in the collection: an identifier, a vector of
// the collection's configured dimension, and the chunk payload.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// SearchResult is the read-side projection of a matching point.
type SearchResult struct {
	Content  string
	Score    float32
	Metadata document.Metadata
}

// CollectionStats reports point count and collection health.
type CollectionStats struct {
	Points int64
	Status string
}

// Store is the vector store abstraction consumed by the ingestion and
// retrieval orchestrators.
type Store interface {
	// Exists reports whether the collection is present. Transport
	// failures count as absent; this check never errors.
	Exists(ctx context.Context) bool

	// EnsureCollection creates the collection with the configured
	// dimension, cosine distance, and payload indexes. It is a no-op
	// when the collection already exists.
	EnsureCollection(ctx context.Context) error

	// DeleteCollection removes the collection; removing an absent
	// collection is a no-op.
	DeleteCollection(ctx context.Context) error

	// UpsertBatch writes points in batches. A failing batch aborts the
	// call; batches already written stay committed.
	UpsertBatch(ctx context.Context, points []Point) error

	// DeleteByDocument removes every point of one document via a
	// store-side filter.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Search returns the points most similar to vector, above the
	// score threshold, best first, optionally restricted by filter.
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32, filter *Filter) ([]SearchResult, error)

	// ScrollAll streams every matching payload to fn, page by page,
	// following the store's continuation cursor until exhausted. A nil
	// filter scans the whole collection; fields limits the payload
	// keys fetched per record.
	ScrollAll(ctx context.Context, filter *Filter, fields []string, pageSize int, fn func(Payload) error) error

	// Stats returns the point count and health status. An absent
	// collection yields a zero-value "not_created" result, not an
	// error.
	Stats(ctx context.Context) (CollectionStats, error)
}
