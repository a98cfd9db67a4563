// Package vectorstore wraps the external vector database behind a small
// Store interface: collection lifecycle, batched point writes, filtered
// similarity search, and cursor-paginated full enumeration.
//
// The shipped implementation talks to Qdrant over its HTTP API. All
// vector compute (storage, indexing, nearest-neighbor search) happens in
// the store; this package only shapes requests and responses.
package vectorstore
