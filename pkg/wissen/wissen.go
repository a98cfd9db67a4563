// Package wissen assembles the ingestion and retrieval pipeline from
// configuration and exposes the core API surface consumed by command and
// bot layers: ingest, search, document retrieval, and listings.
//
// All external clients (vector store, embedding endpoint) are constructed
// once here and shared by reference; no component holds hidden global
// state.
package wissen

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wissen-dev/wissen/pkg/chunker"
	"github.com/wissen-dev/wissen/pkg/config"
	"github.com/wissen-dev/wissen/pkg/document"
	"github.com/wissen-dev/wissen/pkg/embedding"
	"github.com/wissen-dev/wissen/pkg/ingest"
	"github.com/wissen-dev/wissen/pkg/retrieval"
	"github.com/wissen-dev/wissen/pkg/vectorstore"
)

// Service bundles the write-path and read-path orchestrators over one
// shared pair of external clients.
type Service struct {
	store     vectorstore.Store
	embedder  *embedding.Client
	pipeline  *ingest.Pipeline
	retrieval *retrieval.Service
	registry  *retrieval.Registry
}

// New wires up a Service from configuration.
func New(cfg *config.Config) *Service {
	store := vectorstore.NewQdrant(cfg.Qdrant.URL, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
	embedder := embedding.New(cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.Timeout)
	ck := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)

	return &Service{
		store:     store,
		embedder:  embedder,
		pipeline:  ingest.New(store, embedder, ck),
		retrieval: retrieval.New(store, embedder, cfg.Search.TopK, cfg.Search.ScoreThreshold),
		registry:  retrieval.NewRegistry(store),
	}
}

// IngestDocuments runs a full (re)build from the directory tree at root.
func (s *Service) IngestDocuments(ctx context.Context, root string, reset bool) (ingest.Stats, error) {
	return s.pipeline.Ingest(ctx, root, reset)
}

// Search returns ranked, source-attributed fragments for a query,
// optionally restricted to one category.
func (s *Service) Search(ctx context.Context, query string, topK int, category string) ([]vectorstore.SearchResult, error) {
	return s.retrieval.Search(ctx, query, topK, category)
}

// GetDocument reassembles a document's text from its indexed chunks.
// An unknown documentID yields an empty string.
func (s *Service) GetDocument(ctx context.Context, documentID string) (string, error) {
	return s.retrieval.GetDocument(ctx, documentID)
}

// ListDocuments returns one metadata entry per indexed document.
func (s *Service) ListDocuments(ctx context.Context) ([]document.Meta, error) {
	return s.registry.ListDocuments(ctx)
}

// ListCategories returns the sorted distinct set of non-empty categories.
func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	return s.registry.ListCategories(ctx)
}

// CollectionExists reports whether the vector collection is present.
func (s *Service) CollectionExists(ctx context.Context) bool {
	return s.store.Exists(ctx)
}

// CollectionStats returns the collection's point count and health status.
func (s *Service) CollectionStats(ctx context.Context) (vectorstore.CollectionStats, error) {
	return s.store.Stats(ctx)
}

// Collectors returns all Prometheus metrics owned by the pipeline
// components, for registration by the hosting process.
func (s *Service) Collectors() []prometheus.Collector {
	var collectors []prometheus.Collector
	collectors = append(collectors, s.pipeline.Collectors()...)
	collectors = append(collectors, s.retrieval.Collectors()...)
	collectors = append(collectors, s.embedder.Collectors()...)
	return collectors
}
