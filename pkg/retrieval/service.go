// Package retrieval orchestrates the read path: query embedding,
// filtered similarity search, document reassembly from chunks, and the
// deduplicated document/category listings derived by full scan.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wissen-dev/wissen/pkg/vectorstore"
)

// documentPageSize is the scroll page size used when reassembling one
// document; generous enough to fetch typical documents in a single page.
const documentPageSize = 256

// QueryEmbedder is the slice of the embedding client the service needs.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Service answers semantic queries against the indexed corpus.
type Service struct {
	store          vectorstore.Store
	embedder       QueryEmbedder
	topK           int
	scoreThreshold float32

	searchCount   *prometheus.CounterVec
	searchLatency prometheus.Histogram
}

// New creates a retrieval Service. topK and scoreThreshold are the
// defaults applied when a caller does not override the result limit.
func New(store vectorstore.Store, embedder QueryEmbedder, topK int, scoreThreshold float32) *Service {
	return &Service{
		store:          store,
		embedder:       embedder,
		topK:           topK,
		scoreThreshold: scoreThreshold,
		searchCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wissen_search_queries_total",
				Help: "Total semantic search queries",
			},
			[]string{"status"},
		),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wissen_search_duration_seconds",
			Help:    "Semantic search duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
	}
}

// Collectors returns the service's Prometheus metrics.
func (s *Service) Collectors() []prometheus.Collector {
	return []prometheus.Collector{s.searchCount, s.searchLatency}
}

// Search embeds the query and returns results above the score threshold,
// most similar first, optionally restricted to one category. topK <= 0
// falls back to the configured default.
func (s *Service) Search(ctx context.Context, query string, topK int, category string) ([]vectorstore.SearchResult, error) {
	timer := prometheus.NewTimer(s.searchLatency)
	defer timer.ObserveDuration()

	if topK <= 0 {
		topK = s.topK
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.searchCount.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var filter *vectorstore.Filter
	if category != "" {
		filter = vectorstore.ByCategory(category)
	}

	results, err := s.store.Search(ctx, vector, topK, s.scoreThreshold, filter)
	if err != nil {
		s.searchCount.WithLabelValues("error").Inc()
		return nil, err
	}

	// The store returns results best-first already; keep the order
	// stable even if a backend does not.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	s.searchCount.WithLabelValues("success").Inc()
	return results, nil
}

// GetDocument reassembles a document's approximate full text from its
// chunks, sorted by chunk index and joined with blank lines. An unknown
// documentID yields an empty string, not an error.
func (s *Service) GetDocument(ctx context.Context, documentID string) (string, error) {
	// Reassembly only needs the text and its position; skip the rest of
	// the payload.
	fields := []string{vectorstore.FieldContent, vectorstore.FieldChunkIndex}

	var payloads []vectorstore.Payload
	err := s.store.ScrollAll(ctx, vectorstore.ByDocument(documentID), fields, documentPageSize, func(p vectorstore.Payload) error {
		payloads = append(payloads, p)
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(payloads) == 0 {
		return "", nil
	}

	// The store returns chunks in arbitrary order; restore document order.
	sort.Slice(payloads, func(i, j int) bool {
		return payloads[i].ChunkIndex < payloads[j].ChunkIndex
	})

	parts := make([]string, len(payloads))
	for i, p := range payloads {
		parts[i] = p.Content
	}
	return strings.Join(parts, "\n\n"), nil
}
