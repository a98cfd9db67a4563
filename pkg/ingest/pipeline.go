// Package ingest orchestrates the write path: locate documents, parse
// and chunk them, embed the chunk texts, and upsert the vectors into the
// store in one batch pass.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wissen-dev/wissen/pkg/chunker"
	"github.com/wissen-dev/wissen/pkg/document"
	"github.com/wissen-dev/wissen/pkg/vectorstore"
)

// Embedder is the slice of the embedding client the pipeline needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Stats summarizes one ingestion run.
type Stats struct {
	Documents  int
	Chunks     int
	Skipped    int
	Categories []string
}

// Pipeline is the write-path orchestrator. Per-document parse failures
// are isolated and counted; embedding and store failures abort the run.
type Pipeline struct {
	store    vectorstore.Store
	embedder Embedder
	parser   *document.Parser
	chunker  *chunker.Chunker

	documentsTotal prometheus.Counter
	chunksTotal    prometheus.Counter
	skippedTotal   prometheus.Counter
	runDuration    prometheus.Histogram
}

// New creates a Pipeline writing through store and embedder.
func New(store vectorstore.Store, embedder Embedder, ck *chunker.Chunker) *Pipeline {
	return &Pipeline{
		store:    store,
		embedder: embedder,
		parser:   &document.Parser{},
		chunker:  ck,
		documentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wissen_ingest_documents_total",
			Help: "Documents successfully ingested",
		}),
		chunksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wissen_ingest_chunks_total",
			Help: "Chunks indexed",
		}),
		skippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wissen_ingest_documents_skipped_total",
			Help: "Documents skipped due to parse failures",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wissen_ingest_run_duration_seconds",
			Help:    "Full ingestion run duration",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		}),
	}
}

// Collectors returns the pipeline's Prometheus metrics.
func (p *Pipeline) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.documentsTotal, p.chunksTotal, p.skippedTotal, p.runDuration}
}

// Ingest runs a full (re)build from the directory tree at root. With
// reset the collection is deleted first; without it, re-ingesting the
// same tree appends fresh points alongside the old ones.
func (p *Pipeline) Ingest(ctx context.Context, root string, reset bool) (Stats, error) {
	timer := prometheus.NewTimer(p.runDuration)
	defer timer.ObserveDuration()

	if reset {
		slog.Info("resetting collection before ingest")
		if err := p.store.DeleteCollection(ctx); err != nil {
			return Stats{}, fmt.Errorf("resetting collection: %w", err)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	paths := document.Locate(absRoot)
	slog.Info("located documents", "root", absRoot, "count", len(paths))

	var stats Stats
	var chunks []document.Chunk
	categories := make(map[string]bool)

	for _, path := range paths {
		docChunks, err := p.processDocument(absRoot, path)
		if err != nil {
			slog.Warn("skipping document", "path", path, "error", err)
			stats.Skipped++
			p.skippedTotal.Inc()
			continue
		}
		if len(docChunks) == 0 {
			slog.Warn("skipping document with no content", "path", path)
			stats.Skipped++
			p.skippedTotal.Inc()
			continue
		}
		chunks = append(chunks, docChunks...)
		stats.Documents++
		if c := docChunks[0].Metadata.Category; c != "" {
			categories[c] = true
		}
	}

	stats.Categories = sortedKeys(categories)

	if len(chunks) == 0 {
		slog.Info("nothing to index", "documents", stats.Documents, "skipped", stats.Skipped)
		return stats, nil
	}

	if err := p.store.EnsureCollection(ctx); err != nil {
		return stats, fmt.Errorf("ensuring collection: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return stats, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return stats, fmt.Errorf("embedded %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: vectorstore.Payload{
				Content:  c.Content,
				Metadata: c.Metadata,
			},
		}
	}
	if err := p.store.UpsertBatch(ctx, points); err != nil {
		return stats, fmt.Errorf("indexing chunks: %w", err)
	}

	stats.Chunks = len(chunks)
	p.documentsTotal.Add(float64(stats.Documents))
	p.chunksTotal.Add(float64(stats.Chunks))
	slog.Info("ingestion complete",
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"skipped", stats.Skipped,
		"categories", len(stats.Categories))
	return stats, nil
}

// processDocument parses and chunks one file into indexable chunks.
func (p *Pipeline) processDocument(root, path string) ([]document.Chunk, error) {
	text, err := p.parser.Parse(path)
	if err != nil {
		return nil, err
	}

	pieces := p.chunker.Split(text)
	if len(pieces) == 0 {
		return nil, nil
	}

	docID := document.ID(path)
	meta := document.Metadata{
		DocumentID:   docID,
		DocumentName: filepath.Base(path),
		DocumentPath: path,
		TotalChunks:  len(pieces),
		Category:     document.Category(root, path),
		Title:        document.Title(text, path),
	}

	chunks := make([]document.Chunk, len(pieces))
	for i, piece := range pieces {
		m := meta
		m.ChunkIndex = i
		chunks[i] = document.Chunk{
			ID:       fmt.Sprintf("%s-%d", docID, i),
			Content:  piece,
			Metadata: m,
		}
	}
	return chunks, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
