// Package config provides unified configuration for the wissen pipeline.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (WISSEN_ prefix)
//  4. Validation
package config

import "time"

// Config holds all configuration for the ingestion and retrieval pipeline.
type Config struct {
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// QdrantConfig holds vector store settings.
type QdrantConfig struct {
	URL        string `yaml:"url"`         // default: http://localhost:6333
	Collection string `yaml:"collection"`  // default: "documents"
	VectorSize int    `yaml:"vector_size"` // default: 1536
}

// EmbeddingConfig holds embedding endpoint settings.
type EmbeddingConfig struct {
	URL     string        `yaml:"url"`     // required
	Model   string        `yaml:"model"`   // default: "text-embedding-3-small"
	Timeout time.Duration `yaml:"timeout"` // default: 60s
}

// ChunkingConfig holds text chunking settings.
type ChunkingConfig struct {
	Size    int `yaml:"size"`    // characters per chunk, default: 1000
	Overlap int `yaml:"overlap"` // characters shared between neighbors, default: 200
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	TopK           int     `yaml:"top_k"`           // default: 5
	ScoreThreshold float32 `yaml:"score_threshold"` // default: 0.3
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	Root string `yaml:"root"` // default document folder for ingest runs; optional
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Addr    string `yaml:"addr"`    // default: ":9090"
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Qdrant: QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "documents",
			VectorSize: 1536,
		},
		Embedding: EmbeddingConfig{
			Model:   "text-embedding-3-small",
			Timeout: 60 * time.Second,
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Search: SearchConfig{
			TopK:           5,
			ScoreThreshold: 0.3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}
