package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// embedding.url is required.
	if c.Embedding.URL == "" {
		errs = append(errs, fmt.Errorf("embedding.url is required"))
	}

	// qdrant.url is required.
	if c.Qdrant.URL == "" {
		errs = append(errs, fmt.Errorf("qdrant.url is required"))
	}

	// qdrant.collection is required.
	if c.Qdrant.Collection == "" {
		errs = append(errs, fmt.Errorf("qdrant.collection is required"))
	}

	// qdrant.vector_size must be positive.
	if c.Qdrant.VectorSize <= 0 {
		errs = append(errs, fmt.Errorf("qdrant.vector_size must be > 0, got %d", c.Qdrant.VectorSize))
	}

	// chunking.size must be positive and larger than the overlap.
	if c.Chunking.Size <= 0 {
		errs = append(errs, fmt.Errorf("chunking.size must be > 0, got %d", c.Chunking.Size))
	}
	if c.Chunking.Overlap < 0 {
		errs = append(errs, fmt.Errorf("chunking.overlap must be >= 0, got %d", c.Chunking.Overlap))
	}
	if c.Chunking.Size > 0 && c.Chunking.Overlap >= c.Chunking.Size {
		errs = append(errs, fmt.Errorf("chunking.overlap must be smaller than chunking.size, got %d >= %d", c.Chunking.Overlap, c.Chunking.Size))
	}

	// search.top_k must be positive.
	if c.Search.TopK <= 0 {
		errs = append(errs, fmt.Errorf("search.top_k must be > 0, got %d", c.Search.TopK))
	}

	// search.score_threshold must stay within cosine similarity bounds.
	if c.Search.ScoreThreshold < -1 || c.Search.ScoreThreshold > 1 {
		errs = append(errs, fmt.Errorf("search.score_threshold must be in [-1, 1], got %v", c.Search.ScoreThreshold))
	}

	return errors.Join(errs...)
}
