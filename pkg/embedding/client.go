// Package embedding converts text into fixed-dimension vectors via an
// OpenAI-compatible /v1/embeddings endpoint.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wissen-dev/wissen/pkg/debug"
)

// maxBatchSize is the largest number of texts sent in one provider call.
const maxBatchSize = 100

// ServiceError carries a non-2xx response from the embedding endpoint.
type ServiceError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("embedding service returned status %d: %s", e.StatusCode, e.Body)
}

// Client calls an OpenAI-compatible embeddings endpoint. Batch calls are
// split into provider-sized requests and the output order always matches
// the input order, regardless of how the provider orders batch items.
type Client struct {
	URL        string
	Model      string
	HTTPClient *http.Client

	requestLatency prometheus.Histogram

	mu   sync.RWMutex
	dims int
}

// New creates an embedding client for the endpoint at url.
func New(url, model string, timeout time.Duration) *Client {
	return &Client{
		URL:        url,
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wissen_embedding_request_duration_seconds",
			Help:    "Embedding provider request duration per batch",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
	}
}

// Collectors returns the client's Prometheus metrics.
func (c *Client) Collectors() []prometheus.Collector {
	return []prometheus.Collector{c.requestLatency}
}

// embeddingRequest is the JSON request body for the embeddings API.
type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// embeddingResponse is the JSON response from the embeddings API.
type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbedQuery converts a single text into an embedding vector.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch converts many texts into embedding vectors, in input order.
// Texts are sent in batches of at most 100; each batch's items are
// reordered by the provider's per-item index marker before being appended
// to the output.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batches := (len(texts) + maxBatchSize - 1) / maxBatchSize
	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)

		if batches > 1 {
			slog.Info("embedding batch complete",
				"batch", i/maxBatchSize+1,
				"batches", batches,
				"texts", len(vectors))
		}
	}
	return vectors, nil
}

// embedBatch sends one provider call and returns its vectors in input order.
func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	timer := prometheus.NewTimer(c.requestLatency)
	defer timer.ObserveDuration()

	endpoint := c.URL
	if !strings.HasSuffix(endpoint, "/v1/embeddings") {
		endpoint = strings.TrimRight(endpoint, "/") + "/v1/embeddings"
	}

	body, err := json.Marshal(embeddingRequest{Input: texts, Model: c.Model})
	if err != nil {
		return nil, fmt.Errorf("marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	debug.Log("embedding", "embed request", "endpoint", endpoint, "texts", len(texts), "model", c.Model)
	debug.Trace("embedding", "embed request body", "body", debug.Truncate(string(body), 2000))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("parsing embedding response: %w", err)
	}

	if len(embResp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response contained %d items for %d texts", len(embResp.Data), len(texts))
	}

	// Place each item by its index marker so the output matches the
	// input order even when the provider reorders batch items.
	vectors := make([][]float32, len(texts))
	for _, d := range embResp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding response index %d out of range [0, %d)", d.Index, len(texts))
		}
		vectors[d.Index] = d.Embedding
	}

	if len(vectors[0]) > 0 {
		c.mu.Lock()
		if c.dims == 0 {
			c.dims = len(vectors[0])
		}
		c.mu.Unlock()
	}

	return vectors, nil
}

// Dimensions returns the dimensionality of the embedding vectors.
// Returns 0 until the first successful embed call.
func (c *Client) Dimensions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dims
}
