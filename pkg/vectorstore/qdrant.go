package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wissen-dev/wissen/pkg/debug"
)

// upsertBatchSize is the largest number of points written per request.
const upsertBatchSize = 100

// Qdrant implements Store using the Qdrant HTTP API. One client owns one
// collection: its name and vector dimension are fixed at construction.
type Qdrant struct {
	BaseURL    string
	Collection string
	VectorSize int
	HTTPClient *http.Client
}

// Compile-time check that Qdrant implements Store.
var _ Store = (*Qdrant)(nil)

// NewQdrant creates a Qdrant-backed store for the named collection.
func NewQdrant(url, collection string, vectorSize int) *Qdrant {
	return &Qdrant{
		BaseURL:    strings.TrimRight(url, "/"),
		Collection: collection,
		VectorSize: vectorSize,
		HTTPClient: &http.Client{},
	}
}

// Exists reports whether the collection is present.
// GET /collections/{name}; any failure counts as absent.
func (q *Qdrant) Exists(ctx context.Context) bool {
	url := fmt.Sprintf("%s/collections/%s", q.BaseURL, q.Collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := q.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// EnsureCollection creates the collection and its payload indexes if it
// does not exist yet.
// PUT /collections/{name} with {"vectors": {"size": N, "distance": "Cosine"}}
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	if q.Exists(ctx) {
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     q.VectorSize,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", q.BaseURL, q.Collection)
	if _, err := q.do(ctx, http.MethodPut, url, body); err != nil {
		return &StoreError{Op: "create collection", Err: err}
	}

	// Keyword indexes back the two exact-match filters used by search
	// and delete-by-document.
	for _, field := range []string{FieldDocumentID, FieldCategory} {
		if err := q.createPayloadIndex(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

// createPayloadIndex creates a keyword payload index on one field.
// PUT /collections/{name}/index
func (q *Qdrant) createPayloadIndex(ctx context.Context, field string) error {
	body := map[string]interface{}{
		"field_name":   field,
		"field_schema": "keyword",
	}
	url := fmt.Sprintf("%s/collections/%s/index?wait=true", q.BaseURL, q.Collection)
	if _, err := q.do(ctx, http.MethodPut, url, body); err != nil {
		return &StoreError{Op: fmt.Sprintf("create %s index", field), Err: err}
	}
	return nil
}

// DeleteCollection removes the collection. Deleting an absent collection
// is a no-op.
// DELETE /collections/{name}
func (q *Qdrant) DeleteCollection(ctx context.Context) error {
	if !q.Exists(ctx) {
		return nil
	}
	url := fmt.Sprintf("%s/collections/%s", q.BaseURL, q.Collection)
	if _, err := q.do(ctx, http.MethodDelete, url, nil); err != nil {
		return &StoreError{Op: "delete collection", Err: err}
	}
	return nil
}

// UpsertBatch writes points in batches of 100. A failing batch aborts
// the call; earlier batches stay committed.
// PUT /collections/{name}/points?wait=true
func (q *Qdrant) UpsertBatch(ctx context.Context, points []Point) error {
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.BaseURL, q.Collection)
	for i := 0; i < len(points); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		body := map[string]interface{}{"points": points[i:end]}
		if _, err := q.do(ctx, http.MethodPut, url, body); err != nil {
			return &StoreError{Op: fmt.Sprintf("upsert points %d-%d", i, end), Err: err}
		}
	}
	return nil
}

// DeleteByDocument removes all points of one document with a server-side
// filter delete.
// POST /collections/{name}/points/delete?wait=true
func (q *Qdrant) DeleteByDocument(ctx context.Context, documentID string) error {
	filter := ByDocument(documentID)
	if err := filter.Validate(); err != nil {
		return &StoreError{Op: "delete by document", Err: err}
	}
	body := map[string]interface{}{"filter": filter.qdrantFilter()}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", q.BaseURL, q.Collection)
	if _, err := q.do(ctx, http.MethodPost, url, body); err != nil {
		return &StoreError{Op: "delete by document", Err: err}
	}
	return nil
}

// qdrantSearchResponse represents Qdrant's search response.
type qdrantSearchResponse struct {
	Result []struct {
		ID      interface{} `json:"id"`
		Score   float32     `json:"score"`
		Payload Payload     `json:"payload"`
	} `json:"result"`
}

// Search performs a nearest-neighbor search, keeping results above the
// score threshold, most similar first.
// POST /collections/{name}/points/search
func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32, filter *Filter) ([]SearchResult, error) {
	body := map[string]interface{}{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": scoreThreshold,
		"with_payload":    true,
	}
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, &StoreError{Op: "search", Err: err}
		}
		body["filter"] = filter.qdrantFilter()
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", q.BaseURL, q.Collection)
	respBody, err := q.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}

	var searchResp qdrantSearchResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return nil, &StoreError{Op: "search", Err: fmt.Errorf("parsing response: %w", err)}
	}

	results := make([]SearchResult, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		results = append(results, SearchResult{
			Content:  r.Payload.Content,
			Score:    r.Score,
			Metadata: r.Payload.Metadata,
		})
	}
	return results, nil
}

// qdrantScrollResponse represents one page of Qdrant's scroll response.
// The continuation cursor is opaque: Qdrant returns an integer or a UUID
// depending on the point ID type, and null on the last page.
type qdrantScrollResponse struct {
	Result struct {
		Points []struct {
			ID      interface{} `json:"id"`
			Payload Payload     `json:"payload"`
		} `json:"points"`
		NextPageOffset json.RawMessage `json:"next_page_offset"`
	} `json:"result"`
}

// ScrollAll enumerates every matching payload page by page, following the
// continuation cursor until the store signals the end.
// POST /collections/{name}/points/scroll
func (q *Qdrant) ScrollAll(ctx context.Context, filter *Filter, fields []string, pageSize int, fn func(Payload) error) error {
	if pageSize <= 0 {
		pageSize = 100
	}

	body := map[string]interface{}{
		"limit":       pageSize,
		"with_vector": false,
	}
	if len(fields) > 0 {
		body["with_payload"] = fields
	} else {
		body["with_payload"] = true
	}
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return &StoreError{Op: "scroll", Err: err}
		}
		body["filter"] = filter.qdrantFilter()
	}

	url := fmt.Sprintf("%s/collections/%s/points/scroll", q.BaseURL, q.Collection)
	var cursor json.RawMessage
	for {
		if cursor != nil {
			body["offset"] = cursor
		}
		respBody, err := q.do(ctx, http.MethodPost, url, body)
		if err != nil {
			return &StoreError{Op: "scroll", Err: err}
		}

		var page qdrantScrollResponse
		if err := json.Unmarshal(respBody, &page); err != nil {
			return &StoreError{Op: "scroll", Err: fmt.Errorf("parsing response: %w", err)}
		}

		for _, p := range page.Result.Points {
			if err := fn(p.Payload); err != nil {
				return err
			}
		}

		next := page.Result.NextPageOffset
		if len(next) == 0 || string(next) == "null" {
			return nil
		}
		cursor = next
	}
}

// qdrantCollectionInfo represents Qdrant's collection info response.
type qdrantCollectionInfo struct {
	Result struct {
		Status      string `json:"status"`
		PointsCount int64  `json:"points_count"`
	} `json:"result"`
}

// Stats returns the collection's point count and health status. An
// absent collection yields the "not_created" sentinel, not an error.
// GET /collections/{name}
func (q *Qdrant) Stats(ctx context.Context) (CollectionStats, error) {
	url := fmt.Sprintf("%s/collections/%s", q.BaseURL, q.Collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return CollectionStats{}, &StoreError{Op: "stats", Err: err}
	}
	resp, err := q.HTTPClient.Do(req)
	if err != nil {
		return CollectionStats{Status: StatusNotCreated}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return CollectionStats{Status: StatusNotCreated}, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return CollectionStats{}, &StoreError{Op: "stats", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return CollectionStats{}, &StoreError{Op: "stats", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))}
	}

	var info qdrantCollectionInfo
	if err := json.Unmarshal(respBody, &info); err != nil {
		return CollectionStats{}, &StoreError{Op: "stats", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return CollectionStats{
		Points: info.Result.PointsCount,
		Status: info.Result.Status,
	}, nil
}

// do sends one JSON request and returns the response body, treating any
// non-200 status as an error carrying the response text.
func (q *Qdrant) do(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	debug.Log("qdrant", "request", "method", method, "url", url)

	resp, err := q.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
