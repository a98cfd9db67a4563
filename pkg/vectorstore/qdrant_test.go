package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wissen-dev/wissen/pkg/document"
)

func TestExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/docs" {
			w.Write([]byte(`{"result":{"status":"green"},"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	if !q.Exists(context.Background()) {
		t.Error("Exists() = false for present collection")
	}

	q = NewQdrant(server.URL, "missing", 4)
	if q.Exists(context.Background()) {
		t.Error("Exists() = true for absent collection")
	}
}

func TestExists_TransportFailureIsAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	if q.Exists(context.Background()) {
		t.Error("Exists() = true on transport failure, want false")
	}
}

func TestEnsureCollection_CreatesWithIndexes(t *testing.T) {
	var createdBody map[string]interface{}
	var indexedFields []string
	exists := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/docs":
			if !exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(`{"result":{"status":"green"},"status":"ok"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
			if err := json.NewDecoder(r.Body).Decode(&createdBody); err != nil {
				t.Fatalf("decoding create body: %v", err)
			}
			exists = true
			w.Write([]byte(`{"result":true,"status":"ok"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/index":
			var body struct {
				FieldName   string `json:"field_name"`
				FieldSchema string `json:"field_schema"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decoding index body: %v", err)
			}
			if body.FieldSchema != "keyword" {
				t.Errorf("index schema = %q, want keyword", body.FieldSchema)
			}
			indexedFields = append(indexedFields, body.FieldName)
			w.Write([]byte(`{"result":true,"status":"ok"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 1536)
	if err := q.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() returned error: %v", err)
	}

	vectors, ok := createdBody["vectors"].(map[string]interface{})
	if !ok {
		t.Fatal("create body missing vectors config")
	}
	if size, _ := vectors["size"].(float64); int(size) != 1536 {
		t.Errorf("vectors.size = %v, want 1536", vectors["size"])
	}
	if dist, _ := vectors["distance"].(string); dist != "Cosine" {
		t.Errorf("vectors.distance = %v, want Cosine", vectors["distance"])
	}

	if len(indexedFields) != 2 || indexedFields[0] != FieldDocumentID || indexedFields[1] != FieldCategory {
		t.Errorf("payload indexes = %v, want [%s %s]", indexedFields, FieldDocumentID, FieldCategory)
	}

	// A second call sees the collection and does nothing.
	if err := q.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() second call returned error: %v", err)
	}
}

func TestEnsureCollection_ExistingIsNoOp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected %s request to %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"result":{"status":"green"},"status":"ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	if err := q.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() returned error: %v", err)
	}
}

func TestUpsertBatch_SplitsIntoBatches(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/collections/docs/points" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Points []struct {
				ID      string                 `json:"id"`
				Vector  []float32              `json:"vector"`
				Payload map[string]interface{} `json:"payload"`
			} `json:"points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding upsert body: %v", err)
		}
		batchSizes = append(batchSizes, len(body.Points))

		// Chunk metadata is flattened into the payload object.
		p := body.Points[0].Payload
		if _, ok := p["content"]; !ok {
			t.Error("payload missing content")
		}
		if _, ok := p["document_id"]; !ok {
			t.Error("payload missing document_id")
		}
		w.Write([]byte(`{"result":{"status":"acknowledged"},"status":"ok"}`))
	}))
	defer server.Close()

	points := make([]Point, 250)
	for i := range points {
		points[i] = Point{
			ID:     fmt.Sprintf("p%d", i),
			Vector: []float32{1, 0},
			Payload: Payload{
				Content:  "chunk text",
				Metadata: document.Metadata{DocumentID: "doc1", ChunkIndex: i, TotalChunks: 250},
			},
		}
	}

	q := NewQdrant(server.URL, "docs", 2)
	if err := q.UpsertBatch(context.Background(), points); err != nil {
		t.Fatalf("UpsertBatch() returned error: %v", err)
	}
	if len(batchSizes) != 3 || batchSizes[0] != 100 || batchSizes[1] != 100 || batchSizes[2] != 50 {
		t.Errorf("batch sizes = %v, want [100 100 50]", batchSizes)
	}
}

func TestUpsertBatch_FailureAborts(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"status":{"error":"write failed"}}`))
			return
		}
		w.Write([]byte(`{"result":{"status":"acknowledged"},"status":"ok"}`))
	}))
	defer server.Close()

	points := make([]Point, 250)
	for i := range points {
		points[i] = Point{ID: fmt.Sprintf("p%d", i), Vector: []float32{1}}
	}

	q := NewQdrant(server.URL, "docs", 1)
	err := q.UpsertBatch(context.Background(), points)
	if err == nil {
		t.Fatal("expected error from failing batch")
	}
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("UpsertBatch() error = %v, want *StoreError", err)
	}
	if calls != 2 {
		t.Errorf("made %d calls, want 2 (no batches after the failure)", calls)
	}
}

func TestDeleteByDocument(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/docs/points/delete" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding delete body: %v", err)
		}
		w.Write([]byte(`{"result":{"status":"acknowledged"},"status":"ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	if err := q.DeleteByDocument(context.Background(), "doc42"); err != nil {
		t.Fatalf("DeleteByDocument() returned error: %v", err)
	}

	filter, _ := body["filter"].(map[string]interface{})
	must, _ := filter["must"].([]interface{})
	if len(must) != 1 {
		t.Fatalf("filter.must has %d conditions, want 1", len(must))
	}
	cond := must[0].(map[string]interface{})
	if cond["key"] != "document_id" {
		t.Errorf("filter key = %v, want document_id", cond["key"])
	}
	match := cond["match"].(map[string]interface{})
	if match["value"] != "doc42" {
		t.Errorf("filter value = %v, want doc42", match["value"])
	}
}

func TestSearch(t *testing.T) {
	var reqBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/docs/points/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decoding search body: %v", err)
		}
		w.Write([]byte(`{"result":[
			{"id":"a","score":0.92,"payload":{"content":"returns within 30 days","document_id":"d1","document_name":"returns.txt","chunk_index":0,"total_chunks":2,"category":"faq"}},
			{"id":"b","score":0.81,"payload":{"content":"shipping is free","document_id":"d2","document_name":"shipping.txt","chunk_index":1,"total_chunks":3}}
		],"status":"ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	results, err := q.Search(context.Background(), []float32{1, 0, 0, 0}, 5, 0.3, ByCategory("faq"))
	if err != nil {
		t.Fatalf("Search() returned error: %v", err)
	}

	if limit, _ := reqBody["limit"].(float64); int(limit) != 5 {
		t.Errorf("request limit = %v, want 5", reqBody["limit"])
	}
	if threshold, _ := reqBody["score_threshold"].(float64); threshold != 0.3 {
		t.Errorf("request score_threshold = %v, want 0.3", reqBody["score_threshold"])
	}
	if _, ok := reqBody["filter"]; !ok {
		t.Error("request missing category filter")
	}

	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	first := results[0]
	if first.Score != 0.92 {
		t.Errorf("results[0].Score = %v, want 0.92", first.Score)
	}
	if first.Content != "returns within 30 days" {
		t.Errorf("results[0].Content = %q", first.Content)
	}
	if first.Metadata.DocumentName != "returns.txt" || first.Metadata.Category != "faq" {
		t.Errorf("results[0].Metadata = %+v", first.Metadata)
	}
	if results[1].Metadata.ChunkIndex != 1 {
		t.Errorf("results[1].ChunkIndex = %d, want 1", results[1].Metadata.ChunkIndex)
	}
}

func TestSearch_NoFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["filter"]; ok {
			t.Error("request has a filter, want none")
		}
		w.Write([]byte(`{"result":[],"status":"ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	results, err := q.Search(context.Background(), []float32{1, 0, 0, 0}, 5, 0.3, nil)
	if err != nil {
		t.Fatalf("Search() returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() returned %d results, want 0", len(results))
	}
}

func TestScrollAll_FollowsCursor(t *testing.T) {
	var offsets []interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/docs/points/scroll" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding scroll body: %v", err)
		}
		offsets = append(offsets, body["offset"])

		if body["offset"] == nil {
			w.Write([]byte(`{"result":{"points":[
				{"id":1,"payload":{"document_id":"d1","document_name":"a.txt"}},
				{"id":2,"payload":{"document_id":"d2","document_name":"b.txt"}}
			],"next_page_offset":3},"status":"ok"}`))
			return
		}
		w.Write([]byte(`{"result":{"points":[
			{"id":3,"payload":{"document_id":"d3","document_name":"c.txt"}}
		],"next_page_offset":null},"status":"ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	var seen []string
	err := q.ScrollAll(context.Background(), nil, []string{FieldDocumentID, FieldDocumentName}, 2, func(p Payload) error {
		seen = append(seen, p.DocumentID)
		return nil
	})
	if err != nil {
		t.Fatalf("ScrollAll() returned error: %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("ScrollAll() visited %d payloads, want 3: %v", len(seen), seen)
	}
	if len(offsets) != 2 || offsets[0] != nil {
		t.Errorf("scroll offsets = %v, want [nil 3]", offsets)
	}
	if cursor, _ := offsets[1].(float64); int(cursor) != 3 {
		t.Errorf("second scroll offset = %v, want 3", offsets[1])
	}
}

func TestScrollAll_CallbackErrorStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"points":[
			{"id":1,"payload":{"document_id":"d1"}},
			{"id":2,"payload":{"document_id":"d2"}}
		],"next_page_offset":3},"status":"ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	wantErr := fmt.Errorf("stop")
	err := q.ScrollAll(context.Background(), nil, nil, 10, func(p Payload) error {
		return wantErr
	})
	if err != wantErr {
		t.Errorf("ScrollAll() error = %v, want the callback error", err)
	}
}

func TestStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"status":"green","points_count":1234},"status":"ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	stats, err := q.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() returned error: %v", err)
	}
	if stats.Points != 1234 || stats.Status != "green" {
		t.Errorf("Stats() = %+v, want {1234 green}", stats)
	}
}

func TestStats_AbsentCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":{"error":"Not found"}}`))
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	stats, err := q.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() returned error: %v", err)
	}
	if stats.Points != 0 || stats.Status != StatusNotCreated {
		t.Errorf("Stats() = %+v, want {0 %s}", stats, StatusNotCreated)
	}
}

func TestDeleteCollection_AbsentIsNoOp(t *testing.T) {
	var deletes int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes++
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	q := NewQdrant(server.URL, "docs", 4)
	if err := q.DeleteCollection(context.Background()); err != nil {
		t.Fatalf("DeleteCollection() returned error: %v", err)
	}
	if deletes != 0 {
		t.Errorf("made %d DELETE requests for absent collection, want 0", deletes)
	}
}

func TestFilterValidate(t *testing.T) {
	if err := (&Filter{}).Validate(); err == nil {
		t.Error("Validate() accepted a filter with no conditions")
	}
	if err := (&Filter{Must: []Condition{{Op: OpMatch, Value: "x"}}}).Validate(); err == nil {
		t.Error("Validate() accepted a condition without a field")
	}
	if err := (&Filter{Must: []Condition{{Field: FieldCategory, Op: "range", Value: "x"}}}).Validate(); err == nil {
		t.Error("Validate() accepted an unsupported operator")
	}
	if err := ByDocument("d1").Validate(); err != nil {
		t.Errorf("Validate() rejected a document filter: %v", err)
	}
}
