package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

// newEmbeddingServer returns a fake embeddings endpoint. Each text
// "t<N>" embeds to the vector [N]. When shuffle is set the response
// items are returned in reverse order, relying on the index marker for
// correctness.
func newEmbeddingServer(t *testing.T, shuffle bool, requests *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("expected path /v1/embeddings, got %s", r.URL.Path)
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if requests != nil {
			*requests = append(*requests, req.Input)
		}

		data := make([]map[string]interface{}, len(req.Input))
		for i, text := range req.Input {
			n, err := strconv.Atoi(strings.TrimPrefix(text, "t"))
			if err != nil {
				t.Fatalf("unexpected text %q", text)
			}
			pos := i
			if shuffle {
				pos = len(req.Input) - 1 - i
			}
			data[pos] = map[string]interface{}{
				"index":     i,
				"embedding": []float32{float32(n)},
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%d", i)
	}
	return out
}

func TestEmbedBatch_PreservesInputOrder(t *testing.T) {
	server := newEmbeddingServer(t, true, nil)
	defer server.Close()

	c := New(server.URL, "test-model", 5*time.Second)
	vectors, err := c.EmbedBatch(context.Background(), texts(7))
	if err != nil {
		t.Fatalf("EmbedBatch() returned error: %v", err)
	}
	if len(vectors) != 7 {
		t.Fatalf("EmbedBatch() returned %d vectors, want 7", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 1 || v[0] != float32(i) {
			t.Errorf("vectors[%d] = %v, want [%d]", i, v, i)
		}
	}
}

func TestEmbedBatch_SplitsIntoProviderBatches(t *testing.T) {
	var requests [][]string
	server := newEmbeddingServer(t, false, &requests)
	defer server.Close()

	c := New(server.URL, "test-model", 5*time.Second)
	vectors, err := c.EmbedBatch(context.Background(), texts(250))
	if err != nil {
		t.Fatalf("EmbedBatch() returned error: %v", err)
	}
	if len(vectors) != 250 {
		t.Fatalf("EmbedBatch() returned %d vectors, want 250", len(vectors))
	}

	if len(requests) != 3 {
		t.Fatalf("made %d provider calls, want 3", len(requests))
	}
	for i, want := range []int{100, 100, 50} {
		if len(requests[i]) != want {
			t.Errorf("batch %d had %d texts, want %d", i, len(requests[i]), want)
		}
	}

	// Order holds across batch boundaries.
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Fatalf("vectors[%d] = %v, want [%d]", i, v, i)
		}
	}
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	c := New("http://unused", "test-model", time.Second)
	vectors, err := c.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch(nil) returned error: %v", err)
	}
	if vectors != nil {
		t.Errorf("EmbedBatch(nil) = %v, want nil", vectors)
	}
}

func TestEmbedQuery(t *testing.T) {
	server := newEmbeddingServer(t, false, nil)
	defer server.Close()

	c := New(server.URL, "test-model", 5*time.Second)
	vector, err := c.EmbedQuery(context.Background(), "t42")
	if err != nil {
		t.Fatalf("EmbedQuery() returned error: %v", err)
	}
	if len(vector) != 1 || vector[0] != 42 {
		t.Errorf("EmbedQuery() = %v, want [42]", vector)
	}
	if c.Dimensions() != 1 {
		t.Errorf("Dimensions() = %d, want 1", c.Dimensions())
	}
}

func TestEmbed_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	c := New(server.URL, "test-model", 5*time.Second)
	_, err := c.EmbedQuery(context.Background(), "t1")

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("EmbedQuery() error = %v, want *ServiceError", err)
	}
	if svcErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("ServiceError.StatusCode = %d, want 429", svcErr.StatusCode)
	}
	if !strings.Contains(svcErr.Body, "rate limited") {
		t.Errorf("ServiceError.Body = %q, want the response body", svcErr.Body)
	}
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	c := New(server.URL, "test-model", 5*time.Second)
	if _, err := c.EmbedBatch(context.Background(), texts(2)); err == nil {
		t.Fatal("expected error for mismatched item count")
	}
}
