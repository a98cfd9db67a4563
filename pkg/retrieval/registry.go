package retrieval

import (
	"context"
	"sort"

	"github.com/wissen-dev/wissen/pkg/document"
	"github.com/wissen-dev/wissen/pkg/vectorstore"
)

// registryPageSize is the scroll page size for full-collection listings.
const registryPageSize = 500

// Registry derives deduplicated document and category listings by
// scanning the collection's payloads.
type Registry struct {
	store vectorstore.Store
}

// NewRegistry creates a Registry reading from store.
func NewRegistry(store vectorstore.Store) *Registry {
	return &Registry{store: store}
}

// ListDocuments scans all points and returns one entry per document,
// keeping the first-seen payload for each document ID. Entries are
// sorted by document name for a stable listing.
func (r *Registry) ListDocuments(ctx context.Context) ([]document.Meta, error) {
	seen := make(map[string]bool)
	var docs []document.Meta

	fields := []string{
		vectorstore.FieldDocumentID,
		vectorstore.FieldDocumentName,
		vectorstore.FieldCategory,
		vectorstore.FieldTitle,
	}
	err := r.store.ScrollAll(ctx, nil, fields, registryPageSize, func(p vectorstore.Payload) error {
		if p.DocumentID == "" || seen[p.DocumentID] {
			return nil
		}
		seen[p.DocumentID] = true
		docs = append(docs, document.Meta{
			DocumentID:   p.DocumentID,
			DocumentName: p.DocumentName,
			Category:     p.Category,
			Title:        p.Title,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].DocumentName < docs[j].DocumentName
	})
	return docs, nil
}

// ListCategories returns the sorted distinct set of non-empty categories
// across the document listing.
func (r *Registry) ListCategories(ctx context.Context) ([]string, error) {
	docs, err := r.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	for _, d := range docs {
		if d.Category != "" {
			set[d.Category] = true
		}
	}

	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}
