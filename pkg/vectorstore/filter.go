package vectorstore

import "fmt"

// Payload field names used in filters and scroll projections.
const (
	FieldContent      = "content"
	FieldDocumentID   = "document_id"
	FieldDocumentName = "document_name"
	FieldCategory     = "category"
	FieldChunkIndex   = "chunk_index"
	FieldTitle        = "title"
)

// OpMatch is an exact-match comparison, the only operator the store
// currently needs.
const OpMatch = "match"

// Condition is one constraint on a payload field.
type Condition struct {
	Field string
	Op    string
	Value string
}

// Filter restricts a store operation to points whose payload satisfies
// every condition. It is validated before crossing the store boundary.
type Filter struct {
	Must []Condition
}

// ByDocument returns a filter matching all points of one document.
func ByDocument(documentID string) *Filter {
	return &Filter{Must: []Condition{{Field: FieldDocumentID, Op: OpMatch, Value: documentID}}}
}

// ByCategory returns a filter matching points of one category.
func ByCategory(category string) *Filter {
	return &Filter{Must: []Condition{{Field: FieldCategory, Op: OpMatch, Value: category}}}
}

// Validate checks that the filter has at least one condition and that
// every condition names a field and a known operator.
func (f *Filter) Validate() error {
	if len(f.Must) == 0 {
		return fmt.Errorf("filter has no conditions")
	}
	for _, c := range f.Must {
		if c.Field == "" {
			return fmt.Errorf("filter condition missing field name")
		}
		if c.Op != OpMatch {
			return fmt.Errorf("filter condition on %q has unsupported operator %q", c.Field, c.Op)
		}
	}
	return nil
}

// qdrantFilter renders the filter as a Qdrant filter clause.
func (f *Filter) qdrantFilter() map[string]interface{} {
	must := make([]map[string]interface{}, 0, len(f.Must))
	for _, c := range f.Must {
		must = append(must, map[string]interface{}{
			"key":   c.Field,
			"match": map[string]interface{}{"value": c.Value},
		})
	}
	return map[string]interface{}{"must": must}
}
