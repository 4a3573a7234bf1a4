package services

import (
	"context"
	"fmt"

	"multivector-rag/internal/store"
	"multivector-rag/models"
)

// Retriever answers free-text queries against a loaded document. It is an
// explicit three-step pipeline: embed the query, search the vector index,
// resolve the returned ids to original content.
type Retriever struct {
	embedder    Embedder
	vectors     VectorStore
	docs        *store.DocStore
	defaultTopK int
}

func NewRetriever(embedder Embedder, vectors VectorStore, docs *store.DocStore, defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = 4
	}
	return &Retriever{
		embedder:    embedder,
		vectors:     vectors,
		docs:        docs,
		defaultTopK: defaultTopK,
	}
}

// Retrieve returns up to k elements ordered by decreasing similarity to the
// query. An empty index retrieves nothing without error; a failed embedder or
// store call surfaces as a retrieval-unavailable error, never as a silently
// empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.Element, error) {
	if k <= 0 {
		k = r.defaultTopK
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &models.TransientError{
			Op:  "embed query",
			Err: fmt.Errorf("%w: %v", models.ErrRetrievalUnavailable, err),
		}
	}

	hits, err := r.vectors.Search(ctx, vec, k)
	if err != nil {
		return nil, &models.TransientError{
			Op:  "vector search",
			Err: fmt.Errorf("%w: %v", models.ErrRetrievalUnavailable, err),
		}
	}

	results := make([]models.Element, 0, len(hits))
	for _, hit := range hits {
		el, ok := r.docs.Get(hit.ElementID)
		if !ok {
			// Load invariants guarantee every indexed id resolves; a miss is a bug
			return nil, &models.ConsistencyError{ElementID: hit.ElementID}
		}
		results = append(results, el)
	}

	return results, nil
}
