package services

import (
	"context"
	"fmt"
	"os"

	"multivector-rag/internal/logger"
	"multivector-rag/internal/store"
	"multivector-rag/models"
)

// ElementExtractor turns a document path into an ordered sequence of elements.
type ElementExtractor interface {
	Extract(ctx context.Context, path string) ([]models.Element, error)
}

// Summarizer condenses a single element into a Summary fit for embedding.
type Summarizer interface {
	Summarize(ctx context.Context, el models.Element) (models.Summary, error)
}

// Embedder converts free text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists (id, vector) pairs and supports similarity search.
// Search returns hits in descending similarity; equal scores keep insertion
// order, which is document order. Clear drops every entry held for the
// current document.
type VectorStore interface {
	Add(ctx context.Context, id string, vec []float32) error
	Search(ctx context.Context, vec []float32, k int) ([]models.SearchHit, error)
	Clear(ctx context.Context) error
}

// PDFLoader orchestrates the ingestion pipeline: extract elements, summarize
// each one, embed the summaries into the vector store, and keep the original
// content reachable by element id. Processing is sequential in document
// order; remote-call pacing lives inside the injected clients.
type PDFLoader struct {
	extractor   ElementExtractor
	summarizer  Summarizer
	embedder    Embedder
	vectors     VectorStore
	defaultTopK int
}

func NewPDFLoader(extractor ElementExtractor, summarizer Summarizer, embedder Embedder, vectors VectorStore, defaultTopK int) *PDFLoader {
	if defaultTopK <= 0 {
		defaultTopK = 4
	}
	return &PDFLoader{
		extractor:   extractor,
		summarizer:  summarizer,
		embedder:    embedder,
		vectors:     vectors,
		defaultTopK: defaultTopK,
	}
}

// LoadResult is the handle returned by a completed load.
type LoadResult struct {
	elements []models.Element
	docs     *store.DocStore

	Retriever *Retriever
}

// Chunks returns every extracted element in original document order.
func (r *LoadResult) Chunks() []models.Element {
	out := make([]models.Element, len(r.elements))
	copy(out, r.elements)
	return out
}

// Texts returns the raw content of text-kind elements, preserving order.
func (r *LoadResult) Texts() []string {
	var texts []string
	for _, el := range r.elements {
		if el.Kind == models.KindText {
			texts = append(texts, el.RawContent)
		}
	}
	return texts
}

// Lookup resolves an element id directly, bypassing similarity search.
// Elements that were never indexed (summarization failed with no fallback)
// are still reachable here.
func (r *LoadResult) Lookup(id string) (models.Element, bool) {
	return r.docs.Get(id)
}

// Load ingests the document at path. A document with zero elements loads
// successfully and simply retrieves nothing. A summarization or embedding
// failure on one element degrades that element (logged, left out of the
// index) without failing the load; context cancellation always aborts.
func (l *PDFLoader) Load(ctx context.Context, path string) (*LoadResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot read document %q: %w", path, err)
	}

	elements, err := l.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("element extraction failed: %w", err)
	}
	logger.Info("extracted document elements", "path", path, "count", len(elements))

	// Element ids are fresh per extraction, so entries from a prior load of
	// the same document would dangle in a persistent index. Reset first.
	if err := l.vectors.Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset vector index: %w", err)
	}

	docs := store.NewDocStore()
	indexed := 0

	for _, el := range elements {
		// Raw content stays reachable by id even when indexing fails
		if err := docs.Put(el.ID, el); err != nil {
			return nil, err
		}

		summary, err := l.summarizer.Summarize(ctx, el)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if el.Kind == models.KindImage {
				// No usable fallback for an image payload
				logger.Warn("summarization failed, element left unindexed",
					"element_id", el.ID, "kind", el.Kind, "error", err)
				continue
			}
			logger.Warn("summarization failed, falling back to raw content",
				"element_id", el.ID, "kind", el.Kind, "error", err)
			summary = models.Summary{ElementID: el.ID, Text: el.RawContent}
		}

		vec, err := l.embedder.Embed(ctx, summary.Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("embedding failed, element left unindexed",
				"element_id", el.ID, "error", err)
			continue
		}

		if err := l.vectors.Add(ctx, el.ID, vec); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("vector store write failed, element left unindexed",
				"element_id", el.ID, "error", err)
			continue
		}
		indexed++
	}

	docs.Freeze()
	logger.Info("document load complete", "path", path,
		"elements", len(elements), "indexed", indexed)

	return &LoadResult{
		elements:  elements,
		docs:      docs,
		Retriever: NewRetriever(l.embedder, l.vectors, docs, l.defaultTopK),
	}, nil
}
