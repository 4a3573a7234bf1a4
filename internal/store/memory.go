package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"multivector-rag/models"
)

// MemoryVectorStore is an in-process vector index using brute-force cosine
// similarity. Entries keep their insertion order, which doubles as the
// tie-break for equal scores (insertion order is document order).
type MemoryVectorStore struct {
	mu      sync.RWMutex
	entries []models.IndexEntry
}

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{}
}

func (s *MemoryVectorStore) Add(ctx context.Context, id string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty vector for element %q", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) > 0 && len(s.entries[0].Vector) != len(vec) {
		return fmt.Errorf("vector dimension mismatch: got %d, index has %d", len(vec), len(s.entries[0].Vector))
	}
	s.entries = append(s.entries, models.IndexEntry{ElementID: id, Vector: vec})
	return nil
}

func (s *MemoryVectorStore) Search(ctx context.Context, vec []float32, k int) ([]models.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || k > len(s.entries) {
		k = len(s.entries)
	}

	hits := make([]models.SearchHit, len(s.entries))
	for i, entry := range s.entries {
		hits[i] = models.SearchHit{ElementID: entry.ElementID, Score: CosineSimilarity(entry.Vector, vec)}
	}

	// Stable sort keeps insertion order for equal scores
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	return hits[:k], nil
}

// Clear drops every entry from the index.
func (s *MemoryVectorStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func (s *MemoryVectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CosineSimilarity computes the cosine of the angle between a and b.
// Returns 0 for zero-length or zero-magnitude vectors.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
