package store

import (
	"fmt"
	"sync"

	"multivector-rag/models"
)

// DocStore maps element ids to their original elements. It is populated once
// during a load and frozen afterwards; retrieval only ever reads from it.
type DocStore struct {
	mu       sync.RWMutex
	elements map[string]models.Element
	frozen   bool
}

func NewDocStore() *DocStore {
	return &DocStore{elements: make(map[string]models.Element)}
}

// Put registers an element under its id. Fails once the store is frozen.
func (ds *DocStore) Put(id string, el models.Element) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.frozen {
		return fmt.Errorf("doc store is frozen, cannot add element %q", id)
	}
	ds.elements[id] = el
	return nil
}

// Get returns the element registered under id.
func (ds *DocStore) Get(id string) (models.Element, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	el, ok := ds.elements[id]
	return el, ok
}

// Freeze makes the store read-only for the rest of its lifetime.
func (ds *DocStore) Freeze() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.frozen = true
}

func (ds *DocStore) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.elements)
}
