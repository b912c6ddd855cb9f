package storage

import (
	"context"
	"sync"
)

// MemoryProvider implements the StorageProvider interface using in-memory storage
type MemoryProvider struct {
	documentStores
	docs *MemoryDocumentStore
}

// NewMemoryProvider creates a new in-memory storage provider
func NewMemoryProvider() *MemoryProvider {
	docs := NewMemoryDocumentStore()
	return &MemoryProvider{
		documentStores: newDocumentStores(docs),
		docs:           docs,
	}
}

// Initialize sets up the storage backend
func (p *MemoryProvider) Initialize() error {
	// Nothing to initialize for in-memory storage
	return nil
}

// Close cleans up resources
func (p *MemoryProvider) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

// MemoryDocumentStore implements the DocumentStore interface using in-memory storage
type MemoryDocumentStore struct {
	collections map[string]map[string]Document
	mu          sync.RWMutex
}

// NewMemoryDocumentStore creates a new in-memory document store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string]map[string]Document),
	}
}

// PutDocument creates or replaces a document
func (s *MemoryDocumentStore) PutDocument(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Create collection map if it doesn't exist
	if _, ok := s.collections[doc.Collection]; !ok {
		s.collections[doc.Collection] = make(map[string]Document)
	}

	doc.Data = append([]byte(nil), doc.Data...)
	s.collections[doc.Collection][doc.ID] = doc
	return nil
}

// GetDocument retrieves a document
func (s *MemoryDocumentStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}

	doc.Data = append([]byte(nil), doc.Data...)
	return doc, nil
}

// ListDocuments returns every document of a collection
func (s *MemoryDocumentStore) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		doc.Data = append([]byte(nil), doc.Data...)
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteDocument removes a document
func (s *MemoryDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}

	delete(s.collections[collection], id)
	return nil
}
