package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const documentExt = ".json"

// FileProviderConfig contains configuration for the file provider
type FileProviderConfig struct {
	// Directory holds one sub-directory per collection
	Directory string
}

// FileProvider implements the StorageProvider interface on a filesystem.
// It is the per-user local store the CLI keeps drafts in.
type FileProvider struct {
	documentStores
	docs *FileDocumentStore
}

// NewFileProvider creates a file provider on the OS filesystem
func NewFileProvider(config FileProviderConfig) (*FileProvider, error) {
	if config.Directory == "" {
		return nil, fmt.Errorf("directory is required for file provider")
	}
	return NewFileProviderWithFs(afero.NewOsFs(), config.Directory), nil
}

// NewFileProviderWithFs creates a file provider on the given filesystem
func NewFileProviderWithFs(fs afero.Fs, directory string) *FileProvider {
	docs := &FileDocumentStore{fs: fs, root: directory}
	return &FileProvider{
		documentStores: newDocumentStores(docs),
		docs:           docs,
	}
}

// Initialize creates the root directory
func (p *FileProvider) Initialize() error {
	if err := p.docs.fs.MkdirAll(p.docs.root, 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

// Close cleans up resources
func (p *FileProvider) Close() error {
	return nil
}

// FileDocumentStore stores each document as <root>/<collection>/<id>.json.
// The file modification time records UpdatedAt.
type FileDocumentStore struct {
	fs   afero.Fs
	root string
	mu   sync.RWMutex
}

func (s *FileDocumentStore) path(collection, id string) string {
	return filepath.Join(s.root, collection, url.PathEscape(id)+documentExt)
}

// PutDocument creates or replaces a document
func (s *FileDocumentStore) PutDocument(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, doc.Collection)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create collection directory: %w", err)
	}

	path := s.path(doc.Collection, doc.ID)
	if err := afero.WriteFile(s.fs, path, doc.Data, 0o600); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if !doc.UpdatedAt.IsZero() {
		if err := s.fs.Chtimes(path, doc.UpdatedAt, doc.UpdatedAt); err != nil {
			return fmt.Errorf("failed to stamp document: %w", err)
		}
	}
	return nil
}

// GetDocument retrieves a document
func (s *FileDocumentStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(collection, id)
}

func (s *FileDocumentStore) read(collection, id string) (Document, error) {
	path := s.path(collection, id)

	info, err := s.fs.Stat(path)
	if os.IsNotExist(err) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat document: %w", err)
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read document: %w", err)
	}

	return Document{
		Collection: collection,
		ID:         id,
		Data:       data,
		UpdatedAt:  info.ModTime().UTC(),
	}, nil
}

// ListDocuments returns every document of a collection
func (s *FileDocumentStore) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := afero.ReadDir(s.fs, filepath.Join(s.root, collection))
	if os.IsNotExist(err) {
		return []Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, documentExt) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, documentExt))
		if err != nil {
			continue
		}
		doc, err := s.read(collection, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteDocument removes a document
func (s *FileDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.path(collection, id))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
