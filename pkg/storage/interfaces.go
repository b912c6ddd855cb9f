// Package storage provides interfaces for persistent storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/tcmartin/integrator/pkg/models"
)

// Errors returned by storage providers
var (
	ErrNotFound  = errors.New("document not found")
	ErrMissingID = errors.New("document id is required")
)

// Collections used by the typed stores
const (
	IntegrationsCollection = "integrations"
	ConnectionsCollection  = "connections"
	DraftsCollection       = "drafts"
)

// StorageProvider defines the interface for persistence backends
type StorageProvider interface {
	// Initialize sets up the storage backend
	Initialize() error

	// Close cleans up resources
	Close() error

	// GetIntegrationStore returns a store for integration documents
	GetIntegrationStore() IntegrationStore

	// GetConnectionStore returns a store for connections
	GetConnectionStore() ConnectionStore

	// GetDraftStore returns a store for in-progress drafts
	GetDraftStore() DraftStore
}

// Document is the unit every provider persists
type Document struct {
	// Collection groups documents of one kind
	Collection string

	// ID is unique within the collection
	ID string

	// Data is the serialized payload
	Data []byte

	// UpdatedAt is when the document was last written
	UpdatedAt time.Time
}

// DocumentStore is the primitive implemented by each provider
type DocumentStore interface {
	// PutDocument creates or replaces a document
	PutDocument(ctx context.Context, doc Document) error

	// GetDocument retrieves a document, returning ErrNotFound if absent
	GetDocument(ctx context.Context, collection, id string) (Document, error)

	// ListDocuments returns every document of a collection
	ListDocuments(ctx context.Context, collection string) ([]Document, error)

	// DeleteDocument removes a document, returning ErrNotFound if absent
	DeleteDocument(ctx context.Context, collection, id string) error
}

// IntegrationStore manages integration persistence
type IntegrationStore interface {
	// SaveIntegration persists an integration under its ID
	SaveIntegration(ctx context.Context, integration models.Integration) error

	// GetIntegration retrieves an integration
	GetIntegration(ctx context.Context, id string) (models.Integration, error)

	// ListIntegrations returns all integrations ordered by ID
	ListIntegrations(ctx context.Context) ([]models.Integration, error)

	// DeleteIntegration removes an integration
	DeleteIntegration(ctx context.Context, id string) error
}

// ConnectionStore manages connection persistence
type ConnectionStore interface {
	// SaveConnection persists a connection under its ID
	SaveConnection(ctx context.Context, connection models.Connection) error

	// GetConnection retrieves a connection
	GetConnection(ctx context.Context, id string) (models.Connection, error)

	// ListConnections returns all connections ordered by ID
	ListConnections(ctx context.Context) ([]models.Connection, error)

	// DeleteConnection removes a connection
	DeleteConnection(ctx context.Context, id string) error
}

// DraftStore is a key-value store for serialized draft integrations
type DraftStore interface {
	// GetDraft retrieves the draft stored under key
	GetDraft(ctx context.Context, key string) ([]byte, error)

	// SaveDraft stores a draft under key
	SaveDraft(ctx context.Context, key string, data []byte) error

	// DeleteDraft removes a draft
	DeleteDraft(ctx context.Context, key string) error

	// ListDrafts returns information about every stored draft
	ListDrafts(ctx context.Context) ([]DraftInfo, error)

	// PruneDrafts removes drafts last written before the given time
	PruneDrafts(ctx context.Context, before time.Time) (int, error)
}

// DraftInfo describes a stored draft
type DraftInfo struct {
	Key       string    `json:"key"`
	UpdatedAt time.Time `json:"updated_at"`
	Size      int       `json:"size"`
}
