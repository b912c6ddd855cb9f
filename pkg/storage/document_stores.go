package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tcmartin/integrator/pkg/models"
)

// documentStores builds the typed stores shared by every provider
type documentStores struct {
	integrations *DocumentIntegrationStore
	connections  *DocumentConnectionStore
	drafts       *DocumentDraftStore
}

func newDocumentStores(docs DocumentStore) documentStores {
	return documentStores{
		integrations: &DocumentIntegrationStore{docs: docs},
		connections:  &DocumentConnectionStore{docs: docs},
		drafts:       &DocumentDraftStore{docs: docs},
	}
}

// GetIntegrationStore returns a store for integration documents
func (s documentStores) GetIntegrationStore() IntegrationStore {
	return s.integrations
}

// GetConnectionStore returns a store for connections
func (s documentStores) GetConnectionStore() ConnectionStore {
	return s.connections
}

// GetDraftStore returns a store for in-progress drafts
func (s documentStores) GetDraftStore() DraftStore {
	return s.drafts
}

func sortDocuments(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

// DocumentIntegrationStore implements IntegrationStore on a DocumentStore
type DocumentIntegrationStore struct {
	docs DocumentStore
}

// SaveIntegration persists an integration under its ID
func (s *DocumentIntegrationStore) SaveIntegration(ctx context.Context, integration models.Integration) error {
	if integration.ID == "" {
		return ErrMissingID
	}

	data, err := models.SerializeIntegration(integration)
	if err != nil {
		return err
	}

	return s.docs.PutDocument(ctx, Document{
		Collection: IntegrationsCollection,
		ID:         integration.ID,
		Data:       data,
		UpdatedAt:  time.Now().UTC(),
	})
}

// GetIntegration retrieves an integration
func (s *DocumentIntegrationStore) GetIntegration(ctx context.Context, id string) (models.Integration, error) {
	doc, err := s.docs.GetDocument(ctx, IntegrationsCollection, id)
	if err != nil {
		return models.Integration{}, err
	}
	return models.DeserializeIntegration(doc.Data)
}

// ListIntegrations returns all integrations ordered by ID
func (s *DocumentIntegrationStore) ListIntegrations(ctx context.Context) ([]models.Integration, error) {
	docs, err := s.docs.ListDocuments(ctx, IntegrationsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	sortDocuments(docs)

	integrations := make([]models.Integration, 0, len(docs))
	for _, doc := range docs {
		integration, err := models.DeserializeIntegration(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("integration %s: %w", doc.ID, err)
		}
		integrations = append(integrations, integration)
	}
	return integrations, nil
}

// DeleteIntegration removes an integration
func (s *DocumentIntegrationStore) DeleteIntegration(ctx context.Context, id string) error {
	return s.docs.DeleteDocument(ctx, IntegrationsCollection, id)
}

// DocumentConnectionStore implements ConnectionStore on a DocumentStore
type DocumentConnectionStore struct {
	docs DocumentStore
}

// SaveConnection persists a connection under its ID
func (s *DocumentConnectionStore) SaveConnection(ctx context.Context, connection models.Connection) error {
	if connection.ID == "" {
		return ErrMissingID
	}

	data, err := models.SerializeConnection(connection)
	if err != nil {
		return err
	}

	return s.docs.PutDocument(ctx, Document{
		Collection: ConnectionsCollection,
		ID:         connection.ID,
		Data:       data,
		UpdatedAt:  time.Now().UTC(),
	})
}

// GetConnection retrieves a connection
func (s *DocumentConnectionStore) GetConnection(ctx context.Context, id string) (models.Connection, error) {
	doc, err := s.docs.GetDocument(ctx, ConnectionsCollection, id)
	if err != nil {
		return models.Connection{}, err
	}
	return models.DeserializeConnection(doc.Data)
}

// ListConnections returns all connections ordered by ID
func (s *DocumentConnectionStore) ListConnections(ctx context.Context) ([]models.Connection, error) {
	docs, err := s.docs.ListDocuments(ctx, ConnectionsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	sortDocuments(docs)

	connections := make([]models.Connection, 0, len(docs))
	for _, doc := range docs {
		connection, err := models.DeserializeConnection(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", doc.ID, err)
		}
		connections = append(connections, connection)
	}
	return connections, nil
}

// DeleteConnection removes a connection
func (s *DocumentConnectionStore) DeleteConnection(ctx context.Context, id string) error {
	return s.docs.DeleteDocument(ctx, ConnectionsCollection, id)
}

// DocumentDraftStore implements DraftStore on a DocumentStore
type DocumentDraftStore struct {
	docs DocumentStore
}

// GetDraft retrieves the draft stored under key
func (s *DocumentDraftStore) GetDraft(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.docs.GetDocument(ctx, DraftsCollection, key)
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// SaveDraft stores a draft under key
func (s *DocumentDraftStore) SaveDraft(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return ErrMissingID
	}
	return s.docs.PutDocument(ctx, Document{
		Collection: DraftsCollection,
		ID:         key,
		Data:       data,
		UpdatedAt:  time.Now().UTC(),
	})
}

// DeleteDraft removes a draft
func (s *DocumentDraftStore) DeleteDraft(ctx context.Context, key string) error {
	return s.docs.DeleteDocument(ctx, DraftsCollection, key)
}

// ListDrafts returns information about every stored draft
func (s *DocumentDraftStore) ListDrafts(ctx context.Context) ([]DraftInfo, error) {
	docs, err := s.docs.ListDocuments(ctx, DraftsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	sortDocuments(docs)

	infos := make([]DraftInfo, len(docs))
	for i, doc := range docs {
		infos[i] = DraftInfo{
			Key:       doc.ID,
			UpdatedAt: doc.UpdatedAt,
			Size:      len(doc.Data),
		}
	}
	return infos, nil
}

// PruneDrafts removes drafts last written before the given time
func (s *DocumentDraftStore) PruneDrafts(ctx context.Context, before time.Time) (int, error) {
	docs, err := s.docs.ListDocuments(ctx, DraftsCollection)
	if err != nil {
		return 0, fmt.Errorf("failed to list drafts: %w", err)
	}

	pruned := 0
	for _, doc := range docs {
		if !doc.UpdatedAt.Before(before) {
			continue
		}
		if err := s.docs.DeleteDocument(ctx, DraftsCollection, doc.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return pruned, fmt.Errorf("failed to prune draft %s: %w", doc.ID, err)
		}
		pruned++
	}
	return pruned, nil
}
