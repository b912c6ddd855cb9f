// Package registry manages integrations and connections on the server side.
package registry

import (
	"context"

	"github.com/tcmartin/integrator/pkg/models"
)

// IntegrationRegistry manages stored integrations
type IntegrationRegistry interface {
	// Create stores a new integration, assigning its id and version
	Create(ctx context.Context, integration models.Integration) (models.Integration, error)

	// Get retrieves an integration by id
	Get(ctx context.Context, id string) (models.Integration, error)

	// List returns the integrations matching filters
	List(ctx context.Context, filters SearchFilters) ([]models.Integration, error)

	// Update replaces an existing integration and bumps its version
	Update(ctx context.Context, id string, integration models.Integration) (models.Integration, error)

	// Delete removes an integration
	Delete(ctx context.Context, id string) error
}

// ConnectionCatalog manages connections and resolves action descriptors
type ConnectionCatalog interface {
	// Create registers a connection, assigning an id when it has none
	Create(ctx context.Context, connection models.Connection) (models.Connection, error)

	// Get retrieves a connection by id
	Get(ctx context.Context, id string) (models.Connection, error)

	// List returns the connections matching filters
	List(ctx context.Context, filters SearchFilters) ([]models.Connection, error)

	// ActionDescriptor resolves the descriptor of an action for the given
	// configured properties
	ActionDescriptor(ctx context.Context, connectionID, actionID string, properties map[string]string) (models.ActionDescriptor, error)
}

// SearchFilters narrows a listing
type SearchFilters struct {
	// Tag keeps documents carrying the tag
	Tag string

	// Query fuzzy-matches the document name
	Query string
}

// Publisher receives change notifications
type Publisher interface {
	Publish(event models.ChangeEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.ChangeEvent) {}
