package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/tcmartin/integrator/pkg/models"
	"github.com/tcmartin/integrator/pkg/storage"
)

// ConnectionCatalogService implements ConnectionCatalog on a ConnectionStore
type ConnectionCatalogService struct {
	store     storage.ConnectionStore
	publisher Publisher
}

// NewConnectionCatalog creates a new connection catalog
func NewConnectionCatalog(store storage.ConnectionStore, publisher Publisher) *ConnectionCatalogService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ConnectionCatalogService{store: store, publisher: publisher}
}

// Create registers a connection, assigning an id when it has none
func (c *ConnectionCatalogService) Create(ctx context.Context, connection models.Connection) (models.Connection, error) {
	if err := models.ValidateConnection(connection); err != nil {
		return models.Connection{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	created := connection.Clone()
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	if created.Connector != nil && created.ConnectorID == "" {
		created.ConnectorID = created.Connector.ID
	}

	if err := c.store.SaveConnection(ctx, created); err != nil {
		return models.Connection{}, fmt.Errorf("failed to save connection: %w", err)
	}

	c.publisher.Publish(models.ChangeEvent{
		Kind:   models.ChangeKindConnection,
		Action: models.ChangeCreated,
		ID:     created.ID,
		Time:   time.Now().UTC(),
	})
	return created, nil
}

// Get retrieves a connection by id
func (c *ConnectionCatalogService) Get(ctx context.Context, id string) (models.Connection, error) {
	connection, err := c.store.GetConnection(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Connection{}, fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	if err != nil {
		return models.Connection{}, fmt.Errorf("failed to get connection: %w", err)
	}
	return connection, nil
}

// List returns the connections matching filters, ordered by id
func (c *ConnectionCatalogService) List(ctx context.Context, filters SearchFilters) ([]models.Connection, error) {
	connections, err := c.store.ListConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	matched := make([]models.Connection, 0, len(connections))
	for _, connection := range connections {
		if filters.Tag != "" && !hasTag(connection.Tags, filters.Tag) {
			continue
		}
		if filters.Query != "" && !fuzzy.MatchFold(filters.Query, connection.Name) {
			continue
		}
		matched = append(matched, connection)
	}
	return matched, nil
}

// ActionDescriptor returns the stored descriptor of an action with the
// configured property values applied as property defaults
func (c *ConnectionCatalogService) ActionDescriptor(ctx context.Context, connectionID, actionID string, properties map[string]string) (models.ActionDescriptor, error) {
	connection, err := c.Get(ctx, connectionID)
	if err != nil {
		return models.ActionDescriptor{}, err
	}

	action, err := connection.ActionByID(actionID)
	if err != nil {
		return models.ActionDescriptor{}, fmt.Errorf("%w: %s/%s", ErrActionNotFound, connectionID, actionID)
	}
	if action.Descriptor == nil {
		return models.ActionDescriptor{}, nil
	}

	descriptor := action.Descriptor.Clone()
	for i, step := range descriptor.PropertyDefinitionSteps {
		for name, property := range step.Properties {
			if value, ok := properties[name]; ok {
				property.DefaultValue = value
				descriptor.PropertyDefinitionSteps[i].Properties[name] = property
			}
		}
	}
	return descriptor, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
