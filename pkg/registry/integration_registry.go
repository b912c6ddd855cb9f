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

// Errors returned by the registry
var (
	ErrIntegrationNotFound = errors.New("integration not found")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrActionNotFound      = errors.New("action not found")
	ErrInvalidDocument     = errors.New("invalid document")
)

// IntegrationRegistryService implements IntegrationRegistry on an IntegrationStore
type IntegrationRegistryService struct {
	store     storage.IntegrationStore
	publisher Publisher
	now       func() time.Time
}

// NewIntegrationRegistry creates a new integration registry
func NewIntegrationRegistry(store storage.IntegrationStore, publisher Publisher) *IntegrationRegistryService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &IntegrationRegistryService{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *IntegrationRegistryService) publish(action, id string) {
	r.publisher.Publish(models.ChangeEvent{
		Kind:   models.ChangeKindIntegration,
		Action: action,
		ID:     id,
		Time:   r.now(),
	})
}

// Create stores a new integration with a fresh id, version 1 and timestamps
func (r *IntegrationRegistryService) Create(ctx context.Context, integration models.Integration) (models.Integration, error) {
	if err := models.ValidateIntegration(integration); err != nil {
		return models.Integration{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	now := r.now()
	created := integration.Clone()
	created.ID = uuid.New().String()
	created.Version = 1
	created.CreatedAt = &now
	created.UpdatedAt = &now
	if created.Tags == nil {
		created.Tags = []string{}
	}

	if err := r.store.SaveIntegration(ctx, created); err != nil {
		return models.Integration{}, fmt.Errorf("failed to save integration: %w", err)
	}

	r.publish(models.ChangeCreated, created.ID)
	return created, nil
}

// Get retrieves an integration by id
func (r *IntegrationRegistryService) Get(ctx context.Context, id string) (models.Integration, error) {
	integration, err := r.store.GetIntegration(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Integration{}, fmt.Errorf("%w: %s", ErrIntegrationNotFound, id)
	}
	if err != nil {
		return models.Integration{}, fmt.Errorf("failed to get integration: %w", err)
	}
	return integration, nil
}

// List returns the integrations matching filters, ordered by id
func (r *IntegrationRegistryService) List(ctx context.Context, filters SearchFilters) ([]models.Integration, error) {
	integrations, err := r.store.ListIntegrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}

	matched := make([]models.Integration, 0, len(integrations))
	for _, integration := range integrations {
		if filters.Tag != "" && !integration.HasTag(filters.Tag) {
			continue
		}
		if filters.Query != "" && !fuzzy.MatchFold(filters.Query, integration.Name) {
			continue
		}
		matched = append(matched, integration)
	}
	return matched, nil
}

// Update replaces an existing integration, keeping its creation time and
// bumping its version
func (r *IntegrationRegistryService) Update(ctx context.Context, id string, integration models.Integration) (models.Integration, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return models.Integration{}, err
	}
	if integration.ID != "" && integration.ID != id {
		return models.Integration{}, fmt.Errorf("%w: id %s does not match %s", ErrInvalidDocument, integration.ID, id)
	}
	if err := models.ValidateIntegration(integration); err != nil {
		return models.Integration{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	now := r.now()
	updated := integration.Clone()
	updated.ID = id
	updated.Version = existing.Version + 1
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = &now
	if updated.Tags == nil {
		updated.Tags = []string{}
	}

	if err := r.store.SaveIntegration(ctx, updated); err != nil {
		return models.Integration{}, fmt.Errorf("failed to update integration: %w", err)
	}

	r.publish(models.ChangeUpdated, id)
	return updated, nil
}

// Delete removes an integration
func (r *IntegrationRegistryService) Delete(ctx context.Context, id string) error {
	err := r.store.DeleteIntegration(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrIntegrationNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}

	r.publish(models.ChangeDeleted, id)
	return nil
}
