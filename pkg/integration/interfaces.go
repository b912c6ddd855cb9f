// Package integration builds up integration documents across the creation
// wizard and keeps in-progress drafts in a draft store.
package integration

import (
	"context"
	"errors"

	"github.com/tcmartin/integrator/pkg/models"
)

// Errors returned by the helper
var (
	ErrNoDraft         = errors.New("There is no draft for id")
	ErrNoCreationDraft = errors.New("There is no creation draft")
	ErrStepNotFound    = errors.New("Can't find a step in position")
	ErrInvalidPosition = errors.New("invalid flow or step position")
)

// NewIntegrationID is the draft id used while an integration has no backend id
const NewIntegrationID = "new-integration"

// DescriptorFetcher resolves an action descriptor for configured properties
type DescriptorFetcher interface {
	// GetActionDescriptor posts the configured properties to
	// /connections/{connectionID}/actions/{actionID}
	GetActionDescriptor(ctx context.Context, connectionID, actionID string, properties map[string]string) (*models.ActionDescriptor, error)
}

// IntegrationSaver persists integrations on the backend
type IntegrationSaver interface {
	// CreateIntegration posts a new integration
	CreateIntegration(ctx context.Context, integration models.Integration) (models.Integration, error)

	// UpdateIntegration replaces an existing integration
	UpdateIntegration(ctx context.Context, id string, integration models.Integration) (models.Integration, error)
}

// Backend is the part of the REST API the helper talks to
type Backend interface {
	DescriptorFetcher
	IntegrationSaver
}
