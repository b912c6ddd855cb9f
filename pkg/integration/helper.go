package integration

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/models"
	"github.com/tcmartin/integrator/pkg/storage"
)

// Helper applies edits to integration documents. Every edit returns a new
// document and leaves its input untouched.
type Helper struct {
	backend Backend
	drafts  storage.DraftStore
	logger  logging.Logger
}

// NewHelper creates a helper talking to backend and storing drafts in drafts
func NewHelper(backend Backend, drafts storage.DraftStore, logger logging.Logger) *Helper {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Helper{
		backend: backend,
		drafts:  drafts,
		logger:  logger.WithFields(logging.F("component", "integration-helper")),
	}
}

// NewKey returns a fresh sortable id for flows and steps
func NewKey() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// EmptyIntegration returns a new document with no name, tags or flows
func EmptyIntegration() models.Integration {
	return models.Integration{
		Name: "",
		Tags: []string{},
	}
}

// AddConnection fetches the descriptor of action for the configured
// properties and inserts an endpoint step at position of flow.
func (h *Helper) AddConnection(
	ctx context.Context,
	integration models.Integration,
	connection models.Connection,
	action models.Action,
	flow, position int,
	properties map[string]string,
) (models.Integration, error) {
	step, err := h.connectionStep(ctx, connection, action, properties)
	if err != nil {
		return integration, err
	}

	updated, err := insertStep(integration, flow, position, step)
	if err != nil {
		return integration, err
	}
	if !updated.HasTag(connection.ID) {
		updated.Tags = append(updated.Tags, connection.ID)
	}

	h.logger.Debug("added connection step",
		logging.F("connection", connection.ID),
		logging.F("action", action.ID),
		logging.F("flow", flow),
		logging.F("position", position))
	return updated, nil
}

// UpdateConnection fetches the descriptor of action for the configured
// properties and replaces the step at position of flow. A position equal to
// the number of steps appends.
func (h *Helper) UpdateConnection(
	ctx context.Context,
	integration models.Integration,
	connection models.Connection,
	action models.Action,
	flow, position int,
	properties map[string]string,
) (models.Integration, error) {
	step, err := h.connectionStep(ctx, connection, action, properties)
	if err != nil {
		return integration, err
	}

	updated, err := replaceStep(integration, flow, position, step)
	if err != nil {
		return integration, err
	}

	h.logger.Debug("updated connection step",
		logging.F("connection", connection.ID),
		logging.F("action", action.ID),
		logging.F("flow", flow),
		logging.F("position", position))
	return updated, nil
}

func (h *Helper) connectionStep(
	ctx context.Context,
	connection models.Connection,
	action models.Action,
	properties map[string]string,
) (models.Step, error) {
	descriptor, err := h.backend.GetActionDescriptor(ctx, connection.ID, action.ID, properties)
	if err != nil {
		return models.Step{}, fmt.Errorf("failed to fetch descriptor for %s/%s: %w", connection.ID, action.ID, err)
	}

	stepAction := action.Clone()
	stepAction.Descriptor = descriptor
	stepConnection := connection.Clone()

	return models.Step{
		ID:                   NewKey(),
		StepKind:             models.StepKindEndpoint,
		Connection:           &stepConnection,
		Action:               &stepAction,
		ConfiguredProperties: copyProperties(properties),
	}, nil
}

// AddStep inserts a caller-built step at position of flow
func AddStep(integration models.Integration, step models.Step, flow, position int) (models.Integration, error) {
	step = step.Clone()
	if step.ID == "" {
		step.ID = NewKey()
	}
	return insertStep(integration, flow, position, step)
}

// UpdateStep replaces the step at position of flow with a caller-built step
func UpdateStep(integration models.Integration, step models.Step, flow, position int) (models.Integration, error) {
	step = step.Clone()
	if step.ID == "" {
		step.ID = NewKey()
	}
	return replaceStep(integration, flow, position, step)
}

// RemoveStep removes the step at position of flow
func RemoveStep(integration models.Integration, flow, position int) (models.Integration, error) {
	if flow < 0 || flow >= len(integration.Flows) {
		return integration, fmt.Errorf("%w: flow:%d", ErrInvalidPosition, flow)
	}
	steps := integration.Flows[flow].Steps
	if position < 0 || position >= len(steps) {
		return integration, fmt.Errorf("%w: flow:%d step:%d", ErrInvalidPosition, flow, position)
	}

	updated := integration.Clone()
	target := &updated.Flows[flow]
	target.Steps = append(target.Steps[:position], target.Steps[position+1:]...)
	return updated, nil
}

// SetName returns a copy of integration with its name set
func SetName(integration models.Integration, name string) models.Integration {
	updated := integration.Clone()
	updated.Name = name
	return updated
}

// SaveIntegration updates the integration on the backend when it already has
// an id and creates it otherwise.
func (h *Helper) SaveIntegration(ctx context.Context, integration models.Integration) (models.Integration, error) {
	if integration.ID != "" {
		saved, err := h.backend.UpdateIntegration(ctx, integration.ID, integration)
		if err != nil {
			return models.Integration{}, fmt.Errorf("failed to update integration %s: %w", integration.ID, err)
		}
		h.logger.LogIntegrationEvent(saved.ID, "updated", map[string]interface{}{"version": saved.Version})
		return saved, nil
	}

	saved, err := h.backend.CreateIntegration(ctx, integration)
	if err != nil {
		return models.Integration{}, fmt.Errorf("failed to create integration: %w", err)
	}
	h.logger.LogIntegrationEvent(saved.ID, "created", nil)
	return saved, nil
}

// GetStep returns the step at position step of flow
func GetStep(integration models.Integration, flow, step int) (models.Step, error) {
	if flow < 0 || flow >= len(integration.Flows) ||
		step < 0 || step >= len(integration.Flows[flow].Steps) {
		return models.Step{}, fmt.Errorf("%w flow:%d step:%d", ErrStepNotFound, flow, step)
	}
	return integration.Flows[flow].Steps[step].Clone(), nil
}

// GetSteps returns the steps of flow, or none when the flow does not exist
func GetSteps(integration models.Integration, flow int) []models.Step {
	if flow < 0 || flow >= len(integration.Flows) {
		return []models.Step{}
	}
	steps := integration.Flows[flow].Clone().Steps
	if steps == nil {
		return []models.Step{}
	}
	return steps
}

// FlowIndex returns the index of the flow with flowID, or -1
func FlowIndex(integration models.Integration, flowID string) int {
	for i, f := range integration.Flows {
		if f.ID == flowID {
			return i
		}
	}
	return -1
}

// ensureFlow returns a copy of integration in which flow exists
func ensureFlow(integration models.Integration, flow int) (models.Integration, error) {
	if flow < 0 || flow > len(integration.Flows) {
		return integration, fmt.Errorf("%w: flow:%d", ErrInvalidPosition, flow)
	}

	updated := integration.Clone()
	if updated.Tags == nil {
		updated.Tags = []string{}
	}
	if flow == len(updated.Flows) {
		updated.Flows = append(updated.Flows, models.Flow{
			ID:    NewKey(),
			Name:  "",
			Steps: []models.Step{},
		})
	}
	return updated, nil
}

func insertStep(integration models.Integration, flow, position int, step models.Step) (models.Integration, error) {
	updated, err := ensureFlow(integration, flow)
	if err != nil {
		return integration, err
	}

	target := &updated.Flows[flow]
	if position < 0 || position > len(target.Steps) {
		return integration, fmt.Errorf("%w: flow:%d step:%d", ErrInvalidPosition, flow, position)
	}

	steps := make([]models.Step, 0, len(target.Steps)+1)
	steps = append(steps, target.Steps[:position]...)
	steps = append(steps, step)
	steps = append(steps, target.Steps[position:]...)
	target.Steps = steps
	return updated, nil
}

func replaceStep(integration models.Integration, flow, position int, step models.Step) (models.Integration, error) {
	updated, err := ensureFlow(integration, flow)
	if err != nil {
		return integration, err
	}

	target := &updated.Flows[flow]
	switch {
	case position < 0 || position > len(target.Steps):
		return integration, fmt.Errorf("%w: flow:%d step:%d", ErrInvalidPosition, flow, position)
	case position == len(target.Steps):
		target.Steps = append(target.Steps, step)
	default:
		target.Steps[position] = step
	}
	return updated, nil
}

func copyProperties(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
