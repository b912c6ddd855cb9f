// Package wizard walks a user through creating an integration on a terminal.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tcmartin/integrator/pkg/integration"
	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/models"
)

// Action patterns of start and finish connections
const (
	PatternFrom = "From"
	PatternTo   = "To"
)

// ErrNoConnections is returned when there is nothing to choose from
var ErrNoConnections = errors.New("no connections available")

// ConnectionLister lists the connections a user can pick
type ConnectionLister interface {
	ListConnections(ctx context.Context) ([]models.Connection, error)
}

// Wizard drives the integration helper from terminal prompts
type Wizard struct {
	helper      *integration.Helper
	connections ConnectionLister
	prompt      *prompter
	logger      logging.Logger
}

// New creates a wizard reading answers from in and writing prompts to out
func New(helper *integration.Helper, connections ConnectionLister, in io.Reader, out io.Writer, logger logging.Logger) *Wizard {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Wizard{
		helper:      helper,
		connections: connections,
		prompt:      newPrompter(in, out),
		logger:      logger,
	}
}

// Start picks the start connection and action, configures each of its
// property steps and stores the result as the creation draft
func (w *Wizard) Start(ctx context.Context) (models.Integration, error) {
	connection, action, err := w.chooseEndpoint(ctx, "start", PatternFrom)
	if err != nil {
		return models.Integration{}, err
	}

	draft, err := w.configure(ctx, integration.EmptyIntegration(), connection, action, 0)
	if err != nil {
		return models.Integration{}, err
	}

	if err := w.helper.SetCreationDraft(ctx, draft); err != nil {
		return models.Integration{}, err
	}
	w.prompt.printf("Start step saved. Run the finish step next.\n")
	return draft, nil
}

// Finish loads the creation draft, adds the finish connection after the
// start step, names the integration and stores it as a draft. It returns
// the draft id.
func (w *Wizard) Finish(ctx context.Context) (string, error) {
	draft, err := w.helper.GetCreationDraft(ctx)
	if err != nil {
		return "", err
	}

	connection, action, err := w.chooseEndpoint(ctx, "finish", PatternTo)
	if err != nil {
		return "", err
	}

	draft, err = w.configure(ctx, draft, connection, action, 1)
	if err != nil {
		return "", err
	}

	name, err := w.prompt.property("name", models.ConfigurationProperty{DisplayName: "Integration name", Required: true})
	if err != nil {
		return "", err
	}
	draft = integration.SetName(draft, name)

	id, err := w.helper.CreateDraft(ctx, draft)
	if err != nil {
		return "", err
	}
	w.prompt.printf("Draft %s saved.\n", id)
	return id, nil
}

// configure fills every property step of action. Each step but the last
// updates the step at position, which appends it the first time; the last
// step adds the connection when the action has a single step.
func (w *Wizard) configure(
	ctx context.Context,
	draft models.Integration,
	connection models.Connection,
	action models.Action,
	position int,
) (models.Integration, error) {
	steps := action.Steps()
	if len(steps) == 0 {
		return w.helper.AddConnection(ctx, draft, connection, action, 0, position, map[string]string{})
	}

	properties := map[string]string{}
	for n, step := range steps {
		w.prompt.printf("\n%d. %s\n", n+1, step.Name)
		if step.Description != "" {
			w.prompt.printf("%s\n", step.Description)
		}
		for _, name := range step.PropertyNames() {
			value, err := w.prompt.property(name, step.Properties[name])
			if err != nil {
				return draft, err
			}
			if value != "" {
				properties[name] = value
			}
		}

		var err error
		if n == 0 && len(steps) == 1 {
			draft, err = w.helper.AddConnection(ctx, draft, connection, action, 0, position, properties)
		} else {
			draft, err = w.helper.UpdateConnection(ctx, draft, connection, action, 0, position, properties)
		}
		if err != nil {
			return draft, err
		}
		w.logger.Debug("configured action step",
			logging.F("action", action.ID),
			logging.F("step", n))
	}
	return draft, nil
}

// chooseEndpoint asks for a connection by fuzzy search and then one of its
// actions
func (w *Wizard) chooseEndpoint(ctx context.Context, role, pattern string) (models.Connection, models.Action, error) {
	all, err := w.connections.ListConnections(ctx)
	if err != nil {
		return models.Connection{}, models.Action{}, fmt.Errorf("failed to list connections: %w", err)
	}
	if len(all) == 0 {
		return models.Connection{}, models.Action{}, ErrNoConnections
	}

	var matches []models.Connection
	for len(matches) == 0 {
		query, err := w.prompt.ask(fmt.Sprintf("Search %s connection (empty lists all): ", role))
		if err != nil {
			return models.Connection{}, models.Action{}, err
		}
		matches = rankConnections(all, query)
		if len(matches) == 0 {
			w.prompt.printf("No connection matches %q\n", query)
		}
	}

	for i, c := range matches {
		w.prompt.printf("  %d) %s\n", i+1, c.Name)
	}
	choice, err := w.prompt.choose("Connection: ", len(matches))
	if err != nil {
		return models.Connection{}, models.Action{}, err
	}
	connection := matches[choice]

	actions := actionsFor(connection, pattern)
	if len(actions) == 0 {
		return models.Connection{}, models.Action{}, fmt.Errorf("connection %s has no actions", connection.Name)
	}
	if len(actions) == 1 {
		w.prompt.printf("Using action %s\n", actionLabel(actions[0]))
		return connection, actions[0], nil
	}

	for i, a := range actions {
		w.prompt.printf("  %d) %s\n", i+1, actionLabel(a))
	}
	choice, err = w.prompt.choose("Action: ", len(actions))
	if err != nil {
		return models.Connection{}, models.Action{}, err
	}
	return connection, actions[choice], nil
}

// actionsFor returns the connection's actions with the given pattern, or
// every action when none declares it
func actionsFor(connection models.Connection, pattern string) []models.Action {
	if connection.Connector == nil {
		return nil
	}
	var matching []models.Action
	for _, a := range connection.Connector.Actions {
		if a.Pattern == pattern {
			matching = append(matching, a)
		}
	}
	if len(matching) == 0 {
		return connection.Connector.Actions
	}
	return matching
}

func actionLabel(a models.Action) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
