package models

import "fmt"

// Connection is a connector instantiated with credentials and configuration
type Connection struct {
	ID                   string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name                 string            `json:"name" yaml:"name" validate:"required"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	Icon                 string            `json:"icon,omitempty" yaml:"icon,omitempty"`
	ConnectorID          string            `json:"connectorId,omitempty" yaml:"connectorId,omitempty"`
	Connector            *Connector        `json:"connector,omitempty" yaml:"connector,omitempty"`
	ConfiguredProperties map[string]string `json:"configuredProperties,omitempty" yaml:"configuredProperties,omitempty"`
	Tags                 []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Connector is a reusable endpoint definition exposing actions
type Connector struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	Actions     []Action `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Action is an operation exposed by a connector
type Action struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	ActionType  string            `json:"actionType,omitempty" yaml:"actionType,omitempty"`
	Pattern     string            `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Descriptor  *ActionDescriptor `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`
}

// ActionByID returns the connector action with the given id
func (c Connection) ActionByID(actionID string) (Action, error) {
	if c.Connector != nil {
		for _, a := range c.Connector.Actions {
			if a.ID == actionID {
				return a, nil
			}
		}
	}
	return Action{}, fmt.Errorf("connection %s has no action %s", c.ID, actionID)
}

// Steps returns the form pages of the action, in order
func (a Action) Steps() []ActionDescriptorStep {
	if a.Descriptor == nil {
		return nil
	}
	return a.Descriptor.PropertyDefinitionSteps
}

// Clone returns a deep copy of the connection
func (c Connection) Clone() Connection {
	out := c
	out.ConfiguredProperties = cloneProperties(c.ConfiguredProperties)
	if c.Tags != nil {
		out.Tags = append([]string{}, c.Tags...)
	}
	if c.Connector != nil {
		conn := *c.Connector
		if c.Connector.Actions != nil {
			conn.Actions = make([]Action, len(c.Connector.Actions))
			for n, a := range c.Connector.Actions {
				conn.Actions[n] = a.Clone()
			}
		}
		out.Connector = &conn
	}
	return out
}

// Clone returns a deep copy of the action
func (a Action) Clone() Action {
	out := a
	if a.Descriptor != nil {
		d := a.Descriptor.Clone()
		out.Descriptor = &d
	}
	return out
}
