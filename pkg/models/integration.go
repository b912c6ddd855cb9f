// Package models defines the integration documents exchanged with the backend.
package models

import "time"

// Step kinds
const (
	// StepKindEndpoint is a step bound to a connection action
	StepKindEndpoint = "endpoint"

	// StepKindMapper is a data mapping step
	StepKindMapper = "mapper"
)

// Integration is a user-defined document made of one or more flows
type Integration struct {
	// ID is assigned by the backend on first save
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Name of the integration
	Name string `json:"name" yaml:"name"`

	// Description of the integration
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Tags holds the ids of every connection the integration uses
	Tags []string `json:"tags" yaml:"tags"`

	// Flows of the integration
	Flows []Flow `json:"flows,omitempty" yaml:"flows,omitempty" validate:"dive"`

	// Version is bumped by the backend on every update
	Version int `json:"version,omitempty" yaml:"version,omitempty"`

	// CreatedAt is when the backend first stored the integration
	CreatedAt *time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`

	// UpdatedAt is when the backend last stored the integration
	UpdatedAt *time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Flow is an ordered sequence of steps
type Flow struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Steps []Step `json:"steps" yaml:"steps" validate:"dive"`
}

// Step is a single configured unit of a flow
type Step struct {
	ID                   string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name                 string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	StepKind             string            `json:"stepKind" yaml:"stepKind" validate:"required"`
	Connection           *Connection       `json:"connection,omitempty" yaml:"connection,omitempty" validate:"-"`
	Action               *Action           `json:"action,omitempty" yaml:"action,omitempty" validate:"-"`
	ConfiguredProperties map[string]string `json:"configuredProperties,omitempty" yaml:"configuredProperties,omitempty"`
}

// HasTag reports whether the integration is tagged with the given value
func (i Integration) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the integration
func (i Integration) Clone() Integration {
	out := i
	if i.Tags != nil {
		out.Tags = append([]string{}, i.Tags...)
	}
	if i.Flows != nil {
		out.Flows = make([]Flow, len(i.Flows))
		for n, f := range i.Flows {
			out.Flows[n] = f.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the flow
func (f Flow) Clone() Flow {
	out := f
	if f.Steps != nil {
		out.Steps = make([]Step, len(f.Steps))
		for n, s := range f.Steps {
			out.Steps[n] = s.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the step
func (s Step) Clone() Step {
	out := s
	if s.Connection != nil {
		c := s.Connection.Clone()
		out.Connection = &c
	}
	if s.Action != nil {
		a := s.Action.Clone()
		out.Action = &a
	}
	out.ConfiguredProperties = cloneProperties(s.ConfiguredProperties)
	return out
}

func cloneProperties(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
