// Package loader imports and exports integration definitions as YAML.
package loader

import (
	"github.com/tcmartin/integrator/pkg/models"
)

// YAMLLoader converts between YAML integration definitions and integrations
type YAMLLoader interface {
	// Parse converts a YAML definition into an integration
	Parse(yamlContent string) (models.Integration, error)

	// Validate checks if a YAML definition is well formed
	Validate(yamlContent string) error

	// Export renders an integration as a YAML definition
	Export(integration models.Integration) (string, error)
}

// IntegrationDefinition represents an integration definition in YAML
type IntegrationDefinition struct {
	// Metadata about the integration
	Metadata IntegrationMetadata `yaml:"metadata" json:"metadata"`

	// Flows of the integration
	Flows []FlowDefinition `yaml:"flows" json:"flows" validate:"dive"`
}

// IntegrationMetadata contains information about the integration
type IntegrationMetadata struct {
	// Name of the integration
	Name string `yaml:"name" json:"name" validate:"required"`

	// Description of the integration
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Tags of the integration; connection ids are added automatically
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// FlowDefinition is one flow of the definition
type FlowDefinition struct {
	ID    string           `yaml:"id,omitempty" json:"id,omitempty"`
	Name  string           `yaml:"name,omitempty" json:"name,omitempty"`
	Steps []StepDefinition `yaml:"steps" json:"steps" validate:"dive"`
}

// StepDefinition is one step of a flow
type StepDefinition struct {
	ID          string `yaml:"id,omitempty" json:"id,omitempty"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Kind is the step kind, "endpoint" or "mapper"
	Kind string `yaml:"kind" json:"kind" validate:"required,oneof=endpoint mapper"`

	// Connection is the full connection of an endpoint step
	Connection *models.Connection `yaml:"connection,omitempty" json:"connection,omitempty" validate:"required_if=Kind endpoint"`

	// Action is the action of an endpoint step
	Action *models.Action `yaml:"action,omitempty" json:"action,omitempty" validate:"required_if=Kind endpoint"`

	// Properties are the configured properties of the step
	Properties map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
}
