package loader

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/tcmartin/integrator/pkg/integration"
	"github.com/tcmartin/integrator/pkg/models"
)

// DefaultYAMLLoader implements the YAMLLoader interface
type DefaultYAMLLoader struct {
	validate *validator.Validate
}

// NewYAMLLoader creates a new YAML loader
func NewYAMLLoader() YAMLLoader {
	return &DefaultYAMLLoader{validate: validator.New()}
}

// Parse converts a YAML definition into an integration. Missing flow and
// step ids are generated and every endpoint connection is added to the tags.
func (l *DefaultYAMLLoader) Parse(yamlContent string) (models.Integration, error) {
	def, err := l.decode(yamlContent)
	if err != nil {
		return models.Integration{}, err
	}

	result := integration.EmptyIntegration()
	result.Name = def.Metadata.Name
	result.Description = def.Metadata.Description
	for _, tag := range def.Metadata.Tags {
		addTag(&result, tag)
	}

	for _, flowDef := range def.Flows {
		flow := models.Flow{
			ID:    flowDef.ID,
			Name:  flowDef.Name,
			Steps: []models.Step{},
		}
		if flow.ID == "" {
			flow.ID = integration.NewKey()
		}

		for _, stepDef := range flowDef.Steps {
			step := models.Step{
				ID:                   stepDef.ID,
				Name:                 stepDef.Name,
				Description:          stepDef.Description,
				StepKind:             stepDef.Kind,
				Connection:           stepDef.Connection,
				Action:               stepDef.Action,
				ConfiguredProperties: stepDef.Properties,
			}
			if step.ID == "" {
				step.ID = integration.NewKey()
			}
			if step.Connection != nil && step.Connection.ID != "" {
				addTag(&result, step.Connection.ID)
			}
			flow.Steps = append(flow.Steps, step.Clone())
		}

		result.Flows = append(result.Flows, flow)
	}

	return result, nil
}

// Validate checks if a YAML definition is well formed
func (l *DefaultYAMLLoader) Validate(yamlContent string) error {
	_, err := l.decode(yamlContent)
	return err
}

func (l *DefaultYAMLLoader) decode(yamlContent string) (IntegrationDefinition, error) {
	var def IntegrationDefinition
	if err := yaml.Unmarshal([]byte(yamlContent), &def); err != nil {
		return IntegrationDefinition{}, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := l.validate.Struct(def); err != nil {
		return IntegrationDefinition{}, fmt.Errorf("invalid integration definition: %w", err)
	}

	for f, flowDef := range def.Flows {
		for s, stepDef := range flowDef.Steps {
			if stepDef.Kind == models.StepKindMapper {
				if _, ok := stepDef.Properties[integration.MappingProperty]; !ok {
					return IntegrationDefinition{}, fmt.Errorf("mapper step %d of flow %d has no %s property",
						s, f, integration.MappingProperty)
				}
			}
		}
	}

	return def, nil
}

// Export renders an integration as a YAML definition. Backend-managed fields
// (id, version, timestamps) are left out so the definition can be imported
// as a new integration.
func (l *DefaultYAMLLoader) Export(in models.Integration) (string, error) {
	def := IntegrationDefinition{
		Metadata: IntegrationMetadata{
			Name:        in.Name,
			Description: in.Description,
			Tags:        in.Tags,
		},
		Flows: make([]FlowDefinition, 0, len(in.Flows)),
	}

	for _, flow := range in.Flows {
		flowDef := FlowDefinition{
			ID:    flow.ID,
			Name:  flow.Name,
			Steps: make([]StepDefinition, 0, len(flow.Steps)),
		}
		for _, step := range flow.Steps {
			step = step.Clone()
			flowDef.Steps = append(flowDef.Steps, StepDefinition{
				ID:          step.ID,
				Name:        step.Name,
				Description: step.Description,
				Kind:        step.StepKind,
				Connection:  step.Connection,
				Action:      step.Action,
				Properties:  step.ConfiguredProperties,
			})
		}
		def.Flows = append(def.Flows, flowDef)
	}

	data, err := yaml.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("failed to marshal integration: %w", err)
	}
	return string(data), nil
}

// LoadFile reads and parses a YAML definition from fs
func LoadFile(fs afero.Fs, l YAMLLoader, path string) (models.Integration, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return models.Integration{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.Parse(string(data))
}

// SaveFile exports an integration to a YAML file on fs
func SaveFile(fs afero.Fs, l YAMLLoader, path string, in models.Integration) error {
	content, err := l.Export(in)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func addTag(in *models.Integration, tag string) {
	if tag != "" && !in.HasTag(tag) {
		in.Tags = append(in.Tags, tag)
	}
}
