package integration

import (
	"fmt"

	"github.com/tcmartin/integrator/pkg/models"
)

// MappingProperty is the configured property holding a data mapping
const MappingProperty = "atlasmapping"

// PrecedingOutputsName names the input shape of a mapper step
const PrecedingOutputsName = "All preceding outputs"

// Document is a data shape offered to, or expected from, a mapper step
type Document struct {
	// StepID identifies the step producing or consuming the shape
	StepID string `json:"stepId"`

	// Position is the step position within its flow
	Position int `json:"position"`

	// Shape describes the data
	Shape models.DataShape `json:"shape"`
}

// InputDocuments returns the output shapes of every step before position,
// skipping steps without a descriptor and shapes of kind none.
func InputDocuments(integration models.Integration, flow, position int) ([]Document, error) {
	if flow < 0 || flow >= len(integration.Flows) {
		return nil, fmt.Errorf("%w: flow:%d", ErrInvalidPosition, flow)
	}
	steps := integration.Flows[flow].Steps
	if position < 0 || position > len(steps) {
		return nil, fmt.Errorf("%w: flow:%d step:%d", ErrInvalidPosition, flow, position)
	}

	docs := []Document{}
	for i, step := range steps[:position] {
		shape := outputShape(step)
		if shape == nil || shape.Kind == models.DataShapeNone {
			continue
		}
		docs = append(docs, Document{StepID: step.ID, Position: i, Shape: *shape})
	}
	return docs, nil
}

// OutputDocument returns the input shape of the step following position.
// When stepID is set the step must carry that id.
func OutputDocument(integration models.Integration, flow, position int, stepID string) (Document, error) {
	step, err := GetStep(integration, flow, position+1)
	if err != nil {
		return Document{}, err
	}
	if stepID != "" && step.ID != stepID {
		return Document{}, fmt.Errorf("%w flow:%d step:%d", ErrStepNotFound, flow, position+1)
	}

	shape := inputShape(step)
	if shape == nil {
		return Document{}, fmt.Errorf("step %s has no input data shape", step.ID)
	}
	return Document{StepID: step.ID, Position: position + 1, Shape: *shape}, nil
}

// MappingStep builds a mapper step from the input shape of output and a
// serialized mapping. Fields already set on step are kept.
func MappingStep(step models.Step, output Document, mapping string) models.Step {
	mapper := step.Clone()
	if mapper.ID == "" {
		mapper.ID = NewKey()
	}
	mapper.StepKind = models.StepKindMapper
	mapper.Connection = nil

	outShape := output.Shape
	mapper.Action = &models.Action{
		ID:         "data-mapper",
		Name:       "Data Mapper",
		ActionType: "step",
		Descriptor: &models.ActionDescriptor{
			InputDataShape: &models.DataShape{
				Kind: models.DataShapeAny,
				Name: PrecedingOutputsName,
			},
			OutputDataShape: &outShape,
		},
	}

	if mapper.ConfiguredProperties == nil {
		mapper.ConfiguredProperties = map[string]string{}
	}
	mapper.ConfiguredProperties[MappingProperty] = mapping
	return mapper
}

// Mapping returns the mapping configured on a mapper step
func Mapping(step models.Step) (string, bool) {
	if step.StepKind != models.StepKindMapper {
		return "", false
	}
	mapping, ok := step.ConfiguredProperties[MappingProperty]
	return mapping, ok
}

func outputShape(step models.Step) *models.DataShape {
	if step.Action == nil || step.Action.Descriptor == nil {
		return nil
	}
	return step.Action.Descriptor.OutputDataShape
}

func inputShape(step models.Step) *models.DataShape {
	if step.Action == nil || step.Action.Descriptor == nil {
		return nil
	}
	return step.Action.Descriptor.InputDataShape
}
