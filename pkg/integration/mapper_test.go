package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/integrator/pkg/models"
)

func mapperFixture(t *testing.T) models.Integration {
	t.Helper()
	steps := []models.Step{
		{ID: "s0", StepKind: models.StepKindEndpoint, Action: &models.Action{ID: "a0", Descriptor: descriptor(models.DataShapeNone, models.DataShapeJSONSchema)}},
		{ID: "s1", StepKind: models.StepKindEndpoint, Action: &models.Action{ID: "a1", Descriptor: descriptor(models.DataShapeJava, models.DataShapeNone)}},
		{ID: "s2", StepKind: models.StepKindEndpoint, Action: &models.Action{ID: "a2"}},
		{ID: "s3", StepKind: models.StepKindEndpoint, Action: &models.Action{ID: "a3", Descriptor: descriptor(models.DataShapeXMLSchema, models.DataShapeJava)}},
	}
	integration := EmptyIntegration()
	var err error
	for i, s := range steps {
		integration, err = AddStep(integration, s, 0, i)
		require.NoError(t, err)
	}
	return integration
}

func TestInputDocuments(t *testing.T) {
	integration := mapperFixture(t)

	docs, err := InputDocuments(integration, 0, 3)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "s0", docs[0].StepID)
	assert.Equal(t, models.DataShapeJSONSchema, docs[0].Shape.Kind)

	docs, err = InputDocuments(integration, 0, 4)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = InputDocuments(integration, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = InputDocuments(integration, 0, 5)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = InputDocuments(integration, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestOutputDocument(t *testing.T) {
	integration := mapperFixture(t)

	doc, err := OutputDocument(integration, 0, 2, "s3")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Position)
	assert.Equal(t, models.DataShapeXMLSchema, doc.Shape.Kind)

	_, err = OutputDocument(integration, 0, 2, "other")
	assert.ErrorIs(t, err, ErrStepNotFound)

	_, err = OutputDocument(integration, 0, 3, "")
	assert.ErrorIs(t, err, ErrStepNotFound)

	// step without a descriptor
	_, err = OutputDocument(integration, 0, 1, "")
	assert.Error(t, err)
}

func TestMappingStep(t *testing.T) {
	integration := mapperFixture(t)
	output, err := OutputDocument(integration, 0, 2, "")
	require.NoError(t, err)

	step := MappingStep(models.Step{}, output, `{"mappings":[]}`)
	assert.NotEmpty(t, step.ID)
	assert.Equal(t, models.StepKindMapper, step.StepKind)
	assert.Nil(t, step.Connection)
	require.NotNil(t, step.Action.Descriptor)
	assert.Equal(t, models.DataShapeAny, step.Action.Descriptor.InputDataShape.Kind)
	assert.Equal(t, PrecedingOutputsName, step.Action.Descriptor.InputDataShape.Name)
	assert.Equal(t, models.DataShapeXMLSchema, step.Action.Descriptor.OutputDataShape.Kind)

	mapping, ok := Mapping(step)
	assert.True(t, ok)
	assert.Equal(t, `{"mappings":[]}`, mapping)

	_, ok = Mapping(integration.Flows[0].Steps[0])
	assert.False(t, ok)

	// adding a mapper before s3 keeps surrounding steps in place
	withMapper, err := AddStep(integration, step, 0, 3)
	require.NoError(t, err)
	ids := []string{}
	for _, s := range withMapper.Flows[0].Steps {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"s0", "s1", "s2", step.ID, "s3"}, ids)

	// existing mapper keeps its id when edited
	edited := MappingStep(step, output, `{"mappings":[1]}`)
	assert.Equal(t, step.ID, edited.ID)
	mapping, _ = Mapping(step)
	assert.Equal(t, `{"mappings":[]}`, mapping)
}
