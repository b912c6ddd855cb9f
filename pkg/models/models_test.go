package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIntegration() Integration {
	return Integration{
		ID:   "i-1",
		Name: "Orders to DB",
		Tags: []string{"http-1"},
		Flows: []Flow{
			{
				ID:   "f-1",
				Name: "",
				Steps: []Step{
					{
						ID:       "s-1",
						StepKind: StepKindEndpoint,
						Connection: &Connection{
							ID:   "http-1",
							Name: "Webhook",
							Connector: &Connector{
								ID:   "webhook",
								Name: "Webhook",
								Actions: []Action{
									{ID: "incoming", Name: "Incoming request"},
								},
							},
						},
						Action: &Action{
							ID:   "incoming",
							Name: "Incoming request",
							Descriptor: &ActionDescriptor{
								OutputDataShape: &DataShape{Kind: DataShapeJSONInstance, Name: "Order"},
							},
						},
						ConfiguredProperties: map[string]string{"path": "/orders"},
					},
				},
			},
		},
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	original := sampleIntegration()

	data, err := SerializeIntegration(original)
	require.NoError(t, err)

	restored, err := DeserializeIntegration(data)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestDeserializeDefaultsTags(t *testing.T) {
	restored, err := DeserializeIntegration([]byte(`{"name":""}`))
	require.NoError(t, err)
	assert.NotNil(t, restored.Tags)
	assert.Empty(t, restored.Tags)

	_, err = DeserializeIntegration([]byte(`{not json`))
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	original := sampleIntegration()
	clone := original.Clone()

	clone.Tags[0] = "changed"
	clone.Flows[0].Steps[0].ConfiguredProperties["path"] = "/changed"
	clone.Flows[0].Steps[0].Action.Descriptor.OutputDataShape.Name = "Changed"
	clone.Flows[0].Steps[0].Connection.Connector.Actions[0].Name = "Changed"

	assert.Equal(t, "http-1", original.Tags[0])
	assert.Equal(t, "/orders", original.Flows[0].Steps[0].ConfiguredProperties["path"])
	assert.Equal(t, "Order", original.Flows[0].Steps[0].Action.Descriptor.OutputDataShape.Name)
	assert.Equal(t, "Incoming request", original.Flows[0].Steps[0].Connection.Connector.Actions[0].Name)
}

func TestActionByID(t *testing.T) {
	conn := *sampleIntegration().Flows[0].Steps[0].Connection

	action, err := conn.ActionByID("incoming")
	require.NoError(t, err)
	assert.Equal(t, "Incoming request", action.Name)

	_, err = conn.ActionByID("missing")
	assert.Error(t, err)

	_, err = Connection{ID: "bare"}.ActionByID("incoming")
	assert.Error(t, err)
}

func TestPropertyNamesAndEnum(t *testing.T) {
	step := ActionDescriptorStep{
		Name: "Configure",
		Properties: map[string]ConfigurationProperty{
			"query": {Order: 2},
			"table": {Order: 1},
			"batch": {Order: 2},
		},
	}
	assert.Equal(t, []string{"table", "batch", "query"}, step.PropertyNames())

	prop := ConfigurationProperty{Enum: []PropertyEnum{{Label: "GET", Value: "GET"}}}
	assert.True(t, prop.AllowsValue("GET"))
	assert.False(t, prop.AllowsValue("POST"))
	assert.True(t, ConfigurationProperty{}.AllowsValue("anything"))
}

func TestValidateIntegration(t *testing.T) {
	assert.NoError(t, ValidateIntegration(sampleIntegration()))

	broken := sampleIntegration()
	broken.Flows[0].Steps[0].StepKind = ""
	assert.Error(t, ValidateIntegration(broken))

	assert.Error(t, ValidateConnection(Connection{}))
	assert.NoError(t, ValidateConnection(Connection{Name: "db"}))
}
