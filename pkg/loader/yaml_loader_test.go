package loader

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/integrator/pkg/models"
)

const twitterToLog = `
metadata:
  name: Twitter to Log
  description: log every mention
  tags: [ops]
flows:
  - name: main
    steps:
      - kind: endpoint
        connection:
          id: twitter-1
          name: My Twitter
        action:
          id: twitter-mention
        properties:
          keywords: golang
      - kind: mapper
        properties:
          atlasmapping: '{"fields":[]}'
      - kind: endpoint
        connection:
          id: log-1
          name: Log
        action:
          id: log-action
`

func TestYAMLLoaderParse(t *testing.T) {
	l := NewYAMLLoader()

	in, err := l.Parse(twitterToLog)
	require.NoError(t, err)

	assert.Equal(t, "Twitter to Log", in.Name)
	assert.Equal(t, "log every mention", in.Description)
	assert.Equal(t, []string{"ops", "twitter-1", "log-1"}, in.Tags)
	assert.Empty(t, in.ID)

	require.Len(t, in.Flows, 1)
	flow := in.Flows[0]
	assert.NotEmpty(t, flow.ID)
	require.Len(t, flow.Steps, 3)

	assert.Equal(t, models.StepKindEndpoint, flow.Steps[0].StepKind)
	assert.Equal(t, "golang", flow.Steps[0].ConfiguredProperties["keywords"])
	assert.Equal(t, models.StepKindMapper, flow.Steps[1].StepKind)
	for _, step := range flow.Steps {
		assert.NotEmpty(t, step.ID)
	}
	assert.NoError(t, models.ValidateIntegration(in))
}

func TestYAMLLoaderValidate(t *testing.T) {
	l := NewYAMLLoader()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"valid", twitterToLog, ""},
		{"not yaml", "metadata: [", "invalid YAML"},
		{"missing name", "metadata:\n  description: x\n", "invalid integration definition"},
		{"unknown kind", "metadata:\n  name: x\nflows:\n  - steps:\n      - kind: teleport\n", "invalid integration definition"},
		{"endpoint without connection", "metadata:\n  name: x\nflows:\n  - steps:\n      - kind: endpoint\n", "invalid integration definition"},
		{"mapper without mapping", "metadata:\n  name: x\nflows:\n  - steps:\n      - kind: mapper\n", "has no atlasmapping property"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Validate(tt.content)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestYAMLLoaderExportRoundTrip(t *testing.T) {
	l := NewYAMLLoader()

	in, err := l.Parse(twitterToLog)
	require.NoError(t, err)
	in.ID = "server-id"
	in.Version = 4

	content, err := l.Export(in)
	require.NoError(t, err)
	assert.NotContains(t, content, "server-id")
	assert.NotContains(t, content, "version")

	again, err := l.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, in.Name, again.Name)
	assert.Equal(t, in.Tags, again.Tags)
	assert.Equal(t, in.Flows, again.Flows, "exported ids are kept on re-import")
}

func TestLoadAndSaveFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := NewYAMLLoader()

	require.NoError(t, afero.WriteFile(fs, "/defs/in.yaml", []byte(twitterToLog), 0o644))

	in, err := LoadFile(fs, l, "/defs/in.yaml")
	require.NoError(t, err)

	require.NoError(t, SaveFile(fs, l, "/defs/out.yaml", in))
	out, err := LoadFile(fs, l, "/defs/out.yaml")
	require.NoError(t, err)
	assert.Equal(t, in.Flows, out.Flows)

	_, err = LoadFile(fs, l, "/defs/missing.yaml")
	assert.Error(t, err)
}
