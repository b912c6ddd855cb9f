package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/integrator/pkg/models"
	"github.com/tcmartin/integrator/pkg/storage"
)

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) GetActionDescriptor(ctx context.Context, connectionID, actionID string, properties map[string]string) (*models.ActionDescriptor, error) {
	args := m.Called(ctx, connectionID, actionID, properties)
	if d := args.Get(0); d != nil {
		return d.(*models.ActionDescriptor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) CreateIntegration(ctx context.Context, integration models.Integration) (models.Integration, error) {
	args := m.Called(ctx, integration)
	return args.Get(0).(models.Integration), args.Error(1)
}

func (m *MockBackend) UpdateIntegration(ctx context.Context, id string, integration models.Integration) (models.Integration, error) {
	args := m.Called(ctx, id, integration)
	return args.Get(0).(models.Integration), args.Error(1)
}

func newTestHelper() (*Helper, *MockBackend, storage.DraftStore) {
	backend := &MockBackend{}
	drafts := storage.NewMemoryProvider().GetDraftStore()
	return NewHelper(backend, drafts, nil), backend, drafts
}

func twitter() models.Connection {
	return models.Connection{
		ID:          "conn-twitter",
		Name:        "Twitter",
		ConnectorID: "twitter",
		Connector: &models.Connector{
			ID:   "twitter",
			Name: "Twitter",
			Actions: []models.Action{
				{ID: "twitter-mention", Name: "Mention"},
				{ID: "twitter-post", Name: "Post"},
			},
		},
	}
}

func descriptor(in, out models.DataShapeKind) *models.ActionDescriptor {
	return &models.ActionDescriptor{
		InputDataShape:  &models.DataShape{Kind: in, Name: "in"},
		OutputDataShape: &models.DataShape{Kind: out, Name: "out"},
	}
}

// stepActions returns the action id of each step in flow 0
func stepActions(t *testing.T, integration models.Integration) []string {
	t.Helper()
	var ids []string
	for _, s := range GetSteps(integration, 0) {
		require.NotNil(t, s.Action)
		ids = append(ids, s.Action.ID)
	}
	return ids
}

func TestEmptyIntegration(t *testing.T) {
	empty := EmptyIntegration()
	assert.Equal(t, "", empty.Name)
	assert.NotNil(t, empty.Tags)
	assert.Empty(t, empty.Tags)
	assert.Empty(t, empty.Flows)
}

func TestAddConnection(t *testing.T) {
	ctx := context.Background()
	helper, backend, _ := newTestHelper()
	conn := twitter()
	mention, _ := conn.ActionByID("twitter-mention")
	props := map[string]string{"query": "#golang"}

	backend.On("GetActionDescriptor", ctx, "conn-twitter", "twitter-mention", props).
		Return(descriptor(models.DataShapeNone, models.DataShapeJava), nil)

	empty := EmptyIntegration()
	updated, err := helper.AddConnection(ctx, empty, conn, mention, 0, 0, props)
	require.NoError(t, err)

	// input untouched
	assert.Empty(t, empty.Flows)
	assert.Empty(t, empty.Tags)

	require.Len(t, updated.Flows, 1)
	assert.NotEmpty(t, updated.Flows[0].ID)
	assert.Equal(t, "", updated.Flows[0].Name)

	step, err := GetStep(updated, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, models.StepKindEndpoint, step.StepKind)
	assert.NotEmpty(t, step.ID)
	assert.Equal(t, "conn-twitter", step.Connection.ID)
	require.NotNil(t, step.Action.Descriptor)
	assert.Equal(t, models.DataShapeJava, step.Action.Descriptor.OutputDataShape.Kind)
	assert.Equal(t, props, step.ConfiguredProperties)
	assert.Equal(t, []string{"conn-twitter"}, updated.Tags)

	// mutating the caller's map does not leak into the step
	props["query"] = "changed"
	assert.Equal(t, "#golang", updated.Flows[0].Steps[0].ConfiguredProperties["query"])

	backend.AssertExpectations(t)
}

func TestAddConnectionInsertsAtPosition(t *testing.T) {
	ctx := context.Background()
	helper, backend, _ := newTestHelper()
	conn := twitter()
	mention, _ := conn.ActionByID("twitter-mention")
	post, _ := conn.ActionByID("twitter-post")

	backend.On("GetActionDescriptor", ctx, "conn-twitter", mock.Anything, mock.Anything).
		Return(descriptor(models.DataShapeAny, models.DataShapeAny), nil)

	integration := EmptyIntegration()
	var err error
	integration, err = helper.AddConnection(ctx, integration, conn, mention, 0, 0, nil)
	require.NoError(t, err)
	integration, err = helper.AddConnection(ctx, integration, conn, mention, 0, 1, nil)
	require.NoError(t, err)

	before := integration
	inserted, err := helper.AddConnection(ctx, integration, conn, post, 0, 1, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"twitter-mention", "twitter-post", "twitter-mention"}, stepActions(t, inserted))
	assert.Equal(t, before.Flows[0].Steps[0].ID, inserted.Flows[0].Steps[0].ID)
	assert.Equal(t, before.Flows[0].Steps[1].ID, inserted.Flows[0].Steps[2].ID)

	// tags stay de-duplicated
	assert.Equal(t, []string{"conn-twitter"}, inserted.Tags)
	assert.Len(t, before.Flows[0].Steps, 2)
}

func TestAddConnectionLazilyCreatesNextFlow(t *testing.T) {
	ctx := context.Background()
	helper, backend, _ := newTestHelper()
	conn := twitter()
	mention, _ := conn.ActionByID("twitter-mention")

	backend.On("GetActionDescriptor", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(descriptor(models.DataShapeAny, models.DataShapeAny), nil)

	integration, err := helper.AddConnection(ctx, EmptyIntegration(), conn, mention, 0, 0, nil)
	require.NoError(t, err)

	integration, err = helper.AddConnection(ctx, integration, conn, mention, 1, 0, nil)
	require.NoError(t, err)
	require.Len(t, integration.Flows, 2)
	assert.NotEqual(t, integration.Flows[0].ID, integration.Flows[1].ID)
	assert.Equal(t, 1, FlowIndex(integration, integration.Flows[1].ID))
	assert.Equal(t, -1, FlowIndex(integration, "missing"))

	_, err = helper.AddConnection(ctx, integration, conn, mention, 3, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = helper.AddConnection(ctx, integration, conn, mention, -1, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = helper.AddConnection(ctx, integration, conn, mention, 0, 5, nil)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestAddConnectionFetchFailure(t *testing.T) {
	ctx := context.Background()
	helper, backend, _ := newTestHelper()
	conn := twitter()
	mention, _ := conn.ActionByID("twitter-mention")
	boom := errors.New("Internal Server Error")

	backend.On("GetActionDescriptor", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	original := EmptyIntegration()
	result, err := helper.AddConnection(ctx, original, conn, mention, 0, 0, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, original, result)

	_, err = helper.UpdateConnection(ctx, original, conn, mention, 0, 0, nil)
	assert.ErrorIs(t, err, boom)
}

func TestUpdateConnection(t *testing.T) {
	ctx := context.Background()
	helper, backend, _ := newTestHelper()
	conn := twitter()
	mention, _ := conn.ActionByID("twitter-mention")
	post, _ := conn.ActionByID("twitter-post")

	backend.On("GetActionDescriptor", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(descriptor(models.DataShapeAny, models.DataShapeAny), nil)

	integration, err := helper.AddConnection(ctx, EmptyIntegration(), conn, mention, 0, 0, nil)
	require.NoError(t, err)
	integration, err = helper.AddConnection(ctx, integration, conn, mention, 0, 1, nil)
	require.NoError(t, err)

	replaced, err := helper.UpdateConnection(ctx, integration, conn, post, 0, 1, map[string]string{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"twitter-mention", "twitter-post"}, stepActions(t, replaced))
	assert.Equal(t, integration.Flows[0].Steps[0], replaced.Flows[0].Steps[0])
	assert.Equal(t, "hi", replaced.Flows[0].Steps[1].ConfiguredProperties["text"])

	// input document untouched
	assert.Equal(t, []string{"twitter-mention", "twitter-mention"}, stepActions(t, integration))

	// position == len appends
	appended, err := helper.UpdateConnection(ctx, integration, conn, post, 0, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"twitter-mention", "twitter-mention", "twitter-post"}, stepActions(t, appended))

	_, err = helper.UpdateConnection(ctx, integration, conn, post, 0, 3, nil)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestAddUpdateRemoveStep(t *testing.T) {
	integration, err := AddStep(EmptyIntegration(), models.Step{StepKind: models.StepKindEndpoint, Name: "a"}, 0, 0)
	require.NoError(t, err)
	integration, err = AddStep(integration, models.Step{StepKind: models.StepKindEndpoint, Name: "c"}, 0, 1)
	require.NoError(t, err)
	integration, err = AddStep(integration, models.Step{StepKind: models.StepKindMapper, Name: "b"}, 0, 1)
	require.NoError(t, err)

	names := func(i models.Integration) []string {
		var out []string
		for _, s := range GetSteps(i, 0) {
			out = append(out, s.Name)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c"}, names(integration))
	for _, s := range integration.Flows[0].Steps {
		assert.NotEmpty(t, s.ID)
	}

	updated, err := UpdateStep(integration, models.Step{ID: "fixed", StepKind: models.StepKindMapper, Name: "B"}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "B", "c"}, names(updated))
	assert.Equal(t, "fixed", updated.Flows[0].Steps[1].ID)

	removed, err := RemoveStep(updated, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "c"}, names(removed))
	assert.Equal(t, []string{"a", "B", "c"}, names(updated))

	_, err = RemoveStep(updated, 0, 3)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = RemoveStep(updated, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestGetStep(t *testing.T) {
	integration, err := AddStep(EmptyIntegration(), models.Step{StepKind: models.StepKindEndpoint}, 0, 0)
	require.NoError(t, err)

	_, err = GetStep(integration, 0, 0)
	assert.NoError(t, err)

	for _, pos := range [][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}} {
		_, err := GetStep(integration, pos[0], pos[1])
		assert.ErrorIs(t, err, ErrStepNotFound)
	}

	_, err = GetStep(integration, 0, 4)
	assert.EqualError(t, err, "Can't find a step in position flow:0 step:4")

	assert.Empty(t, GetSteps(integration, 3))
}

func TestSetName(t *testing.T) {
	original := EmptyIntegration()
	named := SetName(original, "Twitter to Salesforce")
	assert.Equal(t, "Twitter to Salesforce", named.Name)
	assert.Equal(t, "", original.Name)
}

func TestSaveIntegration(t *testing.T) {
	ctx := context.Background()
	helper, backend, _ := newTestHelper()

	fresh := SetName(EmptyIntegration(), "new")
	created := fresh
	created.ID = "int-1"
	created.Version = 1
	backend.On("CreateIntegration", ctx, fresh).Return(created, nil).Once()

	saved, err := helper.SaveIntegration(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, "int-1", saved.ID)

	bumped := created
	bumped.Version = 2
	backend.On("UpdateIntegration", ctx, "int-1", created).Return(bumped, nil).Once()

	saved, err = helper.SaveIntegration(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)

	backend.On("UpdateIntegration", ctx, "int-2", mock.Anything).
		Return(models.Integration{}, errors.New("Not Found")).Once()
	_, err = helper.SaveIntegration(ctx, models.Integration{ID: "int-2"})
	assert.EqualError(t, err, "failed to update integration int-2: Not Found")

	backend.AssertExpectations(t)
}
