package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/integrator/pkg/models"
)

// testProvider exercises the typed stores of a provider
func testProvider(t *testing.T, provider StorageProvider) {
	t.Helper()
	require.NoError(t, provider.Initialize())
	ctx := context.Background()

	t.Run("Integrations", func(t *testing.T) {
		store := provider.GetIntegrationStore()

		_, err := store.GetIntegration(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		err = store.SaveIntegration(ctx, models.Integration{Name: "no id"})
		assert.ErrorIs(t, err, ErrMissingID)

		second := models.Integration{ID: "int-2", Name: "Second", Tags: []string{"conn-b"}}
		first := models.Integration{
			ID:   "int-1",
			Name: "First",
			Tags: []string{"conn-a"},
			Flows: []models.Flow{{
				ID:    "flow-1",
				Steps: []models.Step{{ID: "step-1", StepKind: models.StepKindEndpoint}},
			}},
		}
		require.NoError(t, store.SaveIntegration(ctx, second))
		require.NoError(t, store.SaveIntegration(ctx, first))

		got, err := store.GetIntegration(ctx, "int-1")
		require.NoError(t, err)
		assert.Equal(t, "First", got.Name)
		require.Len(t, got.Flows, 1)
		assert.Equal(t, "step-1", got.Flows[0].Steps[0].ID)

		first.Name = "Renamed"
		require.NoError(t, store.SaveIntegration(ctx, first))
		got, err = store.GetIntegration(ctx, "int-1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)

		list, err := store.ListIntegrations(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "int-1", list[0].ID)
		assert.Equal(t, "int-2", list[1].ID)

		require.NoError(t, store.DeleteIntegration(ctx, "int-2"))
		assert.ErrorIs(t, store.DeleteIntegration(ctx, "int-2"), ErrNotFound)

		list, err = store.ListIntegrations(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("Connections", func(t *testing.T) {
		store := provider.GetConnectionStore()

		conn := models.Connection{ID: "conn-1", Name: "Twitter", ConnectorID: "twitter"}
		require.NoError(t, store.SaveConnection(ctx, conn))

		got, err := store.GetConnection(ctx, "conn-1")
		require.NoError(t, err)
		assert.Equal(t, "Twitter", got.Name)

		list, err := store.ListConnections(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, store.DeleteConnection(ctx, "conn-1"))
		_, err = store.GetConnection(ctx, "conn-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Drafts", func(t *testing.T) {
		store := provider.GetDraftStore()

		_, err := store.GetDraft(ctx, "iec-missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.SaveDraft(ctx, "", []byte("{}")), ErrMissingID)

		require.NoError(t, store.SaveDraft(ctx, "iec-b", []byte(`{"name":"b"}`)))
		require.NoError(t, store.SaveDraft(ctx, "iec-a", []byte(`{"name":"a"}`)))

		data, err := store.GetDraft(ctx, "iec-a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"a"}`, string(data))

		infos, err := store.ListDrafts(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "iec-a", infos[0].Key)
		assert.Equal(t, len(`{"name":"a"}`), infos[0].Size)
		assert.False(t, infos[0].UpdatedAt.IsZero())

		pruned, err := store.PruneDrafts(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, pruned)

		require.NoError(t, store.DeleteDraft(ctx, "iec-b"))
		assert.ErrorIs(t, store.DeleteDraft(ctx, "iec-b"), ErrNotFound)

		pruned, err = store.PruneDrafts(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, pruned)

		infos, err = store.ListDrafts(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	require.NoError(t, provider.Close())
}

func TestMemoryProvider(t *testing.T) {
	testProvider(t, NewMemoryProvider())
}

func TestFileProvider(t *testing.T) {
	testProvider(t, NewFileProviderWithFs(afero.NewMemMapFs(), "/var/lib/integrator"))
}

func TestFileProviderEscapesIDs(t *testing.T) {
	fs := afero.NewMemMapFs()
	provider := NewFileProviderWithFs(fs, "/data")
	require.NoError(t, provider.Initialize())
	ctx := context.Background()

	drafts := provider.GetDraftStore()
	require.NoError(t, drafts.SaveDraft(ctx, "iec-a/b", []byte("{}")))

	exists, err := afero.Exists(fs, "/data/drafts/iec-a%2Fb.json")
	require.NoError(t, err)
	assert.True(t, exists)

	infos, err := drafts.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "iec-a/b", infos[0].Key)
}

func TestRedisProvider(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	testProvider(t, NewRedisProviderWithClient(client, "integrator:"))
}

func TestRedisProviderKeyPrefix(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	provider := NewRedisProviderWithClient(client, "test:")
	require.NoError(t, provider.GetDraftStore().SaveDraft(context.Background(), "iec-1", []byte("{}")))

	assert.True(t, server.Exists("test:drafts"))
	keys, err := server.HKeys("test:drafts")
	require.NoError(t, err)
	assert.Equal(t, []string{"iec-1"}, keys)
}

func TestRedisProviderUnreachable(t *testing.T) {
	provider, err := NewRedisProvider(RedisProviderConfig{Addr: "127.0.0.1:1"})
	require.NoError(t, err)
	defer provider.Close()

	assert.Error(t, provider.Initialize())
}

func TestDynamoDBProvider(t *testing.T) {
	mock := NewMockDynamoDBAPI()
	mock.PageSize = 1

	testProvider(t, NewDynamoDBProviderWithClient(mock, "test_"))

	// Initialize is idempotent once the table exists
	provider := NewDynamoDBProviderWithClient(mock, "test_")
	assert.NoError(t, provider.Initialize())
}
