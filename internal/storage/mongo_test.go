package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestMongo(t *testing.T) *Mongo {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(ctx) })

	return NewMongo(db)
}

func TestMongo_RoundTrip(t *testing.T) {
	store := setupTestMongo(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "akkaui_cart_v1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "akkaui_cart_v1", "[]"))
	require.NoError(t, store.Set(ctx, "akkaui_cart_v1", `[{"id":"a"}]`))

	v, err := store.Get(ctx, "akkaui_cart_v1")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, v)

	require.NoError(t, store.Delete(ctx, "akkaui_cart_v1"))
	_, err = store.Get(ctx, "akkaui_cart_v1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "akkaui_cart_v1"))
}
