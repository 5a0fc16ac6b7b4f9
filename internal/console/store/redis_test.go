package store

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/mongo-console/internal/model"
	redisopts "github.com/kart-io/mongo-console/pkg/options/redis"
	storeopts "github.com/kart-io/mongo-console/pkg/options/store"
)

func newRedisOptions(t *testing.T, mr *miniredis.Miniredis) *redisopts.Options {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	opts := redisopts.NewOptions()
	opts.Host = mr.Host()
	opts.Port = port
	return opts
}

func TestRedisStoreSaveAndLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedisStore(ctx, newRedisOptions(t, mr), "test/")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Load(ctx))

	s.Set(&model.Connection{
		Name:              "Local",
		ConnectionString:  "mongodb://127.0.0.1",
		ConnectionOptions: map[string]any{"appName": "console"},
	})
	s.Set(&model.Connection{Name: "Gone", ConnectionString: "mongodb://gone"})
	require.NoError(t, s.Save(ctx))

	keys, err := mr.HKeys("test/connections")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Local", "Gone"}, keys)
	assert.JSONEq(t,
		`{"connection_string":"mongodb://127.0.0.1","connection_options":{"appName":"console"}}`,
		mr.HGet("test/connections", "Local"))

	s.Delete("Gone")
	require.NoError(t, s.Save(ctx))
	keys, err = mr.HKeys("test/connections")
	require.NoError(t, err)
	assert.Equal(t, []string{"Local"}, keys)

	reloaded, err := NewRedisStore(ctx, newRedisOptions(t, mr), "test/")
	require.NoError(t, err)
	defer reloaded.Close()
	require.NoError(t, reloaded.Load(ctx))

	c, ok := reloaded.Get("Local")
	require.True(t, ok)
	assert.Equal(t, "console", c.ConnectionOptions["appName"])
}

func TestRedisStoreSaveWithoutChangesIsNoOp(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedisStore(ctx, newRedisOptions(t, mr), "")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx))
	assert.False(t, mr.Exists("connections"))
}

func TestRedisStoreLoadRejectsCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.HSet("connections", "Bad", "{not json")
	ctx := context.Background()

	s, err := NewRedisStore(ctx, newRedisOptions(t, mr), "")
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Load(ctx))
}

func TestNewSelectsRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.HSet("mc/connections", "Local", `{"connection_string":"mongodb://127.0.0.1","connection_options":{}}`)

	opts := storeopts.NewOptions()
	opts.Type = storeopts.TypeRedis
	opts.Prefix = "mc/"
	opts.Redis = newRedisOptions(t, mr)

	s, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.(*RedisStore)
	assert.True(t, ok)
	_, ok = s.Get("Local")
	assert.True(t, ok)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	opts := storeopts.NewOptions()
	opts.Type = "sqlite"
	_, err := New(context.Background(), opts)
	assert.Error(t, err)
}
