package redis

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/mongo-console/pkg/options/redis"
)

func newOptions(t *testing.T, mr *miniredis.Miniredis) *options.Options {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	opts := options.NewOptions()
	opts.Host = mr.Host()
	opts.Port = port
	return opts
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := New(ctx, newOptions(t, mr))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Client().Set(ctx, "k", "v", 0).Err())

	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := newOptions(t, mr)
	opts.MaxRetries = -1
	mr.Close()

	_, err := New(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping redis")
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(context.Background(), nil)
	require.Error(t, err)

	opts := options.NewOptions()
	opts.Port = 0
	_, err = New(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis options")
}
