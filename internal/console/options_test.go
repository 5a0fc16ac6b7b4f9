package console

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

func TestOptionsDefaultsAreValid(t *testing.T) {
	opts := NewOptions()
	require.NoError(t, opts.Complete())
	assert.NoError(t, opts.Validate())
}

func TestOptionsValidateAggregates(t *testing.T) {
	opts := NewOptions()
	opts.HTTP.Addr = ""
	opts.Store.Type = "sqlite"
	opts.Pool.Capacity = 0

	err := opts.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.addr")
	assert.Contains(t, err.Error(), "store")
	assert.Contains(t, err.Error(), "pool")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidConfig.Code))
}

func TestFlagsCoverEveryGroup(t *testing.T) {
	fss := NewOptions().Flags()
	assert.Equal(t, []string{"log", "http", "mongo", "store", "pool"}, fss.Order)

	for _, name := range []string{"http.addr", "mongo.connect-timeout", "store.type", "store.redis.host", "store.etcd.endpoints", "pool.capacity"} {
		found := false
		for _, fs := range fss.FlagSets {
			if fs.Lookup(name) != nil {
				found = true
			}
		}
		assert.True(t, found, name)
	}
}

func TestRunStopsWhenContextDone(t *testing.T) {
	opts := NewOptions()
	opts.HTTP.Addr = "127.0.0.1:0"
	opts.HTTP.Mode = gin.TestMode
	opts.Store.Path = filepath.Join(t.TempDir(), "config.json")
	opts.Store.Watch = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, Run(ctx, opts))
}
