package biz

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/mongo-console/internal/model"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

func TestStatusList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sync.AddConfig(ctx, AddRequest{Name: "b", ConnectionString: "mongodb://user:pw@b"}))
	f.store.Set(&model.Connection{Name: "a", ConnectionString: "mongodb://{USERNAME}:{PASSWORD}@a"})

	svc := NewStatusService(f.pool, f.store, time.Second)
	list := svc.List()
	require.Len(t, list, 2)

	assert.Equal(t, "a", list[0].Name)
	assert.True(t, list[0].Private)
	assert.False(t, list[0].Connected)

	assert.Equal(t, "b", list[1].Name)
	assert.Equal(t, "mongodb://user:xxxxxx@b", list[1].ConnectionString)
	assert.True(t, list[1].Connected)
}

func TestStatusFallsBackToPing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sync.AddConfig(ctx, AddRequest{Name: "a", ConnectionString: "mongodb://a"}))

	svc := NewStatusService(f.pool, f.store, time.Second)

	status, err := svc.Status(ctx, "a")
	require.NoError(t, err)
	assert.True(t, status.Reachable)
	assert.Empty(t, status.Stats)

	h, err := f.dialer.Last()
	require.NoError(t, err)
	h.FailPing(fmt.Errorf("down"))

	status, err = svc.Status(ctx, "a")
	require.NoError(t, err)
	assert.False(t, status.Reachable)

	_, err = svc.Status(ctx, "missing")
	assert.True(t, errors.IsCode(err, errors.ErrNotFound.Code))
}

func TestStatusHealth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sync.AddConfig(ctx, AddRequest{Name: "up", ConnectionString: "mongodb://up"}))
	require.NoError(t, f.sync.AddConfig(ctx, AddRequest{Name: "down", ConnectionString: "mongodb://down"}))

	for _, h := range f.dialer.Handles() {
		if h.Name == "down" {
			h.FailPing(fmt.Errorf("connection reset"))
		}
	}

	summary := NewStatusService(f.pool, f.store, time.Second).Health(ctx)
	assert.False(t, summary.Healthy)
	require.Len(t, summary.Connections, 2)
	assert.Equal(t, "down", summary.Connections[0].Name)
	assert.Equal(t, "connection reset", summary.Connections[0].Error)
	assert.True(t, summary.Connections[1].Healthy)
}
