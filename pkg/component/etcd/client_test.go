package etcd

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/mongo-console/pkg/options/etcd"
)

// testEndpoints returns ETCD_ENDPOINTS or skips the test.
func testEndpoints(t *testing.T) []string {
	t.Helper()
	raw := os.Getenv("ETCD_ENDPOINTS")
	if raw == "" || testing.Short() {
		t.Skip("Skipping etcd integration test (set ETCD_ENDPOINTS)")
	}
	return strings.Split(raw, ",")
}

func TestNew(t *testing.T) {
	opts := options.NewOptions()
	opts.Endpoints = testEndpoints(t)
	ctx := context.Background()

	client, err := New(ctx, opts)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(ctx))
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(context.Background(), nil)
	require.Error(t, err)

	opts := options.NewOptions()
	opts.Endpoints = nil
	_, err = New(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid etcd options")
}
