package mongodb

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	mongodbopts "github.com/kart-io/mongo-console/pkg/options/mongodb"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

const (
	testImage    = "mongo:7.0"
	testUser     = "root"
	testPassword = "example"
)

var (
	sharedAddr     string
	sharedAddrOnce sync.Once
	sharedAddrErr  error
)

// mongoAddr starts one MongoDB container per test run and returns host:port.
func mongoAddr(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedAddrOnce.Do(func() {
		sharedAddr, sharedAddrErr = startMongo()
	})
	if sharedAddrErr != nil {
		t.Fatalf("Failed to start mongodb container: %v", sharedAddrErr)
	}
	return sharedAddr
}

func startMongo() (string, error) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImage,
			ExposedPorts: []string{"27017/tcp"},
			Env: map[string]string{
				"MONGO_INITDB_ROOT_USERNAME": testUser,
				"MONGO_INITDB_ROOT_PASSWORD": testPassword,
			},
			WaitingFor: wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		return "", fmt.Errorf("failed to get container port: %w", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func testDefaults() *mongodbopts.Options {
	opts := mongodbopts.NewOptions()
	opts.ConnectTimeout = 15 * time.Second
	opts.ServerSelectionTimeout = 15 * time.Second
	return opts
}

func TestConnectAndProbe(t *testing.T) {
	addr := mongoAddr(t)
	ctx := context.Background()

	tmpl := "mongodb://{USERNAME}:{PASSWORD}@" + addr + "/admin"
	parsed, err := Validate(tmpl, &Credentials{Username: testUser, Password: testPassword})
	require.NoError(t, err)

	client, err := Connect(ctx, parsed.URI, map[string]any{"poolSize": float64(5)}, testDefaults())
	require.NoError(t, err)
	defer func() { assert.NoError(t, client.Close(ctx)) }()

	require.NoError(t, client.Ping(ctx))
	assert.Equal(t, "admin", client.Database())

	status := Probe(ctx, client, client.Database(), 5*time.Second)
	assert.True(t, status.Reachable)
	assert.Contains(t, status.Stats, "serverStatus")
	assert.Contains(t, status.Stats["databases"], "admin")
}

func TestConnectWrongCredentials(t *testing.T) {
	addr := mongoAddr(t)

	uri := Materialize("mongodb://{USERNAME}:{PASSWORD}@"+addr, &Credentials{Username: testUser, Password: "wrong"})
	_, err := Connect(context.Background(), uri, nil, testDefaults())

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConnect.Code))
	assert.Contains(t, errors.FromError(err).Reason(), "auth")
}

func TestConnectUnreachableTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping network test in short mode")
	}

	opts := mongodbopts.NewOptions()
	opts.ConnectTimeout = 300 * time.Millisecond
	opts.ServerSelectionTimeout = 5 * time.Second

	start := time.Now()
	_, err := Connect(context.Background(), "mongodb://127.0.0.1:1/?connectTimeoutMS=100", nil, opts)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConnectTimeout.Code))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestConnectRejectsInvalidURI(t *testing.T) {
	_, err := Connect(context.Background(), "localhost:27017", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidURI.Code))
}
