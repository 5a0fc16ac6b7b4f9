package mongodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	mongodbopts "github.com/kart-io/mongo-console/pkg/options/mongodb"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

// Client wraps a connected mongo.Client together with the database named in
// its connection string.
type Client struct {
	client   *mongo.Client
	database string
}

var _ StatusSource = (*Client)(nil)

// Connect opens a client for uri and verifies it with a ping, all within
// defaults.ConnectTimeout. Connection options override defaults. On failure
// the client is disconnected and the error is ErrConnect, ErrConnectTimeout
// or ErrInvalidOptions.
func Connect(ctx context.Context, uri string, connOpts map[string]any, defaults *mongodbopts.Options) (*Client, error) {
	if defaults == nil {
		defaults = mongodbopts.NewOptions()
	}

	parsed, err := Validate(uri, nil)
	if err != nil {
		return nil, err
	}

	clientOpts, err := buildClientOptions(parsed.URI, connOpts, defaults)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, connectError(ctx, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, connectError(ctx, err)
	}

	return &Client{
		client:   client,
		database: parsed.Database,
	}, nil
}

func buildClientOptions(uri string, connOpts map[string]any, defaults *mongodbopts.Options) (*mongoopts.ClientOptions, error) {
	clientOpts := mongoopts.Client()

	if defaults.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(defaults.MaxPoolSize)
	}
	if defaults.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(defaults.MinPoolSize)
	}
	if defaults.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(defaults.MaxConnIdleTime)
	}
	if defaults.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(defaults.ConnectTimeout)
	}
	if defaults.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(defaults.ServerSelectionTimeout)
	}
	if defaults.AppName != "" {
		clientOpts.SetAppName(defaults.AppName)
	}

	// URI settings win over defaults, connection options win over both.
	clientOpts.ApplyURI(uri)
	if err := ApplyConnectionOptions(clientOpts, connOpts); err != nil {
		return nil, err
	}
	if err := clientOpts.Validate(); err != nil {
		return nil, errors.ErrInvalidOptions.WithCause(err)
	}
	return clientOpts, nil
}

func connectError(ctx context.Context, err error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return errors.ErrConnectTimeout.WithCause(err)
	}
	return errors.ErrConnect.WithCause(err)
}

// Ping checks if the connection to MongoDB is alive.
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("client is nil")
	}
	return c.client.Ping(ctx, nil)
}

// Close disconnects the client. It is safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	if stderrors.Is(err, mongo.ErrClientDisconnected) {
		return nil
	}
	return err
}

// Database returns the database named in the connection string, if any.
func (c *Client) Database() string {
	return c.database
}

// ServerStatus runs the serverStatus command against admin.
func (c *Client) ServerStatus(ctx context.Context) (bson.M, error) {
	var status bson.M
	err := c.client.Database("admin").
		RunCommand(ctx, bson.D{{Key: "serverStatus", Value: 1}}).
		Decode(&status)
	return status, err
}

// DatabaseStats runs dbStats against the named database.
func (c *Client) DatabaseStats(ctx context.Context, name string) (bson.M, error) {
	var stats bson.M
	err := c.client.Database(name).
		RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).
		Decode(&stats)
	return stats, err
}

// DatabaseNames lists the databases visible to the connected user.
func (c *Client) DatabaseNames(ctx context.Context) ([]string, error) {
	return c.client.ListDatabaseNames(ctx, bson.D{})
}
