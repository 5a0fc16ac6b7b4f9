package datasource

import (
	"context"

	"github.com/kart-io/mongo-console/pkg/component/mongodb"
	mongodbopts "github.com/kart-io/mongo-console/pkg/options/mongodb"
)

// MongoDialer opens MongoDB handles using a shared set of client defaults.
type MongoDialer struct {
	defaults *mongodbopts.Options
}

var _ Dialer = (*MongoDialer)(nil)

// NewMongoDialer creates a MongoDialer.
func NewMongoDialer(defaults *mongodbopts.Options) *MongoDialer {
	if defaults == nil {
		defaults = mongodbopts.NewOptions()
	}
	return &MongoDialer{defaults: defaults}
}

// Dial connects to uri and verifies the connection.
func (d *MongoDialer) Dial(ctx context.Context, _ string, uri string, options map[string]any) (Handle, error) {
	client, err := mongodb.Connect(ctx, uri, options, d.defaults)
	if err != nil {
		return nil, err
	}
	return client, nil
}
