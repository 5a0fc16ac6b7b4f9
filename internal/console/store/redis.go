package store

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/mongo-console/internal/model"
	"github.com/kart-io/mongo-console/pkg/component/redis"
	redisopts "github.com/kart-io/mongo-console/pkg/options/redis"
	"github.com/kart-io/mongo-console/pkg/utils/json"
)

// RedisStore keeps descriptors in one Redis hash, one field per connection.
type RedisStore struct {
	*memory

	client *redis.Client
	key    string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis. Descriptors live in the hash
// "<prefix>connections".
func NewRedisStore(ctx context.Context, opts *redisopts.Options, prefix string) (*RedisStore, error) {
	client, err := redis.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	return newRedisStore(client, prefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		memory: newMemory(),
		client: client,
		key:    prefix + "connections",
	}
}

// Load reads every field of the hash.
func (s *RedisStore) Load(ctx context.Context) error {
	fields, err := s.client.Client().HGetAll(ctx, s.key).Result()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.key, err)
	}

	conns := make(map[string]*model.Connection, len(fields))
	for name, raw := range fields {
		c, err := decodeConnection(name, []byte(raw))
		if err != nil {
			return fmt.Errorf("failed to decode %s[%s]: %w", s.key, name, err)
		}
		conns[name] = c
	}
	s.replace(conns)
	return nil
}

// Save writes pending changes in one MULTI/EXEC transaction.
func (s *RedisStore) Save(ctx context.Context) error {
	upserts, deletes := s.pending()
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	values := make(map[string]any, len(upserts))
	for name, c := range upserts {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode connection %q: %w", name, err)
		}
		values[name] = string(data)
	}

	_, err := s.client.Client().TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, s.key, values)
		}
		if len(deletes) > 0 {
			pipe.HDel(ctx, s.key, deletes...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", s.key, err)
	}

	s.markSaved(upserts, deletes)
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeConnection(name string, data []byte) (*model.Connection, error) {
	var c model.Connection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.Name = name
	if c.ConnectionOptions == nil {
		c.ConnectionOptions = map[string]any{}
	}
	return &c, nil
}
