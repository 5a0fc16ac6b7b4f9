package store

import (
	"context"
	"fmt"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kart-io/mongo-console/internal/model"
	"github.com/kart-io/mongo-console/pkg/component/etcd"
	etcdopts "github.com/kart-io/mongo-console/pkg/options/etcd"
	"github.com/kart-io/mongo-console/pkg/utils/json"
)

// EtcdStore keeps each descriptor under "<prefix>connections/<name>".
type EtcdStore struct {
	*memory

	client *etcd.Client
	prefix string
}

var _ Store = (*EtcdStore)(nil)

// NewEtcdStore connects to etcd.
func NewEtcdStore(ctx context.Context, opts *etcdopts.Options, prefix string) (*EtcdStore, error) {
	client, err := etcd.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &EtcdStore{
		memory: newMemory(),
		client: client,
		prefix: prefix + "connections/",
	}, nil
}

// Load reads every key under the prefix.
func (s *EtcdStore) Load(ctx context.Context) error {
	ctx, cancel := s.client.RequestContext(ctx)
	defer cancel()

	resp, err := s.client.Client().Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.prefix, err)
	}

	conns := make(map[string]*model.Connection, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		name := strings.TrimPrefix(string(kv.Key), s.prefix)
		c, err := decodeConnection(name, kv.Value)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", kv.Key, err)
		}
		conns[name] = c
	}
	s.replace(conns)
	return nil
}

// Save writes pending changes in one transaction.
func (s *EtcdStore) Save(ctx context.Context) error {
	upserts, deletes := s.pending()
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	ops := make([]clientv3.Op, 0, len(upserts)+len(deletes))
	for name, c := range upserts {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode connection %q: %w", name, err)
		}
		ops = append(ops, clientv3.OpPut(s.prefix+name, string(data)))
	}
	for _, name := range deletes {
		ops = append(ops, clientv3.OpDelete(s.prefix+name))
	}

	ctx, cancel := s.client.RequestContext(ctx)
	defer cancel()

	if _, err := s.client.Client().Txn(ctx).Then(ops...).Commit(); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.prefix, err)
	}

	s.markSaved(upserts, deletes)
	return nil
}

// Close closes the etcd client.
func (s *EtcdStore) Close() error {
	return s.client.Close()
}
