// Package store persists connection descriptors.
//
// Every backend keeps the full set of descriptors in memory. Set and Delete
// only touch memory; Save writes the pending changes to the backend.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/kart-io/mongo-console/internal/model"
	storeopts "github.com/kart-io/mongo-console/pkg/options/store"
)

// Store is the persisted descriptor store.
type Store interface {
	// Load replaces the in-memory descriptors with the persisted ones.
	Load(ctx context.Context) error
	Get(name string) (*model.Connection, bool)
	Set(conn *model.Connection)
	Delete(name string)
	// List returns every descriptor ordered by name.
	List() []*model.Connection
	// Save persists the changes made since the last Load or Save.
	Save(ctx context.Context) error
	Close() error
}

// Watcher is implemented by stores that can report external edits.
type Watcher interface {
	// Watch calls onChange after the store reloads an external edit, until
	// ctx is done.
	Watch(ctx context.Context, onChange func()) error
}

// New creates the backend selected by opts and loads it.
func New(ctx context.Context, opts *storeopts.Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Type {
	case storeopts.TypeFile:
		s = NewFileStore(opts.Path)
	case storeopts.TypeRedis:
		s, err = NewRedisStore(ctx, opts.Redis, opts.Prefix)
	case storeopts.TypeEtcd:
		s, err = NewEtcdStore(ctx, opts.Etcd, opts.Prefix)
	default:
		return nil, fmt.Errorf("unsupported store type %q", opts.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Load(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to load %s store: %w", opts.Type, err)
	}
	return s, nil
}

// memory is the in-memory state shared by every backend. dirty records
// names changed since the last sync with the backend.
type memory struct {
	mu    sync.RWMutex
	conns map[string]*model.Connection
	dirty map[string]struct{}
}

func newMemory() *memory {
	return &memory{
		conns: make(map[string]*model.Connection),
		dirty: make(map[string]struct{}),
	}
}

func (m *memory) Get(name string) (*model.Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conns[name]
	return c.Clone(), ok
}

func (m *memory) Set(conn *model.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := conn.Clone()
	if c.ConnectionOptions == nil {
		c.ConnectionOptions = map[string]any{}
	}
	m.conns[c.Name] = c
	m.dirty[c.Name] = struct{}{}
}

func (m *memory) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.conns, name)
	m.dirty[name] = struct{}{}
}

func (m *memory) List() []*model.Connection {
	m.mu.RLock()
	out := make([]*model.Connection, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c.Clone())
	}
	m.mu.RUnlock()

	model.SortConnections(out)
	return out
}

// replace swaps in a freshly loaded set and clears pending changes.
func (m *memory) replace(conns map[string]*model.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conns = conns
	m.dirty = make(map[string]struct{})
}

// pending returns the changed descriptors to write and the names to remove.
func (m *memory) pending() (upserts map[string]*model.Connection, deletes []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	upserts = make(map[string]*model.Connection)
	for name := range m.dirty {
		if c, ok := m.conns[name]; ok {
			upserts[name] = c.Clone()
		} else {
			deletes = append(deletes, name)
		}
	}
	return upserts, deletes
}

// snapshot returns a copy of every descriptor.
func (m *memory) snapshot() map[string]*model.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*model.Connection, len(m.conns))
	for name, c := range m.conns {
		out[name] = c.Clone()
	}
	return out
}

// markSaved clears the pending changes that were just written. Names changed
// again while the write was in flight stay pending.
func (m *memory) markSaved(upserts map[string]*model.Connection, deletes []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, written := range upserts {
		if cur, ok := m.conns[name]; ok && sameConnection(cur, written) {
			delete(m.dirty, name)
		}
	}
	for _, name := range deletes {
		if _, ok := m.conns[name]; !ok {
			delete(m.dirty, name)
		}
	}
}

func sameConnection(a, b *model.Connection) bool {
	if a.ConnectionString != b.ConnectionString || len(a.ConnectionOptions) != len(b.ConnectionOptions) {
		return false
	}
	for k, v := range a.ConnectionOptions {
		if bv, ok := b.ConnectionOptions[k]; !ok || fmt.Sprint(bv) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}
