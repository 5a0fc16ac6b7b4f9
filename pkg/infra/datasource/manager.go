// Package datasource keeps the set of live database connections the console
// has opened, keyed by connection name.
//
// The Manager never dials while holding its lock. A Connect for a name that
// is already present swaps the new handle in and then closes the old one, so
// readers calling Get always observe either the old or the new handle.
//
//	mgr := datasource.NewManager(datasource.NewMongoDialer(mongoOpts))
//	defer mgr.CloseAll(ctx)
//
//	if _, err := mgr.Connect(ctx, "Local", "mongodb://127.0.0.1", nil); err != nil {
//	    return err
//	}
//	h, ok := mgr.Get("Local")
package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/mongo-console/pkg/infra/pool"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

// Handle is a live connection held by the Manager.
type Handle interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialer opens handles. Implementations must honour ctx and release any
// partially opened resources on failure.
type Dialer interface {
	Dial(ctx context.Context, name, uri string, options map[string]any) (Handle, error)
}

// HealthStatus is the result of pinging one handle.
type HealthStatus struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Error   error         `json:"-"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithWorkerPool runs health checks on the given worker pool.
func WithWorkerPool(p *pool.Pool) Option {
	return func(m *Manager) {
		m.workers = p
	}
}

// WithCloseTimeout bounds closing a replaced or removed handle.
func WithCloseTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.closeTimeout = d
	}
}

// Manager maps connection names to live handles.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]Handle

	dialer       Dialer
	workers      *pool.Pool
	closeTimeout time.Duration
}

// NewManager creates a Manager that opens handles through dialer.
func NewManager(dialer Dialer, opts ...Option) *Manager {
	m := &Manager{
		entries:      make(map[string]Handle),
		dialer:       dialer,
		closeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect dials uri and stores the handle under name, replacing and closing
// any previous handle for that name. On failure the Manager is unchanged.
func (m *Manager) Connect(ctx context.Context, name, uri string, options map[string]any) (Handle, error) {
	handle, err := m.dialer.Dial(ctx, name, uri, options)
	if err != nil {
		logger.Warnw("Connection failed", "name", name, "error", err)
		if errors.GetCode(err) == -1 {
			return nil, errors.ErrConnect.WithCause(err)
		}
		return nil, err
	}

	m.mu.Lock()
	old, replaced := m.entries[name]
	m.entries[name] = handle
	m.mu.Unlock()

	if replaced {
		m.closeHandle(name, old)
	}

	logger.Infow("Connection established", "name", name, "replaced", replaced)
	return handle, nil
}

// Disconnect removes and closes the handle for name. Close failures are
// logged, not returned. It returns ErrNotFound when name is not present.
func (m *Manager) Disconnect(_ context.Context, name string) error {
	m.mu.Lock()
	handle, ok := m.entries[name]
	delete(m.entries, name)
	m.mu.Unlock()

	if !ok {
		return errors.ErrNotFound.WithMessagef("connection %q is not connected", name)
	}

	m.closeHandle(name, handle)
	logger.Infow("Connection removed", "name", name)
	return nil
}

// Get returns the handle for name.
func (m *Manager) Get(name string) (Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.entries[name]
	return h, ok
}

// Names returns the connected names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of connected names.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// HealthCheckAll pings every handle in parallel.
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]HealthStatus {
	snapshot := m.snapshot()

	results := make(map[string]HealthStatus, len(snapshot))
	var resultsMu sync.Mutex

	tasks := make([]func(context.Context), 0, len(snapshot))
	for name, handle := range snapshot {
		name, handle := name, handle
		tasks = append(tasks, func(ctx context.Context) {
			start := time.Now()
			err := handle.Ping(ctx)

			resultsMu.Lock()
			results[name] = HealthStatus{
				Name:    name,
				Healthy: err == nil,
				Latency: time.Since(start),
				Error:   err,
			}
			resultsMu.Unlock()
		})
	}

	if m.workers != nil {
		m.workers.Go(ctx, tasks...)
		return results
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task func(context.Context)) {
			defer wg.Done()
			task(ctx)
		}(task)
	}
	wg.Wait()
	return results
}

// IsHealthy returns true if every handle answers a ping.
func (m *Manager) IsHealthy(ctx context.Context) bool {
	for _, status := range m.HealthCheckAll(ctx) {
		if !status.Healthy {
			return false
		}
	}
	return true
}

// CloseAll removes and closes every handle.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]Handle)
	m.mu.Unlock()

	var errs []error
	for name, handle := range entries {
		if err := handle.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection %q: %w", name, err))
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (m *Manager) snapshot() map[string]Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Handle, len(m.entries))
	for name, h := range m.entries {
		out[name] = h
	}
	return out
}

func (m *Manager) closeHandle(name string, h Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), m.closeTimeout)
	defer cancel()

	if err := h.Close(ctx); err != nil {
		logger.Warnw("Failed to close connection", "name", name, "error", err)
	}
}
