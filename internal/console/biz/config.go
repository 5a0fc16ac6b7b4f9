// Package biz implements connection configuration and status logic.
package biz

import (
	"context"
	"strings"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-console/internal/console/store"
	"github.com/kart-io/mongo-console/internal/model"
	"github.com/kart-io/mongo-console/pkg/component/mongodb"
	"github.com/kart-io/mongo-console/pkg/infra/datasource"
	"github.com/kart-io/mongo-console/pkg/infra/pool"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
	"github.com/kart-io/mongo-console/pkg/utils/json"
)

// Pool is the live connection set the synchronizer keeps in step with the
// store.
type Pool interface {
	Connect(ctx context.Context, name, uri string, options map[string]any) (datasource.Handle, error)
	Disconnect(ctx context.Context, name string) error
	Get(name string) (datasource.Handle, bool)
	Names() []string
	HealthCheckAll(ctx context.Context) map[string]datasource.HealthStatus
}

// AddRequest adds a new connection.
type AddRequest struct {
	Name             string
	ConnectionString string
	// Options is the JSON object of driver options. Empty means none.
	Options  string
	Username string
	Password string
}

// UpdateRequest replaces a connection, possibly under a new name.
type UpdateRequest struct {
	CurrentName      string
	NewName          string
	ConnectionString string
	Username         string
	Password         string
}

// PrivateRequest connects a templated connection with per-session
// credentials.
type PrivateRequest struct {
	CurrentName      string
	ConnectionString string
	Username         string
	Password         string
}

// Result identifies the connection an operation left in place.
// ConnectionString is the stored template, never the materialized string.
type Result struct {
	Name             string
	ConnectionString string
}

// Synchronizer applies configuration changes to the pool first and to the
// store second. Store writes are serialized.
type Synchronizer struct {
	pool    Pool
	store   store.Store
	workers *pool.Pool

	persistMu chan struct{}

	// dialed holds the fingerprint of the descriptor each pool entry was
	// opened from.
	dialedMu sync.Mutex
	dialed   map[string]string
}

// NewSynchronizer creates a Synchronizer. workers may be nil, in which case
// Restore connects sequentially.
func NewSynchronizer(p Pool, s store.Store, workers *pool.Pool) *Synchronizer {
	return &Synchronizer{
		pool:      p,
		store:     s,
		workers:   workers,
		persistMu: make(chan struct{}, 1),
		dialed:    make(map[string]string),
	}
}

// Exists reports whether a connection called name is stored.
func (s *Synchronizer) Exists(name string) bool {
	_, ok := s.store.Get(name)
	return ok
}

// AddConfig connects and stores a new connection.
func (s *Synchronizer) AddConfig(ctx context.Context, req AddRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.ErrBadRequest.WithMessage("connection name is required")
	}
	if _, exists := s.store.Get(req.Name); exists {
		return errors.ErrDuplicateName
	}

	opts, err := mongodb.ParseConnectionOptions(req.Options)
	if err != nil {
		return err
	}

	parsed, err := mongodb.Validate(req.ConnectionString, credentials(req.Username, req.Password))
	if err != nil {
		return err
	}

	if _, err := s.pool.Connect(ctx, req.Name, parsed.URI, opts); err != nil {
		return err
	}

	conn := &model.Connection{
		Name:              req.Name,
		ConnectionString:  req.ConnectionString,
		ConnectionOptions: opts,
	}
	s.markDialed(conn)

	return s.persist(ctx, "add", func() {
		s.store.Set(conn)
	})
}

// UpdateConfig reconnects CurrentName with a new connection string, storing
// it under NewName. A rename drops the old pool entry.
func (s *Synchronizer) UpdateConfig(ctx context.Context, req UpdateRequest) (*Result, error) {
	current, ok := s.store.Get(req.CurrentName)
	if !ok {
		return nil, errors.ErrNotFound.WithMessagef("connection %q not found", req.CurrentName)
	}

	newName := req.NewName
	if strings.TrimSpace(newName) == "" {
		newName = req.CurrentName
	}
	renamed := newName != req.CurrentName
	if renamed {
		if _, exists := s.store.Get(newName); exists {
			return nil, errors.ErrDuplicateName
		}
	}

	conn := &model.Connection{
		Name:              newName,
		ConnectionString:  req.ConnectionString,
		ConnectionOptions: current.ConnectionOptions,
	}
	if err := s.reconnect(ctx, conn, req.Username, req.Password); err != nil {
		return nil, err
	}

	err := s.persist(ctx, "update", func() {
		s.store.Delete(req.CurrentName)
		s.store.Set(conn)
	})

	if renamed {
		s.disconnect(ctx, req.CurrentName)
	}
	if err != nil {
		return nil, err
	}

	logger.Infow("Connection updated", "name", newName, "previous", req.CurrentName)
	return &Result{Name: newName, ConnectionString: req.ConnectionString}, nil
}

// DropConfig removes a connection from the store and the pool. Dropping an
// unknown name succeeds.
func (s *Synchronizer) DropConfig(ctx context.Context, name string) error {
	s.disconnect(ctx, name)
	return s.persist(ctx, "drop", func() {
		s.store.Delete(name)
	})
}

// ConnectPrivate connects CurrentName using credentials supplied for this
// session. Only the template is stored.
func (s *Synchronizer) ConnectPrivate(ctx context.Context, req PrivateRequest) (*Result, error) {
	current, ok := s.store.Get(req.CurrentName)
	if !ok {
		return nil, errors.ErrNotFound.WithMessagef("connection %q not found", req.CurrentName)
	}

	conn := &model.Connection{
		Name:              req.CurrentName,
		ConnectionString:  req.ConnectionString,
		ConnectionOptions: current.ConnectionOptions,
	}
	if err := s.reconnect(ctx, conn, req.Username, req.Password); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, "connect_private", func() {
		s.store.Set(conn)
	}); err != nil {
		return nil, err
	}

	return &Result{Name: req.CurrentName, ConnectionString: req.ConnectionString}, nil
}

// Restore connects every stored connection that is not yet in the pool and
// needs no credentials. Failures are logged and skipped. It returns the
// number of connections opened.
func (s *Synchronizer) Restore(ctx context.Context) int {
	return s.restore(ctx, nil)
}

// restore connects stored connections missing from the pool, plus the pooled
// ones named in stale, which are replaced in place.
func (s *Synchronizer) restore(ctx context.Context, stale map[string]struct{}) int {
	var pending []*model.Connection
	for _, conn := range s.store.List() {
		if _, ok := s.pool.Get(conn.Name); ok {
			if _, replace := stale[conn.Name]; !replace {
				continue
			}
		}
		if mongodb.HasPlaceholders(conn.ConnectionString) {
			logger.Infow("Skipping private connection until credentials are supplied", "name", conn.Name)
			continue
		}
		pending = append(pending, conn)
	}

	results := make(chan bool, len(pending))
	tasks := make([]func(context.Context), 0, len(pending))
	for _, conn := range pending {
		conn := conn
		tasks = append(tasks, func(ctx context.Context) {
			_, err := s.pool.Connect(ctx, conn.Name, conn.ConnectionString, conn.ConnectionOptions)
			if err != nil {
				logger.Warnw("Failed to restore connection",
					"name", conn.Name,
					"uri", mongodb.Redact(conn.ConnectionString),
					"error", errors.FromError(err).Reason(),
				)
			} else {
				s.markDialed(conn)
			}
			results <- err == nil
		})
	}

	if s.workers != nil {
		s.workers.Go(ctx, tasks...)
	} else {
		for _, task := range tasks {
			task(ctx)
		}
	}
	close(results)

	restored := 0
	for ok := range results {
		if ok {
			restored++
		}
	}
	logger.Infow("Connections restored", "restored", restored, "attempted", len(pending))
	return restored
}

// Reconcile brings the pool in line with the store after the store is
// reloaded from an external edit. Entries no longer stored are dropped,
// entries whose descriptor changed are reconnected, and new ones are
// restored. A changed private connection is dropped until credentials are
// supplied again. A failed reconnect keeps the previous handle.
func (s *Synchronizer) Reconcile(ctx context.Context) {
	stale := make(map[string]struct{})
	for _, name := range s.pool.Names() {
		conn, ok := s.store.Get(name)
		if !ok {
			s.disconnect(ctx, name)
			continue
		}

		dialed, known := s.dialedFingerprint(name)
		if !known || dialed == fingerprint(conn) {
			continue
		}
		if mongodb.HasPlaceholders(conn.ConnectionString) {
			logger.Infow("Private connection changed, dropping until credentials are supplied", "name", name)
			s.disconnect(ctx, name)
			continue
		}
		logger.Infow("Connection changed, reconnecting", "name", name, "uri", mongodb.Redact(conn.ConnectionString))
		stale[name] = struct{}{}
	}
	s.restore(ctx, stale)
}

func (s *Synchronizer) reconnect(ctx context.Context, conn *model.Connection, username, password string) error {
	parsed, err := mongodb.Validate(conn.ConnectionString, credentials(username, password))
	if err != nil {
		return err
	}
	if _, err := s.pool.Connect(ctx, conn.Name, parsed.URI, conn.ConnectionOptions); err != nil {
		return err
	}
	s.markDialed(conn)
	return nil
}

func (s *Synchronizer) disconnect(ctx context.Context, name string) {
	s.dialedMu.Lock()
	delete(s.dialed, name)
	s.dialedMu.Unlock()

	if err := s.pool.Disconnect(ctx, name); err != nil && !errors.IsCode(err, errors.ErrNotFound.Code) {
		logger.Warnw("Failed to disconnect", "name", name, "error", err)
	}
}

func (s *Synchronizer) markDialed(conn *model.Connection) {
	fp := fingerprint(conn)

	s.dialedMu.Lock()
	defer s.dialedMu.Unlock()
	s.dialed[conn.Name] = fp
}

func (s *Synchronizer) dialedFingerprint(name string) (string, bool) {
	s.dialedMu.Lock()
	defer s.dialedMu.Unlock()

	fp, ok := s.dialed[name]
	return fp, ok
}

// fingerprint identifies the stored form of a descriptor. Map keys are
// encoded in sorted order, so equal descriptors give equal fingerprints.
func fingerprint(conn *model.Connection) string {
	opts := conn.ConnectionOptions
	if opts == nil {
		opts = map[string]any{}
	}
	data, err := json.Marshal(&model.Connection{
		ConnectionString:  conn.ConnectionString,
		ConnectionOptions: opts,
	})
	if err != nil {
		return conn.ConnectionString
	}
	return string(data)
}

// persist applies mutate to the store and saves it. The pool has already
// changed by the time persist runs and is not rolled back on failure.
func (s *Synchronizer) persist(ctx context.Context, op string, mutate func()) error {
	select {
	case s.persistMu <- struct{}{}:
	case <-ctx.Done():
		return errors.ErrPersist.WithCause(ctx.Err())
	}
	defer func() { <-s.persistMu }()

	mutate()
	if err := s.store.Save(ctx); err != nil {
		logger.Warnw("Connection config not saved, pool keeps the new state",
			"operation", op,
			"error", err,
		)
		return errors.ErrPersist.WithCause(err)
	}
	return nil
}

func credentials(username, password string) *mongodb.Credentials {
	return &mongodb.Credentials{Username: username, Password: password}
}
