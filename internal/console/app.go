// Package console assembles the mongo-console server.
package console

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-console/internal/console/biz"
	"github.com/kart-io/mongo-console/internal/console/handler"
	"github.com/kart-io/mongo-console/internal/console/router"
	"github.com/kart-io/mongo-console/internal/console/store"
	"github.com/kart-io/mongo-console/pkg/infra/app"
	"github.com/kart-io/mongo-console/pkg/infra/datasource"
	"github.com/kart-io/mongo-console/pkg/infra/pool"
	"github.com/kart-io/mongo-console/pkg/infra/server"
)

const (
	appName        = "mongo-console"
	appDescription = `mongo-console manages MongoDB connection configurations.

It keeps a named pool of live MongoDB clients in step with a persisted set
of connection descriptors and exposes them over HTTP.

Examples:
  # Start with default configuration
  mongo-console

  # Keep descriptors in redis
  mongo-console --store.type=redis --store.redis.host=127.0.0.1

  # Use config file
  mongo-console -c /etc/mongo-console/mongo-console.yaml

Configuration:
  Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (prefix: MONGO_CONSOLE_)
  - Configuration file (YAML)
  - Default values (lowest priority)`
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(context.Background(), opts)
		}),
	)
}

// Run runs the console until ctx is done or the process is signalled.
func Run(ctx context.Context, opts *Options) error {
	opts.Log.AddInitialField("service.name", appName)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting mongo-console", "version", app.GetVersion(), "store", opts.Store.Type)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := store.New(ctx, opts.Store)
	if err != nil {
		return fmt.Errorf("failed to open connection store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warnw("Failed to close connection store", "error", err)
		}
	}()

	workers, err := pool.NewPool("console", opts.Pool.Config())
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer workers.Release()

	conns := datasource.NewManager(
		datasource.NewMongoDialer(opts.Mongo),
		datasource.WithWorkerPool(workers),
	)
	defer closeConnections(conns, opts.HTTP.ShutdownTimeout)

	syncer := biz.NewSynchronizer(conns, st, workers)
	syncer.Restore(ctx)

	if w, ok := st.(store.Watcher); ok && opts.Store.Watch {
		if err := w.Watch(ctx, func() { syncer.Reconcile(ctx) }); err != nil {
			logger.Warnw("Config file watch disabled", "error", err)
		}
	}

	httpServer := server.NewHTTPServer(opts.HTTP)
	router.Register(httpServer.Engine(),
		handler.NewConfigHandler(syncer),
		handler.NewStatusHandler(biz.NewStatusService(conns, st, opts.Mongo.ProbeTimeout)),
	)

	logger.Infow("mongo-console is ready", "addr", opts.HTTP.Addr)
	return server.NewManager(opts.HTTP.ShutdownTimeout, httpServer).Run(ctx)
}

func closeConnections(conns *datasource.Manager, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := conns.CloseAll(ctx); err != nil {
		logger.Warnw("Failed to close connections", "error", err)
	}
}
