package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// StatusSource is the set of commands the prober issues.
type StatusSource interface {
	Ping(ctx context.Context) error
	ServerStatus(ctx context.Context) (bson.M, error)
	DatabaseStats(ctx context.Context, name string) (bson.M, error)
	DatabaseNames(ctx context.Context) ([]string, error)
}

// DBStatus is the result of a probe.
type DBStatus struct {
	Reachable bool           `json:"reachable"`
	Stats     map[string]any `json:"stats"`
}

// serverStatusFields are the serverStatus entries surfaced by a probe.
var serverStatusFields = []string{"host", "version", "uptime", "connections", "process", "pid"}

// Probe collects live status for src. Each command runs under its own
// timeout. Reachability follows the ping alone. The other commands are best
// effort: a failed one leaves its entry out, so a user limited to one
// database still sees a live server. Probe never returns an error.
func Probe(ctx context.Context, src StatusSource, database string, timeout time.Duration) DBStatus {
	if src == nil {
		return DBStatus{Stats: map[string]any{}}
	}

	run := func(fn func(ctx context.Context) error) error {
		cmdCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(cmdCtx)
	}

	if err := run(src.Ping); err != nil {
		return DBStatus{Stats: map[string]any{}}
	}

	stats := make(map[string]any)

	var status bson.M
	if err := run(func(ctx context.Context) (err error) {
		status, err = src.ServerStatus(ctx)
		return err
	}); err == nil {
		server := make(map[string]any, len(serverStatusFields))
		for _, field := range serverStatusFields {
			if v, ok := status[field]; ok {
				server[field] = v
			}
		}
		stats["serverStatus"] = server
	}

	if database != "" {
		var dbStats bson.M
		if err := run(func(ctx context.Context) (err error) {
			dbStats, err = src.DatabaseStats(ctx, database)
			return err
		}); err == nil {
			stats["dbStats"] = map[string]any(dbStats)
		}
	}

	var names []string
	if err := run(func(ctx context.Context) (err error) {
		names, err = src.DatabaseNames(ctx)
		return err
	}); err == nil {
		stats["databases"] = names
	} else if database != "" {
		// listDatabases needs a cluster-wide privilege; fall back to the
		// database named in the connection string.
		stats["databases"] = []string{database}
	}

	return DBStatus{Reachable: true, Stats: stats}
}
