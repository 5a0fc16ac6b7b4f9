package biz

import (
	"context"
	"time"

	"github.com/kart-io/mongo-console/internal/console/store"
	"github.com/kart-io/mongo-console/pkg/component/mongodb"
	"github.com/kart-io/mongo-console/pkg/infra/datasource"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

// ConnectionInfo describes a stored connection for display.
type ConnectionInfo struct {
	Name string `json:"name"`
	// ConnectionString has any password masked.
	ConnectionString  string         `json:"connection_string"`
	ConnectionOptions map[string]any `json:"connection_options"`
	Private           bool           `json:"private"`
	Connected         bool           `json:"connected"`
}

// HealthSummary is the health of every pooled connection.
type HealthSummary struct {
	Healthy     bool                  `json:"healthy"`
	Connections []ConnectionHealthDTO `json:"connections"`
}

// ConnectionHealthDTO is the wire form of datasource.HealthStatus.
type ConnectionHealthDTO struct {
	Name      string  `json:"name"`
	Healthy   bool    `json:"healthy"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// StatusService reports stored connections and live status. It never
// changes the pool.
type StatusService struct {
	pool    Pool
	store   store.Store
	timeout time.Duration
}

// NewStatusService creates a StatusService. timeout bounds each probe
// command.
func NewStatusService(p Pool, s store.Store, timeout time.Duration) *StatusService {
	return &StatusService{pool: p, store: s, timeout: timeout}
}

// List returns stored connections ordered by name.
func (s *StatusService) List() []ConnectionInfo {
	conns := s.store.List()
	out := make([]ConnectionInfo, 0, len(conns))
	for _, c := range conns {
		_, connected := s.pool.Get(c.Name)
		out = append(out, ConnectionInfo{
			Name:              c.Name,
			ConnectionString:  mongodb.Redact(c.ConnectionString),
			ConnectionOptions: c.ConnectionOptions,
			Private:           mongodb.HasPlaceholders(c.ConnectionString),
			Connected:         connected,
		})
	}
	return out
}

// Status probes the pooled connection called name.
func (s *StatusService) Status(ctx context.Context, name string) (*mongodb.DBStatus, error) {
	handle, ok := s.pool.Get(name)
	if !ok {
		return nil, errors.ErrNotFound.WithMessagef("connection %q is not connected", name)
	}

	status := probe(ctx, handle, s.timeout)
	return &status, nil
}

// Health pings every pooled connection.
func (s *StatusService) Health(ctx context.Context) *HealthSummary {
	results := s.pool.HealthCheckAll(ctx)

	summary := &HealthSummary{Healthy: true, Connections: make([]ConnectionHealthDTO, 0, len(results))}
	for _, name := range s.pool.Names() {
		r, ok := results[name]
		if !ok {
			continue
		}
		dto := ConnectionHealthDTO{
			Name:      r.Name,
			Healthy:   r.Healthy,
			LatencyMS: float64(r.Latency.Microseconds()) / 1000,
		}
		if r.Error != nil {
			dto.Error = r.Error.Error()
			summary.Healthy = false
		}
		summary.Connections = append(summary.Connections, dto)
	}
	return summary
}

// probe collects full status from handles that can run commands and falls
// back to a ping for the rest.
func probe(ctx context.Context, handle datasource.Handle, timeout time.Duration) mongodb.DBStatus {
	if src, ok := handle.(mongodb.StatusSource); ok {
		var database string
		if d, ok := handle.(interface{ Database() string }); ok {
			database = d.Database()
		}
		return mongodb.Probe(ctx, src, database, timeout)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return mongodb.DBStatus{Reachable: handle.Ping(pingCtx) == nil, Stats: map[string]any{}}
}
