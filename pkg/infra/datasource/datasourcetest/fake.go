// Package datasourcetest provides an in-memory Dialer for tests.
package datasourcetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kart-io/mongo-console/pkg/infra/datasource"
)

type pingResult struct{ err error }

// Handle is a fake connection that records pings and closes.
type Handle struct {
	Name string
	URI  string

	pingErr atomic.Value
	closes  atomic.Int32
}

var _ datasource.Handle = (*Handle)(nil)

// Ping returns the error set with FailPing, if any.
func (h *Handle) Ping(context.Context) error {
	if r, ok := h.pingErr.Load().(pingResult); ok {
		return r.err
	}
	return nil
}

// Close records the call.
func (h *Handle) Close(context.Context) error {
	h.closes.Add(1)
	return nil
}

// FailPing makes subsequent pings return err.
func (h *Handle) FailPing(err error) {
	h.pingErr.Store(pingResult{err: err})
}

// Closes returns how many times Close was called.
func (h *Handle) Closes() int {
	return int(h.closes.Load())
}

// Dialer hands out fake handles. URIs registered with Fail are rejected with
// the given error.
type Dialer struct {
	mu       sync.Mutex
	failures map[string]error
	dials    []string
	handles  []*Handle
}

var _ datasource.Dialer = (*Dialer)(nil)

// NewDialer creates an empty Dialer.
func NewDialer() *Dialer {
	return &Dialer{failures: make(map[string]error)}
}

// Fail makes dials of uri return err.
func (d *Dialer) Fail(uri string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[uri] = err
}

// Dial returns a new Handle unless uri was registered with Fail.
func (d *Dialer) Dial(ctx context.Context, name, uri string, _ map[string]any) (datasource.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials = append(d.dials, name)
	if err, ok := d.failures[uri]; ok {
		return nil, err
	}
	h := &Handle{Name: name, URI: uri}
	d.handles = append(d.handles, h)
	return h, nil
}

// Dials returns the names passed to Dial, in order.
func (d *Dialer) Dials() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dials...)
}

// Handles returns every handle handed out, in order.
func (d *Dialer) Handles() []*Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Handle(nil), d.handles...)
}

// Last returns the most recent handle, failing if there is none.
func (d *Dialer) Last() (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.handles) == 0 {
		return nil, fmt.Errorf("no handles dialed")
	}
	return d.handles[len(d.handles)-1], nil
}
