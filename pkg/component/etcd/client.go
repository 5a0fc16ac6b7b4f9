// Package etcd opens etcd v3 clients from etcd options.
package etcd

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	options "github.com/kart-io/mongo-console/pkg/options/etcd"
)

// Client wraps an etcd client whose cluster answered a status request.
type Client struct {
	client *clientv3.Client
	opts   *options.Options
}

// New creates an etcd client from opts and verifies that at least one
// endpoint is reachable.
func New(ctx context.Context, opts *options.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("etcd options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid etcd options: %w", utilerrors.NewAggregate(errs))
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		Username:    opts.Username,
		Password:    opts.Password,
		DialTimeout: opts.DialTimeout,
		Context:     ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	c := &Client{client: cli, opts: opts}
	if err := c.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to reach etcd at %v: %w", opts.Endpoints, err)
	}
	return c, nil
}

// Ping queries the status of the first endpoint that answers.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.RequestContext(ctx)
	defer cancel()

	var errs []error
	for _, ep := range c.client.Endpoints() {
		if _, err := c.client.Status(ctx, ep); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ep, err))
			continue
		}
		return nil
	}
	return utilerrors.NewAggregate(errs)
}

// RequestContext derives a context bounded by the configured request timeout.
func (c *Client) RequestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.opts.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// Close closes the client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Client returns the underlying etcd client.
func (c *Client) Client() *clientv3.Client {
	return c.client
}
