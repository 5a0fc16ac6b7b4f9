// Package pool provides worker pool options.
package pool

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/mongo-console/pkg/infra/pool"
	"github.com/kart-io/mongo-console/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the background worker pool.
type Options struct {
	Capacity       int           `json:"capacity" mapstructure:"capacity"`
	ExpiryDuration time.Duration `json:"expiry-duration" mapstructure:"expiry-duration"`
	Nonblocking    bool          `json:"nonblocking" mapstructure:"nonblocking"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	def := pool.DefaultPoolConfig()
	return &Options{
		Capacity:       def.Capacity,
		ExpiryDuration: def.ExpiryDuration,
	}
}

// Config converts the options into a pool configuration.
func (o *Options) Config() *pool.Config {
	return &pool.Config{
		Capacity:       o.Capacity,
		ExpiryDuration: o.ExpiryDuration,
		Nonblocking:    o.Nonblocking,
	}
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o.Capacity <= 0 {
		return []error{fmt.Errorf("pool.capacity must be positive, got %d", o.Capacity)}
	}
	return nil
}

// AddFlags adds flags for pool options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "pool."
	fs.IntVar(&o.Capacity, p+"capacity", o.Capacity, "Maximum concurrent background workers")
	fs.DurationVar(&o.ExpiryDuration, p+"expiry-duration", o.ExpiryDuration, "Idle worker expiry")
	fs.BoolVar(&o.Nonblocking, p+"nonblocking", o.Nonblocking, "Reject work instead of blocking when the pool is full")
}
