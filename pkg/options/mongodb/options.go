// Package mongodb provides defaults applied to every MongoDB connection the
// console opens.
package mongodb

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/mongo-console/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options defines connection defaults for MongoDB clients. Values set in a
// connection's own options take precedence over these.
type Options struct {
	// Timeouts
	ConnectTimeout         time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	ServerSelectionTimeout time.Duration `json:"server-selection-timeout" mapstructure:"server-selection-timeout"`
	ProbeTimeout           time.Duration `json:"probe-timeout" mapstructure:"probe-timeout"`

	// Connection Pool
	MaxPoolSize     uint64        `json:"max-pool-size" mapstructure:"max-pool-size"`
	MinPoolSize     uint64        `json:"min-pool-size" mapstructure:"min-pool-size"`
	MaxConnIdleTime time.Duration `json:"max-conn-idle-time" mapstructure:"max-conn-idle-time"`

	// AppName is reported to the server in the handshake.
	AppName string `json:"app-name" mapstructure:"app-name"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 10 * time.Second,
		ProbeTimeout:           5 * time.Second,
		MaxPoolSize:            100,
		MinPoolSize:            0,
		MaxConnIdleTime:        5 * time.Minute,
		AppName:                "mongo-console",
	}
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("mongo.connect-timeout must be positive"))
	}
	if o.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("mongo.probe-timeout must be positive"))
	}
	if o.MaxPoolSize != 0 && o.MinPoolSize > o.MaxPoolSize {
		errs = append(errs, fmt.Errorf("mongo.min-pool-size (%d) exceeds mongo.max-pool-size (%d)", o.MinPoolSize, o.MaxPoolSize))
	}
	return errs
}

// AddFlags adds flags for MongoDB options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "mongo."
	fs.DurationVar(&o.ConnectTimeout, p+"connect-timeout", o.ConnectTimeout, "Timeout for establishing and verifying a connection.")
	fs.DurationVar(&o.ServerSelectionTimeout, p+"server-selection-timeout", o.ServerSelectionTimeout, "Timeout for server selection.")
	fs.DurationVar(&o.ProbeTimeout, p+"probe-timeout", o.ProbeTimeout, "Timeout for each status probe command.")
	fs.Uint64Var(&o.MaxPoolSize, p+"max-pool-size", o.MaxPoolSize, "Default maximum number of driver connections per client.")
	fs.Uint64Var(&o.MinPoolSize, p+"min-pool-size", o.MinPoolSize, "Default minimum number of driver connections per client.")
	fs.DurationVar(&o.MaxConnIdleTime, p+"max-conn-idle-time", o.MaxConnIdleTime, "Maximum driver connection idle time.")
	fs.StringVar(&o.AppName, p+"app-name", o.AppName, "Application name sent to the server.")
}
