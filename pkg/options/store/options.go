// Package store provides options for the connection descriptor store.
package store

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/mongo-console/pkg/options"
	etcdopts "github.com/kart-io/mongo-console/pkg/options/etcd"
	redisopts "github.com/kart-io/mongo-console/pkg/options/redis"
	"github.com/kart-io/mongo-console/pkg/utils/validator"
)

var _ options.IOptions = (*Options)(nil)

// Supported store backends.
const (
	TypeFile  = "file"
	TypeRedis = "redis"
	TypeEtcd  = "etcd"
)

// Options selects and configures the descriptor store backend.
type Options struct {
	Type   string `json:"type" mapstructure:"type" validate:"oneof=file redis etcd"`
	Path   string `json:"path" mapstructure:"path" validate:"required_if=Type file"`
	Watch  bool   `json:"watch" mapstructure:"watch"`
	Prefix string `json:"prefix" mapstructure:"prefix"`

	Redis *redisopts.Options `json:"redis" mapstructure:"redis" validate:"-"`
	Etcd  *etcdopts.Options  `json:"etcd" mapstructure:"etcd" validate:"-"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Type:   TypeFile,
		Path:   "config/config.json",
		Watch:  true,
		Prefix: "mongo-console/",
		Redis:  redisopts.NewOptions(),
		Etcd:   etcdopts.NewOptions(),
	}
}

// Complete completes the backend options.
func (o *Options) Complete() error {
	switch o.Type {
	case TypeRedis:
		return o.Redis.Complete()
	case TypeEtcd:
		return o.Etcd.Complete()
	}
	return nil
}

// Validate checks if the options are valid. Only the selected backend is
// validated.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	for _, msg := range validator.Struct(o).Messages() {
		errs = append(errs, fmt.Errorf("store.%s", msg))
	}

	switch o.Type {
	case TypeRedis:
		errs = append(errs, o.Redis.Validate()...)
	case TypeEtcd:
		errs = append(errs, o.Etcd.Validate()...)
	}
	return errs
}

// AddFlags adds flags for store options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "store."
	fs.StringVar(&o.Type, p+"type", o.Type, "Descriptor store backend (file|redis|etcd)")
	fs.StringVar(&o.Path, p+"path", o.Path, "Path of the JSON file used by the file backend")
	fs.BoolVar(&o.Watch, p+"watch", o.Watch, "Reload the file backend when it is edited externally")
	fs.StringVar(&o.Prefix, p+"prefix", o.Prefix, "Key prefix used by the redis and etcd backends")

	o.Redis.AddFlags(fs, append(prefixes, "store")...)
	o.Etcd.AddFlags(fs, append(prefixes, "store")...)
}
