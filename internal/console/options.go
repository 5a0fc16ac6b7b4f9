package console

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/mongo-console/pkg/infra/app"
	httpopts "github.com/kart-io/mongo-console/pkg/options/http"
	logopts "github.com/kart-io/mongo-console/pkg/options/logger"
	mongoopts "github.com/kart-io/mongo-console/pkg/options/mongodb"
	poolopts "github.com/kart-io/mongo-console/pkg/options/pool"
	storeopts "github.com/kart-io/mongo-console/pkg/options/store"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

var _ app.CliOptions = (*Options)(nil)

// Options contains all console options.
type Options struct {
	Log   *logopts.Options   `json:"log" mapstructure:"log"`
	HTTP  *httpopts.Options  `json:"http" mapstructure:"http"`
	Mongo *mongoopts.Options `json:"mongo" mapstructure:"mongo"`
	Store *storeopts.Options `json:"store" mapstructure:"store"`
	Pool  *poolopts.Options  `json:"pool" mapstructure:"pool"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Log:   logopts.NewOptions(),
		HTTP:  httpopts.NewOptions(),
		Mongo: mongoopts.NewOptions(),
		Store: storeopts.NewOptions(),
		Pool:  poolopts.NewOptions(),
	}
}

// Flags returns the flag sets grouped by section.
func (o *Options) Flags() (fss app.NamedFlagSets) {
	o.Log.AddFlags(fss.FlagSet("log"))
	o.HTTP.AddFlags(fss.FlagSet("http"))
	o.Mongo.AddFlags(fss.FlagSet("mongo"))
	o.Store.AddFlags(fss.FlagSet("store"))
	o.Pool.AddFlags(fss.FlagSet("pool"))
	return fss
}

// Complete completes the options.
func (o *Options) Complete() error {
	return o.Store.Complete()
}

// Validate validates every option group and reports all problems at once as
// an ErrInvalidConfig.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.Log.Validate()...)
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.Mongo.Validate()...)
	errs = append(errs, o.Store.Validate()...)
	errs = append(errs, o.Pool.Validate()...)
	if agg := utilerrors.NewAggregate(errs); agg != nil {
		return errors.ErrInvalidConfig.WithCause(agg)
	}
	return nil
}
