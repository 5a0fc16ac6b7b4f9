// Package logger provides logger configuration options.
package logger

import (
	"github.com/kart-io/logger"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"

	"github.com/kart-io/mongo-console/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the global kart-io logger.
type Options struct {
	Engine            string   `json:"engine" mapstructure:"engine"`
	Level             string   `json:"level" mapstructure:"level"`
	Format            string   `json:"format" mapstructure:"format"`
	OutputPaths       []string `json:"output-paths" mapstructure:"output-paths"`
	Development       bool     `json:"development" mapstructure:"development"`
	DisableCaller     bool     `json:"disable-caller" mapstructure:"disable-caller"`
	DisableStacktrace bool     `json:"disable-stacktrace" mapstructure:"disable-stacktrace"`

	fields map[string]interface{}
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	def := option.DefaultLogOption()
	return &Options{
		Engine:            def.Engine,
		Level:             def.Level,
		Format:            def.Format,
		OutputPaths:       def.OutputPaths,
		Development:       def.Development,
		DisableCaller:     def.DisableCaller,
		DisableStacktrace: def.DisableStacktrace,
	}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "log."
	fs.StringVar(&o.Engine, p+"engine", o.Engine, "Logging engine (zap|slog)")
	fs.StringVar(&o.Level, p+"level", o.Level, "Log level (DEBUG|INFO|WARN|ERROR|FATAL)")
	fs.StringVar(&o.Format, p+"format", o.Format, "Log format (json|console)")
	fs.StringSliceVar(&o.OutputPaths, p+"output-paths", o.OutputPaths, "Output paths for logs")
	fs.BoolVar(&o.Development, p+"development", o.Development, "Enable development mode")
	fs.BoolVar(&o.DisableCaller, p+"disable-caller", o.DisableCaller, "Disable caller detection")
	fs.BoolVar(&o.DisableStacktrace, p+"disable-stacktrace", o.DisableStacktrace, "Disable stacktrace capture")
}

// AddInitialField adds a field attached to every log entry.
func (o *Options) AddInitialField(key string, value interface{}) *Options {
	if o.fields == nil {
		o.fields = make(map[string]interface{})
	}
	o.fields[key] = value
	return o
}

// LogOption converts the options into the logger library configuration.
func (o *Options) LogOption() *option.LogOption {
	opt := option.DefaultLogOption()
	opt.Engine = o.Engine
	opt.Level = o.Level
	opt.Format = o.Format
	opt.OutputPaths = o.OutputPaths
	opt.Development = o.Development
	opt.DisableCaller = o.DisableCaller
	opt.DisableStacktrace = o.DisableStacktrace
	for k, v := range o.fields {
		opt.AddInitialField(k, v)
	}
	return opt
}

// Validate validates the logger options.
func (o *Options) Validate() []error {
	if err := o.LogOption().Validate(); err != nil {
		return []error{err}
	}
	return nil
}

// Init initializes the global logger with the options.
func (o *Options) Init() error {
	log, err := logger.New(o.LogOption())
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}
