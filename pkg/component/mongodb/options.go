package mongodb

import (
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	"github.com/kart-io/logger"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/mongo-console/pkg/utils/errors"
	"github.com/kart-io/mongo-console/pkg/utils/json"
)

// ParseConnectionOptions decodes the options payload stored with a
// connection. An empty payload is an empty object; anything that is not a
// JSON object is ErrInvalidOptions.
func ParseConnectionOptions(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}

	var opts map[string]any
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, errors.ErrInvalidOptions.WithCause(err)
	}
	if opts == nil {
		return nil, errors.ErrInvalidOptions.WithMessage("connection options must be a JSON object")
	}
	return opts, nil
}

// optionSetter applies one connection option to the driver options.
type optionSetter func(co *mongoopts.ClientOptions, v any) error

var connectionOptionSetters = map[string]optionSetter{
	"maxPoolSize": setUint(func(co *mongoopts.ClientOptions, n uint64) { co.SetMaxPoolSize(n) }),
	"poolSize":    setUint(func(co *mongoopts.ClientOptions, n uint64) { co.SetMaxPoolSize(n) }),
	"minPoolSize": setUint(func(co *mongoopts.ClientOptions, n uint64) { co.SetMinPoolSize(n) }),

	"connectTimeoutMS":         setMillis(func(co *mongoopts.ClientOptions, d time.Duration) { co.SetConnectTimeout(d) }),
	"serverSelectionTimeoutMS": setMillis(func(co *mongoopts.ClientOptions, d time.Duration) { co.SetServerSelectionTimeout(d) }),
	"socketTimeoutMS":          setMillis(func(co *mongoopts.ClientOptions, d time.Duration) { co.SetSocketTimeout(d) }),
	"maxIdleTimeMS":            setMillis(func(co *mongoopts.ClientOptions, d time.Duration) { co.SetMaxConnIdleTime(d) }),

	"appName":    setString(func(co *mongoopts.ClientOptions, s string) { co.SetAppName(s) }),
	"replicaSet": setString(func(co *mongoopts.ClientOptions, s string) { co.SetReplicaSet(s) }),
	"authSource": setString(func(co *mongoopts.ClientOptions, s string) {
		if co.Auth != nil {
			co.Auth.AuthSource = s
		}
	}),

	"directConnection": setBool(func(co *mongoopts.ClientOptions, b bool) { co.SetDirect(b) }),
	"retryWrites":      setBool(func(co *mongoopts.ClientOptions, b bool) { co.SetRetryWrites(b) }),
	"retryReads":       setBool(func(co *mongoopts.ClientOptions, b bool) { co.SetRetryReads(b) }),
	"tls":              setBool(setTLS),
	"ssl":              setBool(setTLS),
	"tlsInsecure": setBool(func(co *mongoopts.ClientOptions, b bool) {
		if b {
			tlsConfig(co).InsecureSkipVerify = true
		}
	}),
	"sslValidate": setBool(func(co *mongoopts.ClientOptions, b bool) {
		if !b {
			tlsConfig(co).InsecureSkipVerify = true
		}
	}),
}

// ApplyConnectionOptions applies a connection's options map on top of co.
// Unknown keys are ignored.
func ApplyConnectionOptions(co *mongoopts.ClientOptions, opts map[string]any) error {
	for key, value := range opts {
		set, ok := connectionOptionSetters[key]
		if !ok {
			logger.Debugw("Ignoring unsupported connection option", "option", key)
			continue
		}
		if err := set(co, value); err != nil {
			return errors.ErrInvalidOptions.WithCause(fmt.Errorf("%s: %w", key, err))
		}
	}
	return nil
}

func setTLS(co *mongoopts.ClientOptions, enabled bool) {
	if enabled {
		tlsConfig(co)
	} else {
		co.SetTLSConfig(nil)
	}
}

func tlsConfig(co *mongoopts.ClientOptions) *tls.Config {
	if co.TLSConfig == nil {
		co.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return co.TLSConfig
}

func setUint(apply func(*mongoopts.ClientOptions, uint64)) optionSetter {
	return func(co *mongoopts.ClientOptions, v any) error {
		n, err := toUint(v)
		if err != nil {
			return err
		}
		apply(co, n)
		return nil
	}
}

func setMillis(apply func(*mongoopts.ClientOptions, time.Duration)) optionSetter {
	return func(co *mongoopts.ClientOptions, v any) error {
		n, err := toUint(v)
		if err != nil {
			return err
		}
		apply(co, time.Duration(n)*time.Millisecond)
		return nil
	}
}

func setString(apply func(*mongoopts.ClientOptions, string)) optionSetter {
	return func(co *mongoopts.ClientOptions, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", v)
		}
		apply(co, s)
		return nil
	}
}

func setBool(apply func(*mongoopts.ClientOptions, bool)) optionSetter {
	return func(co *mongoopts.ClientOptions, v any) error {
		switch b := v.(type) {
		case bool:
			apply(co, b)
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return fmt.Errorf("expected a boolean, got %q", b)
			}
			apply(co, parsed)
		default:
			return fmt.Errorf("expected a boolean, got %T", v)
		}
		return nil
	}
}

func toUint(v any) (uint64, error) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, fmt.Errorf("expected a non-negative integer, got %v", n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("expected a non-negative integer, got %d", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("expected a non-negative integer, got %d", n)
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	case string:
		parsed, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected a non-negative integer, got %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
