package mongodb

import (
	"fmt"
	"net"
	"strings"

	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

// Placeholder tokens substituted into templated connection strings.
const (
	UsernamePlaceholder = "{USERNAME}"
	PasswordPlaceholder = "{PASSWORD}"
)

// Credentials are the per-request username and password for a templated
// connection string.
type Credentials struct {
	Username string
	Password string
}

// complete reports whether both halves of the credentials are present.
func (c *Credentials) complete() bool {
	return c != nil && c.Username != "" && c.Password != ""
}

// ParsedURI is the validated form of a connection string.
type ParsedURI struct {
	// URI is the materialized connection string that was parsed.
	URI string
	// Hosts holds the seed list. For mongodb+srv it is the unresolved SRV
	// name; the driver resolves it when connecting.
	Hosts      []string
	Database   string
	ReplicaSet string
}

// HasPlaceholders reports whether raw contains a credential placeholder.
func HasPlaceholders(raw string) bool {
	return strings.Contains(raw, UsernamePlaceholder) || strings.Contains(raw, PasswordPlaceholder)
}

// Materialize substitutes credentials into every placeholder of raw.
// Partial credentials leave raw unchanged.
func Materialize(raw string, creds *Credentials) string {
	if !creds.complete() {
		return raw
	}
	return strings.NewReplacer(
		UsernamePlaceholder, creds.Username,
		PasswordPlaceholder, creds.Password,
	).Replace(raw)
}

// Validate materializes raw and parses it with the driver's connection
// string parser. Failures are ErrInvalidURI carrying the parser message.
// Validate does no network I/O, including for mongodb+srv strings.
func Validate(raw string, creds *Credentials) (*ParsedURI, error) {
	uri := Materialize(raw, creds)
	if strings.TrimSpace(uri) == "" {
		return nil, errors.ErrInvalidURI.WithMessage("connection string is empty")
	}

	cs, err := parse(uri)
	if err != nil {
		return nil, errors.ErrInvalidURI.WithCause(err)
	}

	return &ParsedURI{
		URI:        uri,
		Hosts:      cs.Hosts,
		Database:   cs.Database,
		ReplicaSet: cs.ReplicaSet,
	}, nil
}

const srvPrefix = connstring.SchemeMongoDBSRV + "://"

// srvOnlyOptions are rejected by the parser on plain mongodb strings.
var srvOnlyOptions = map[string]struct{}{
	"srvmaxhosts":    {},
	"srvservicename": {},
}

// parse runs the driver parser. The parser resolves SRV and TXT records for
// mongodb+srv strings, so those are parsed as a plain mongodb string with the
// SRV rules checked here instead.
func parse(uri string) (*connstring.ConnString, error) {
	rest, srv := strings.CutPrefix(uri, srvPrefix)
	if !srv {
		return connstring.ParseAndValidate(uri)
	}

	cs, err := connstring.ParseAndValidate(connstring.SchemeMongoDB + "://" + withoutSRVOptions(rest))
	if err != nil {
		return nil, err
	}
	if len(cs.Hosts) != 1 {
		return nil, fmt.Errorf("URI with SRV must include one and only one hostname")
	}
	if _, port, err := net.SplitHostPort(cs.Hosts[0]); err == nil && port != "" {
		return nil, fmt.Errorf("URI with srv must not include a port number")
	}
	if cs.DirectConnectionSet && cs.DirectConnection {
		return nil, fmt.Errorf("a direct connection cannot be made if an SRV URI is used")
	}

	cs.Scheme = connstring.SchemeMongoDBSRV
	cs.Original = uri
	return cs, nil
}

// withoutSRVOptions drops the SRV-only query options from the part of a
// connection string that follows the scheme.
func withoutSRVOptions(rest string) string {
	base, query, found := strings.Cut(rest, "?")
	if !found {
		return rest
	}

	kept := make([]string, 0, 4)
	for _, pair := range strings.FieldsFunc(query, func(r rune) bool { return r == ';' || r == '&' }) {
		key, _, _ := strings.Cut(pair, "=")
		if _, drop := srvOnlyOptions[strings.ToLower(key)]; drop {
			continue
		}
		kept = append(kept, pair)
	}
	if len(kept) == 0 {
		return base + "?"
	}
	return base + "?" + strings.Join(kept, "&")
}

// Redact masks the password in a connection string's userinfo so the string
// is safe to log or return to clients. Placeholders are kept as they are.
func Redact(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd < 0 {
		return uri
	}
	rest := uri[schemeEnd+3:]

	authority := rest
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority = rest[:i]
	}
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return uri
	}

	userinfo := authority[:at]
	user, pass, found := strings.Cut(userinfo, ":")
	if !found || pass == PasswordPlaceholder {
		return uri
	}
	return uri[:schemeEnd+3] + user + ":xxxxxx" + rest[at:]
}
