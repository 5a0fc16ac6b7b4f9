package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOptions struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
	Store   struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"store"`

	completed bool
}

func (o *testOptions) Flags() (fss NamedFlagSets) {
	fs := fss.FlagSet("test")
	fs.StringVar(&o.Addr, "addr", ":8080", "listen address")
	fs.DurationVar(&o.Timeout, "timeout", time.Second, "timeout")
	fs.StringVar(&o.Store.Path, "store.path", "connections.json", "store path")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error { return nil }

func TestNamedFlagSetsOrder(t *testing.T) {
	var fss NamedFlagSets
	fss.FlagSet("b")
	fss.FlagSet("a")
	fss.FlagSet("b")

	assert.Equal(t, []string{"b", "a"}, fss.Order)
	assert.Len(t, fss.FlagSets, 2)
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "MONGO_CONSOLE", EnvPrefix("mongo-console"))
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("addr: \":9000\"\ntimeout: 5s\nstore:\n  path: ${TEST_STORE_DIR}/conn.json\n"), 0o600))
	t.Setenv("TEST_STORE_DIR", "/data")
	t.Setenv("TESTAPP_TIMEOUT", "7s")

	opts := &testOptions{}
	ran := false
	a := NewApp(
		WithName("testapp"),
		WithOptions(opts),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{"--config", cfg, "--addr", ":7000"})
	require.NoError(t, a.Command().Execute())

	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, ":7000", opts.Addr, "explicit flag wins")
	assert.Equal(t, 7*time.Second, opts.Timeout, "env beats config file")
	assert.Equal(t, "/data/conn.json", opts.Store.Path, "config values expand env vars")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	a := NewApp(WithName("testapp"), WithOptions(&testOptions{}))
	a.Command().SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, a.Command().Execute())
}
