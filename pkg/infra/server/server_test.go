package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpopts "github.com/kart-io/mongo-console/pkg/options/http"
)

// recorder is a Runnable that records calls into a shared log.
type recorder struct {
	name     string
	startErr error
	log      *[]string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Start(context.Context) error {
	*r.log = append(*r.log, "start "+r.name)
	return r.startErr
}

func (r *recorder) Stop(context.Context) error {
	*r.log = append(*r.log, "stop "+r.name)
	return nil
}

func TestManagerStartStopOrder(t *testing.T) {
	var log []string
	m := NewManager(time.Second, &recorder{name: "a", log: &log}, &recorder{name: "b", log: &log})

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))
	require.NoError(t, m.Stop(context.Background()))

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
}

func TestManagerStartFailureStopsStarted(t *testing.T) {
	var log []string
	m := NewManager(time.Second)
	m.AddServer(&recorder{name: "a", log: &log})
	m.AddServer(&recorder{name: "b", log: &log, startErr: errors.New("bind")})

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start server b")
	assert.Equal(t, []string{"start a", "start b", "stop a"}, log)
}

func TestManagerRunStopsOnContextDone(t *testing.T) {
	var log []string
	m := NewManager(time.Second, &recorder{name: "a", log: &log})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, m.Run(ctx))
	assert.Equal(t, []string{"start a", "stop a"}, log)
}

func TestHTTPServerServesEngine(t *testing.T) {
	opts := httpopts.NewOptions()
	opts.Addr = "127.0.0.1:0"
	opts.Mode = gin.TestMode

	s := NewHTTPServer(opts)
	s.Engine().GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}

func TestHTTPServerBindError(t *testing.T) {
	opts := httpopts.NewOptions()
	opts.Addr = "127.0.0.1:0"
	opts.Mode = gin.TestMode

	first := NewHTTPServer(opts)
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	taken := httpopts.NewOptions()
	taken.Addr = first.Addr()
	taken.Mode = gin.TestMode
	assert.Error(t, NewHTTPServer(taken).Start(context.Background()))
}

func TestHTTPServerStopBeforeStart(t *testing.T) {
	assert.NoError(t, NewHTTPServer(nil).Stop(context.Background()))
}
