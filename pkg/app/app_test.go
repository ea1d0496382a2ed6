package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lk2023060901/beachd/pkg/config"
	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	started  atomic.Bool
	stopped  atomic.Bool
	startErr error
}

func (s *fakeServer) Start() error {
	s.started.Store(true)
	return s.startErr
}

func (s *fakeServer) Stop() error {
	s.stopped.Store(true)
	return nil
}

type orderCloser struct {
	id    int
	order *[]int
}

func (c orderCloser) Close() error {
	*c.order = append(*c.order, c.id)
	return nil
}

func newTestApp() *BaseApp {
	return NewBaseApp(WithName("test"), WithLogger(logger.NewNoop()), WithStopTimeout(time.Second))
}

func TestRunAndStop(t *testing.T) {
	a := newTestApp()
	srv := &fakeServer{}
	var order []int
	a.AppendServer(srv)
	a.AppendCloser(orderCloser{1, &order}, orderCloser{2, &order})

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.Eventually(t, srv.started.Load, time.Second, 5*time.Millisecond)
	a.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	assert.True(t, srv.stopped.Load())
	// Closer 逆序关闭
	assert.Equal(t, []int{2, 1}, order)
	assert.ErrorIs(t, a.Run(), ErrAppAlreadyRunning)
}

func TestRunStartFailure(t *testing.T) {
	a := newTestApp()
	bad := &fakeServer{startErr: errors.New("bind failed")}
	a.AppendServer(bad)

	err := a.Run()
	assert.EqualError(t, err, "bind failed")
	assert.True(t, bad.stopped.Load())
}

func TestLoadConfig(t *testing.T) {
	type target struct {
		Server struct {
			Addr string `mapstructure:"addr"`
		} `mapstructure:"server"`
	}

	path := filepath.Join(t.TempDir(), "beachd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \"0.0.0.0:12345\"\n"), 0o644))

	t.Run("flag", func(t *testing.T) {
		var cfg target
		fs := pflag.NewFlagSet("t", pflag.ContinueOnError)
		_, used, err := LoadConfig(&cfg, LoadOptions{FlagSet: fs, Args: []string{"-c", path}})
		require.NoError(t, err)
		assert.Equal(t, path, used)
		assert.Equal(t, "0.0.0.0:12345", cfg.Server.Addr)
	})

	t.Run("env path and override", func(t *testing.T) {
		t.Setenv("BEACHD_CONFIG", path)
		t.Setenv("BEACHD_SERVER_ADDR", "127.0.0.1:1")

		var cfg target
		fs := pflag.NewFlagSet("t", pflag.ContinueOnError)
		_, _, err := LoadConfig(&cfg, LoadOptions{FlagSet: fs, Args: []string{}, DefaultPath: "/nonexistent.yaml"})
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:1", cfg.Server.Addr)
	})

	t.Run("missing file", func(t *testing.T) {
		var cfg target
		fs := pflag.NewFlagSet("t", pflag.ContinueOnError)
		_, _, err := LoadConfig(&cfg, LoadOptions{FlagSet: fs, Args: []string{}, DefaultPath: filepath.Join(t.TempDir(), "none.yaml")})
		assert.ErrorIs(t, err, config.ErrConfigFileNotFound)
	})
}
