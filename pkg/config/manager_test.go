package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerTestConfig struct {
	Server struct {
		Addr        string        `mapstructure:"addr"`
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"server"`
	Season struct {
		Start upper `mapstructure:"start"`
	} `mapstructure:"season"`
}

type upper string

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestManagerLoadAndUnmarshal(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: "127.0.0.1:12345"
  idle_timeout: 45s
season:
  start: "lido"
`)

	// 自定义钩子把字符串转成大写
	hook := func(from, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(upper("")) || from.Kind() != reflect.String {
			return data, nil
		}
		return upper(strings.ToUpper(data.(string))), nil
	}

	mgr := NewManager(WithDecodeHooks(mapstructure.DecodeHookFuncType(hook)))
	require.NoError(t, mgr.LoadFile(path))

	var cfg managerTestConfig
	require.NoError(t, mgr.Unmarshal(&cfg))

	assert.Equal(t, "127.0.0.1:12345", cfg.Server.Addr)
	assert.Equal(t, 45*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, upper("LIDO"), cfg.Season.Start)
	assert.True(t, mgr.IsSet("server.addr"))
	assert.Equal(t, "127.0.0.1:12345", mgr.GetString("server.addr"))
}

func TestManagerMissingFile(t *testing.T) {
	mgr := NewManager()
	assert.Error(t, mgr.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestManagerEnvOverride(t *testing.T) {
	path := writeConfigFile(t, "server:\n  addr: \"0.0.0.0:1\"\n")
	t.Setenv("BEACHDTEST_SERVER_ADDR", "10.0.0.1:2")

	mgr := NewManager()
	mgr.BindEnv("BEACHDTEST")
	require.NoError(t, mgr.LoadFile(path))

	assert.Equal(t, "10.0.0.1:2", mgr.GetString("server.addr"))
}

func TestManagerDefaults(t *testing.T) {
	path := writeConfigFile(t, "server:\n  addr: \"0.0.0.0:1\"\n")

	mgr := NewManager(WithDefaults(map[string]any{"admission.capacity": 10}))
	require.NoError(t, mgr.LoadFile(path))

	assert.Equal(t, 10, mgr.GetInt("admission.capacity"))
}
