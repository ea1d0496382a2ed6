package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lk2023060901/beachd/pkg/config"
	"github.com/spf13/pflag"
)

// EnvPrefix 环境变量前缀，BEACHD_SERVER_ADDR 对应 server.addr
const EnvPrefix = "BEACHD"

// LoadOptions 控制配置文件的定位方式
type LoadOptions struct {
	// FlagSet 为 nil 时使用 pflag.CommandLine
	FlagSet *pflag.FlagSet
	// Args 为 nil 时使用 os.Args[1:]
	Args []string
	// DefaultPath 未通过参数或环境变量指定时使用的配置文件
	DefaultPath string
}

// LoadConfig 加载配置到 target 并返回底层 Manager（用于热更新监听）
// 优先级：1. 命令行 -c > 2. 环境变量 BEACHD_CONFIG > 3. 默认路径
// 字段值优先级：环境变量 > 配置文件 > Manager 默认值
func LoadConfig(target any, lo LoadOptions, opts ...config.Option) (config.Manager, string, error) {
	fs := lo.FlagSet
	if fs == nil {
		fs = pflag.CommandLine
	}
	args := lo.Args
	if args == nil {
		args = os.Args[1:]
	}

	defaultPath := lo.DefaultPath
	if defaultPath == "" {
		execDir, err := GetExecDir()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get executable directory: %w", err)
		}
		defaultPath = filepath.Join(execDir, "config.yaml")
	}

	path := defaultPath
	if fs.Lookup("config") == nil {
		fs.StringVarP(&path, "config", "c", defaultPath, "path to config file")
	}
	if !fs.Parsed() {
		if err := fs.Parse(args); err != nil {
			return nil, "", err
		}
	}
	if flag := fs.Lookup("config"); flag != nil {
		path = flag.Value.String()
	}
	if !fs.Changed("config") {
		if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
			path = env
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, "", fmt.Errorf("%w: %s", config.ErrConfigFileNotFound, path)
	}

	mgr := config.NewManager(opts...)
	mgr.BindEnv(EnvPrefix)
	if err := mgr.LoadFile(path); err != nil {
		return nil, "", err
	}
	if err := mgr.Unmarshal(target); err != nil {
		return nil, "", err
	}
	return mgr, path, nil
}

// GetExecDir 获取可执行文件所在目录（处理符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}
