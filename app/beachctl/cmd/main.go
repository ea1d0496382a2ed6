package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/lk2023060901/beachd/pkg/tcp"
	"github.com/spf13/pflag"
)

func main() {
	cfg := tcp.DefaultClientConfig()
	pflag.StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "beachd address")
	pflag.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "dial timeout")
	pflag.DurationVar(&cfg.ReadTimeout, "read-timeout", 10*time.Second, "per-response read timeout, 0 disables")
	verbose := pflag.BoolP("verbose", "v", false, "debug logging")
	pflag.Parse()

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.WarnLevel
	if *verbose {
		logCfg.Level = logger.DebugLevel
	}
	l, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "beachctl: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	if err := run(context.Background(), cfg, os.Stdin, os.Stdout, l.Named("beachctl")); err != nil {
		l.Error("session ended", "error", err)
		os.Exit(1)
	}
}

// run 读取 in 中的每一行命令并把服务端响应写到 out，
// 收到 full 或 bye 后结束
func run(ctx context.Context, cfg *tcp.ClientConfig, in io.Reader, out io.Writer, l logger.Logger) error {
	c, err := tcp.Dial(ctx, cfg)
	if err != nil {
		return errors.Wrapf(err, "dial %s", cfg.Addr)
	}
	defer c.Close()
	l.Debug("connected", "addr", cfg.Addr)

	greeting, err := c.ReadLine()
	if err != nil {
		return errors.Wrap(err, "read greeting")
	}
	fmt.Fprintln(out, greeting)
	if greeting != "welcome" {
		return nil
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		l.Debug("send", "line", line)
		resp, err := c.Request(line)
		if errors.Is(err, tcp.ErrConnectionClosed) {
			fmt.Fprintln(out, "connection closed by server")
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "request %q", line)
		}
		fmt.Fprintln(out, resp)
		if resp == "bye" {
			return nil
		}
	}
	return sc.Err()
}
