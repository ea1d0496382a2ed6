package tcp

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type echoHandler struct {
	limit  int32
	open   atomic.Int32
	closed atomic.Int32
	ticks  atomic.Int32

	mu    sync.Mutex
	lines []string
}

func (h *echoHandler) OnOpen(c Conn) (string, bool) {
	if h.open.Inc() > h.limit {
		h.open.Dec()
		return "full", false
	}
	return "welcome", true
}

func (h *echoHandler) OnLine(c Conn, line string) {
	h.mu.Lock()
	h.lines = append(h.lines, line)
	h.mu.Unlock()

	switch line {
	case "quit":
		_ = c.WriteAndClose("bye")
	default:
		_ = c.WriteLine("echo " + line)
	}
}

func (h *echoHandler) OnClose(c Conn, err error) {
	h.closed.Inc()
}

func (h *echoHandler) OnTick(now time.Time) {
	h.ticks.Inc()
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func startAcceptor(t *testing.T, h Handler) string {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.Addr = freeAddr(t)
	cfg.Multicore = false
	cfg.MaxLineSize = 32
	cfg.TickInterval = 20 * time.Millisecond

	acc, err := NewAcceptor(cfg, h, nil)
	require.NoError(t, err)
	require.NoError(t, acc.Start())
	t.Cleanup(func() { _ = acc.Stop() })
	return cfg.Addr
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	cfg := DefaultClientConfig()
	cfg.Addr = addr
	cfg.ReadTimeout = 2 * time.Second
	c, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestAcceptorLines(t *testing.T) {
	h := &echoHandler{limit: 10}
	addr := startAcceptor(t, h)
	c := dial(t, addr)

	greeting, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "welcome", greeting)

	resp, err := c.Request("hello world")
	require.NoError(t, err)
	assert.Equal(t, "echo hello world", resp)

	// 一次写入多行且带 CRLF
	require.NoError(t, c.WriteLine("a\r\nb"))
	for _, want := range []string{"echo a", "echo b"} {
		got, err := c.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	resp, err = c.Request("quit")
	require.NoError(t, err)
	assert.Equal(t, "bye", resp)
	_, err = c.ReadLine()
	assert.Error(t, err)

	assert.Eventually(t, func() bool { return h.closed.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return h.ticks.Load() > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAcceptorReject(t *testing.T) {
	h := &echoHandler{limit: 1}
	addr := startAcceptor(t, h)

	first := dial(t, addr)
	greeting, err := first.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "welcome", greeting)

	second := dial(t, addr)
	greeting, err = second.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "full", greeting)
	_, err = second.ReadLine()
	assert.Error(t, err)
}

func TestAcceptorLineTooLong(t *testing.T) {
	h := &echoHandler{limit: 10}
	addr := startAcceptor(t, h)
	c := dial(t, addr)

	_, err := c.ReadLine()
	require.NoError(t, err)

	require.NoError(t, c.WriteLine(strings.Repeat("x", 64)))
	_, err = c.ReadLine()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return h.closed.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestAcceptorConcurrentClients(t *testing.T) {
	h := &echoHandler{limit: 100}
	addr := startAcceptor(t, h)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg := DefaultClientConfig()
			cfg.Addr = addr
			cfg.ReadTimeout = 2 * time.Second
			c, err := Dial(context.Background(), cfg)
			if !assert.NoError(t, err) {
				return
			}
			defer c.Close()
			if _, err := c.ReadLine(); err != nil {
				t.Error(err)
				return
			}
			msg := fmt.Sprintf("client-%d", i)
			resp, err := c.Request(msg)
			assert.NoError(t, err)
			assert.Equal(t, "echo "+msg, resp)
		}(i)
	}
	wg.Wait()
}

func TestServerConfigValidate(t *testing.T) {
	cfg := &ServerConfig{Addr: ":1"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "tcp", cfg.Network)
	assert.Equal(t, 1024, cfg.MaxLineSize)
	assert.Equal(t, time.Second, cfg.TickInterval)

	assert.ErrorIs(t, (&ServerConfig{}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&ServerConfig{Addr: ":1", IdleTimeout: -1}).Validate(), ErrInvalidConfig)

	_, err := NewAcceptor(&ServerConfig{Addr: ":1"}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
