package tcp

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/panjf2000/gnet/v2"
	"go.uber.org/atomic"
)

// Handler 行协议事件处理器。
// OnOpen 返回问候行，accept 为 false 时写出问候后立即关闭连接；
// 被拒绝的连接同样会收到 OnClose。
type Handler interface {
	OnOpen(c Conn) (greeting string, accept bool)
	OnLine(c Conn, line string)
	OnClose(c Conn, err error)
}

// Ticker 可选接口，Handler 实现后按 TickInterval 周期回调
type Ticker interface {
	OnTick(now time.Time)
}

// Acceptor 基于 gnet 的行协议接入器
type Acceptor struct {
	gnet.BuiltinEventEngine
	config  *ServerConfig
	handler Handler
	logger  logger.Logger

	mu      sync.Mutex
	engine  gnet.Engine
	booted  chan struct{}
	started atomic.Bool
	runErr  chan error
}

// NewAcceptor 创建接入器
func NewAcceptor(cfg *ServerConfig, handler Handler, l logger.Logger) (*Acceptor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: handler is required", ErrInvalidConfig)
	}
	if l == nil {
		l = logger.NewNoop()
	}
	return &Acceptor{
		config:  cfg,
		handler: handler,
		logger:  l.Named("tcp.acceptor"),
		booted:  make(chan struct{}),
		runErr:  make(chan error, 1),
	}, nil
}

// Start 启动事件循环，监听成功或失败后返回
func (a *Acceptor) Start() error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrServerAlreadyStarted
	}

	_, ticks := a.handler.(Ticker)
	opts := []gnet.Option{
		gnet.WithMulticore(a.config.Multicore),
		gnet.WithReusePort(a.config.ReusePort),
		gnet.WithReuseAddr(a.config.ReuseAddr),
		gnet.WithTCPKeepAlive(a.config.TCPKeepAlive),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
		gnet.WithTicker(ticks),
	}
	if a.config.NumEventLoop > 0 {
		opts = append(opts, gnet.WithNumEventLoop(a.config.NumEventLoop))
	}

	protoAddr := fmt.Sprintf("%s://%s", a.config.Network, a.config.Addr)
	go func() {
		a.runErr <- gnet.Run(a, protoAddr, opts...)
	}()

	select {
	case err := <-a.runErr:
		a.started.Store(false)
		return err
	case <-a.booted:
		a.logger.Info("tcp acceptor listening", "addr", protoAddr)
		return nil
	}
}

// Stop 停止事件循环，gnet 会为每个存活连接回调 OnClose
func (a *Acceptor) Stop() error {
	select {
	case <-a.booted:
	default:
		return ErrServerNotStarted
	}
	a.mu.Lock()
	eng := a.engine
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := eng.Stop(ctx); err != nil {
		return err
	}
	a.logger.Info("tcp acceptor stopped")
	return nil
}

// OnBoot 实现 gnet.EventHandler
func (a *Acceptor) OnBoot(eng gnet.Engine) gnet.Action {
	a.mu.Lock()
	a.engine = eng
	a.mu.Unlock()
	close(a.booted)
	return gnet.None
}

// OnOpen 实现 gnet.EventHandler
func (a *Acceptor) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	conn := newGnetConn(c)
	c.SetContext(conn)

	greeting, accept := a.handler.OnOpen(conn)
	out := appendNewline(greeting)
	if !accept {
		conn.closed.Store(true)
		return out, gnet.Close
	}
	return out, gnet.None
}

// OnClose 实现 gnet.EventHandler
func (a *Acceptor) OnClose(c gnet.Conn, err error) gnet.Action {
	if conn, ok := c.Context().(*gnetConn); ok {
		conn.closed.Store(true)
		a.handler.OnClose(conn, err)
	}
	return gnet.None
}

// OnTraffic 按 '\n' 切分入站数据，逐行交给 Handler
func (a *Acceptor) OnTraffic(c gnet.Conn) gnet.Action {
	conn, ok := c.Context().(*gnetConn)
	if !ok {
		return gnet.Close
	}

	for {
		buf, err := c.Peek(-1)
		if err != nil || len(buf) == 0 {
			return gnet.None
		}
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			if len(buf) > a.config.MaxLineSize {
				a.logger.Warn("line too long, closing connection",
					"conn_id", conn.ID(), "buffered", len(buf), "max", a.config.MaxLineSize)
				return gnet.Close
			}
			return gnet.None
		}
		if idx > a.config.MaxLineSize {
			a.logger.Warn("line too long, closing connection",
				"conn_id", conn.ID(), "length", idx, "max", a.config.MaxLineSize)
			return gnet.Close
		}

		// Peek 返回的切片在 Discard 后失效，先拷贝
		line := string(bytes.TrimRight(buf[:idx], "\r"))
		if _, err := c.Discard(idx + 1); err != nil {
			return gnet.Close
		}
		a.handler.OnLine(conn, line)
	}
}

// OnTick 实现 gnet.EventHandler
func (a *Acceptor) OnTick() (time.Duration, gnet.Action) {
	if t, ok := a.handler.(Ticker); ok {
		t.OnTick(time.Now())
	}
	return a.config.TickInterval, gnet.None
}
