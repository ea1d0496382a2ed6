package handler

import (
	"context"
	"time"

	"github.com/lk2023060901/beachd/app/beachd/internal/admission"
	"github.com/lk2023060901/beachd/app/beachd/internal/booking"
	"github.com/lk2023060901/beachd/app/beachd/internal/metrics"
	"github.com/lk2023060901/beachd/app/beachd/internal/session"
	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/lk2023060901/beachd/pkg/tcp"
	"github.com/panjf2000/ants/v2"
)

// Options 连接处理参数
type Options struct {
	// 每个会话最多排队的命令数，超出即断开
	QueueSize int
	// 空闲超时，0 表示不检测
	IdleTimeout time.Duration
	// 时间源，默认 time.Now
	Clock func() time.Time
}

// Server 把 tcp.Acceptor 的连接事件接到准入、会话与命令调度上。
// 实现 tcp.Handler 与 tcp.Ticker。
type Server struct {
	opts       Options
	admission  *admission.Controller
	sessions   *session.Manager
	booking    *booking.Service
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
	logger     logger.Logger

	pool   *ants.Pool
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer 创建连接处理器。工作池大小为两倍准入容量：
// 已释放名额但 teardown 尚未返回的处理器至多与在线会话一样多。
func NewServer(opts Options, adm *admission.Controller, sessions *session.Manager, svc *booking.Service,
	d *Dispatcher, m *metrics.Metrics, l logger.Logger) (*Server, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if l == nil {
		l = logger.NewNoop()
	}

	size := 2 * adm.Capacity()
	if size <= 0 {
		size = 1
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(true), ants.WithPanicHandler(func(p interface{}) {
		l.Error("session processor panic", "panic", p)
	}))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		opts:       opts,
		admission:  adm,
		sessions:   sessions,
		booking:    svc,
		dispatcher: d,
		metrics:    m,
		logger:     l.Named("server"),
		pool:       pool,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// OnOpen 准入检查：成功则创建会话并启动串行处理器
func (srv *Server) OnOpen(c tcp.Conn) (string, bool) {
	if !srv.admission.Admit() {
		srv.recordOpen(false)
		srv.logger.Info("connection rejected, server full",
			"conn_id", c.ID(), "addr", c.RemoteAddr(), "capacity", srv.admission.Capacity())
		return ReplyFull, false
	}

	s := srv.sessions.Open(c, srv.opts.Clock())
	err := s.StartProcessor(srv.ctx, srv.pool,
		func(line string) { srv.dispatcher.Handle(s, line) },
		func() { srv.teardown(s) },
	)
	if err != nil {
		srv.sessions.Close(c.ID())
		srv.admission.Release()
		srv.recordOpen(false)
		srv.logger.Error("failed to start session processor", "conn_id", c.ID(), "error", err)
		return ReplyFull, false
	}

	srv.recordOpen(true)
	srv.logger.Info("client connected",
		"conn_id", c.ID(), "addr", c.RemoteAddr(), "active", srv.admission.Active())
	return ReplyWelcome, true
}

// OnLine 把一行命令投递到会话队列，队列满则断开
func (srv *Server) OnLine(c tcp.Conn, line string) {
	s, ok := srv.sessions.Get(c.ID())
	if !ok {
		return
	}
	s.Touch(srv.opts.Clock())
	if err := s.PushTask(line); err != nil {
		srv.logger.Warn("command queue full, closing connection", "conn_id", c.ID(), "error", err)
		_ = c.Close()
	}
}

// OnClose 停止会话处理器，清理在处理器内完成
func (srv *Server) OnClose(c tcp.Conn, err error) {
	if s, ok := srv.sessions.Get(c.ID()); ok {
		s.Stop()
	}
}

// OnTick 关闭空闲超时的连接
func (srv *Server) OnTick(now time.Time) {
	if srv.opts.IdleTimeout <= 0 {
		return
	}
	for _, s := range srv.sessions.IdleSince(now.Add(-srv.opts.IdleTimeout)) {
		srv.logger.Info("closing idle connection",
			"conn_id", s.ID(), "idle", now.Sub(s.LastActive()).Round(time.Millisecond))
		_ = s.Conn().Close()
	}
}

// teardown 断开时的隐式取消：释放选择锁、注销会话、归还准入名额，各一次
func (srv *Server) teardown(s *session.Session) {
	released := srv.booking.ReleaseSession(s)
	if !srv.sessions.Close(s.ID()) {
		return
	}
	srv.admission.Release()
	if srv.metrics != nil {
		srv.metrics.ConnectionClosed()
	}
	srv.logger.Info("client disconnected",
		"conn_id", s.ID(), "user", s.Identity(), "released_lock", released, "active", srv.admission.Active())
}

func (srv *Server) recordOpen(admitted bool) {
	if srv.metrics != nil {
		srv.metrics.ConnectionOpened(admitted)
	}
}

// Close 停止所有会话处理器并释放工作池
func (srv *Server) Close() error {
	srv.cancel()
	return srv.pool.ReleaseTimeout(5 * time.Second)
}
