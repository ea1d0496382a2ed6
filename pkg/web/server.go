package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/lk2023060901/beachd/pkg/web/middleware"
)

// Server Web 服务核心结构，实现 Start/Stop 以便交给应用生命周期管理
type Server struct {
	engine *gin.Engine
	config *Config
	logger logger.Logger

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// NewServer 创建 Web 服务
func NewServer(cfg *Config, l logger.Logger, extra ...gin.HandlerFunc) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = logger.Default()
	}

	gin.SetMode(cfg.Mode)
	engine := gin.New()

	// 恢复中间件放在最内层，外层中间件仍能看到 500 状态
	engine.Use(middleware.Logger(l.Named("web.access")))
	if len(cfg.CORSOrigins) > 0 {
		engine.Use(middleware.CORS(cfg.CORSOrigins))
	}
	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit,
			Burst:             cfg.Burst,
			PerIP:             cfg.RateLimitPerIP,
		})
		engine.Use(middleware.RateLimit(limiter, l.Named("web.ratelimit")))
	}
	engine.Use(extra...)
	engine.Use(middleware.Recovery(l))

	return &Server{
		engine: engine,
		config: cfg,
		logger: l.Named("web.server"),
	}, nil
}

// Router 返回 Gin 引擎，用于注册路由
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Handler 返回 http.Handler 接口
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr 实际监听地址，启动前为 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start 监听端口并在后台提供服务
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return ErrServerAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()
	s.server = &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	srv := s.server
	go func() {
		s.logger.Info("starting http server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "error", err)
		}
	}()
	return nil
}

// Stop 优雅关机，5 秒超时
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return ErrServerNotStarted
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("http server exited")
	return nil
}
