package main

import (
	"fmt"
	"os"

	"github.com/lk2023060901/beachd/app/beachd/internal/admin"
	"github.com/lk2023060901/beachd/app/beachd/internal/admission"
	"github.com/lk2023060901/beachd/app/beachd/internal/booking"
	"github.com/lk2023060901/beachd/app/beachd/internal/catalog"
	"github.com/lk2023060901/beachd/app/beachd/internal/handler"
	"github.com/lk2023060901/beachd/app/beachd/internal/lock"
	"github.com/lk2023060901/beachd/app/beachd/internal/metrics"
	"github.com/lk2023060901/beachd/app/beachd/internal/reservation"
	"github.com/lk2023060901/beachd/app/beachd/internal/retention"
	"github.com/lk2023060901/beachd/app/beachd/internal/session"
	"github.com/lk2023060901/beachd/pkg/app"
	"github.com/lk2023060901/beachd/pkg/config"
	"github.com/lk2023060901/beachd/pkg/idgen"
	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/lk2023060901/beachd/pkg/metrics/system"
	"github.com/lk2023060901/beachd/pkg/otel"
	"github.com/lk2023060901/beachd/pkg/prometheus"
	"github.com/lk2023060901/beachd/pkg/tcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "beachd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config

	// 1. 加载配置
	mgr, path, err := app.LoadConfig(&cfg, app.LoadOptions{}, configOptions()...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	// 2. 初始化日志
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	logger.SetDefault(l)
	l.Info("config loaded", "path", path)

	// 3. 资源目录、选择锁表与预订表
	cat, err := catalog.New(cfg.Season, nil)
	if err != nil {
		return err
	}
	locks := lock.NewTable(cat.Size())
	ids, err := idgen.NewSonyflake(cfg.Reservation.MachineID)
	if err != nil {
		return err
	}
	store := reservation.NewStore(cat.Size(), nil, reservation.WithIDGenerator(ids))
	svc := booking.NewService(cat, locks, store, l)

	// 4. 指标
	promClient, err := prometheus.New(&cfg.Metrics)
	if err != nil {
		return err
	}
	m, err := metrics.New(promClient, locks.HeldCount)
	if err != nil {
		return err
	}

	// 5. 链路追踪，未启用时为 noop
	tp, err := otel.New(&cfg.Tracing)
	if err != nil {
		return err
	}
	if tp.IsEnabled() {
		tp.SetGlobal()
	}

	// 6. 准入、会话与命令调度
	adm := admission.New(cfg.Admission.Capacity)
	sessions := session.NewManager(cfg.Server.QueueSize)
	dispatcher := handler.NewDispatcher(svc, m, l, handler.WithTracer(tp.Tracer("beachd/handler")))
	connHandler, err := handler.NewServer(handler.Options{
		QueueSize:   cfg.Server.QueueSize,
		IdleTimeout: cfg.Server.IdleTimeout,
	}, adm, sessions, svc, dispatcher, m, l)
	if err != nil {
		return err
	}

	// 7. TCP 接入
	acceptor, err := tcp.NewAcceptor(&cfg.Server.ServerConfig, connHandler, l)
	if err != nil {
		return err
	}

	// 8. 创建应用并注册服务
	application := app.NewBaseApp(
		app.WithName("beachd"),
		app.WithLogger(l),
	)
	application.AppendServer(acceptor)

	if cfg.Admin.Enabled {
		deps := admin.Deps{
			Admission: adm,
			Sessions:  sessions,
			Booking:   svc,
			Metrics:   promClient,
		}
		if tp.IsEnabled() {
			deps.Tracing = tp.Provider()
		}
		if cfg.Admin.ProcessInterval > 0 {
			collector, err := system.New(cfg.Admin.ProcessInterval)
			if err != nil {
				return err
			}
			deps.Process = collector
			application.AppendServer(collector)
		}
		adminSrv, err := admin.NewServer(&cfg.Admin.Config, deps, l)
		if err != nil {
			return err
		}
		application.AppendServer(adminSrv)
	}

	if cfg.Retention.Enabled {
		job, err := retention.New(cfg.Retention, store, cat, m, l)
		if err != nil {
			return err
		}
		application.AppendServer(job)
	}

	application.AppendCloser(tp, promClient, connHandler)

	// 9. 配置热更新：只重新应用日志级别
	if err := mgr.Watch(func() { reloadLogLevel(mgr, l) }); err != nil {
		l.Warn("config watch disabled", "error", err)
	}

	l.Info("beachd configured",
		"addr", cfg.Server.Addr,
		"capacity", cfg.Admission.Capacity,
		"resources", cat.Size(),
		"season_start", cfg.Season.Start.String(),
		"season_end", cfg.Season.End.String(),
		"admin", cfg.Admin.Enabled,
		"retention", cfg.Retention.Enabled,
		"tracing", tp.IsEnabled(),
	)

	// 10. 运行
	return application.Run()
}

func reloadLogLevel(mgr config.Manager, l logger.Logger) {
	level := logger.Level(mgr.GetString(reloadKey))
	cfg := logger.Config{Level: level}
	if err := config.NewValidator().Validate(&cfg); err != nil || level == "" {
		l.Warn("ignoring invalid log level on reload", "level", level)
		return
	}
	l.SetLevel(level)
	l.Info("log level reloaded", "level", level)
}
