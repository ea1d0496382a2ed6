package retention

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/beachd/app/beachd/internal/catalog"
	"github.com/lk2023060901/beachd/app/beachd/internal/metrics"
	"github.com/lk2023060901/beachd/app/beachd/internal/reservation"
	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Config 过期预订清理配置
type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
	// 结束日期早于 今天-KeepDays 的预订会被删除；营业季结束后不再清理
	KeepDays int `mapstructure:"keep_days" validate:"gte=0"`
}

// DefaultConfig 默认每天清理，保留 30 天，默认关闭
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Schedule: "@daily",
		KeepDays: 30,
	}
}

// Job 定时清理任务，实现 Start/Stop
type Job struct {
	cfg     Config
	cron    *cron.Cron
	store   *reservation.Store
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	logger  logger.Logger
}

// New 创建清理任务，Schedule 支持标准五段表达式与 @daily 等描述符
func New(cfg Config, store *reservation.Store, cat *catalog.Catalog, m *metrics.Metrics, l logger.Logger) (*Job, error) {
	if cfg.KeepDays < 0 {
		return nil, errors.Newf("retention: keep_days must not be negative, got %d", cfg.KeepDays)
	}
	if l == nil {
		l = logger.NewNoop()
	}
	l = l.Named("retention")

	j := &Job{
		cfg:     cfg,
		store:   store,
		catalog: cat,
		metrics: m,
		logger:  l,
		cron:    cron.New(cron.WithLogger(cronLogger{l})),
	}
	if _, err := j.cron.AddFunc(cfg.Schedule, func() { j.Run() }); err != nil {
		return nil, errors.Wrapf(err, "retention: invalid schedule %q", cfg.Schedule)
	}
	return j, nil
}

// Run 立即执行一次清理，返回删除数量。
// 营业季已整体结束时不清理，否则过期的季配置会清空全部预订。
func (j *Job) Run() int {
	today := j.catalog.Today()
	if season := j.catalog.Season(); today > season.End {
		j.logger.Warn("season is over, skipping prune",
			"season_end", season.End.String(), "today", today.String(), "reservations", j.store.Count())
		return 0
	}

	cutoff := today.AddDays(-j.cfg.KeepDays)
	n := j.store.Prune(cutoff)
	if j.metrics != nil && n > 0 {
		j.metrics.Pruned(n)
	}
	j.logger.Info("reservations pruned", "before", cutoff.String(), "count", n, "remaining", j.store.Count())
	return n
}

// Start 启动调度
func (j *Job) Start() error {
	j.cron.Start()
	j.logger.Info("retention job scheduled", "schedule", j.cfg.Schedule, "keep_days", j.cfg.KeepDays)
	return nil
}

// Stop 停止调度并等待正在运行的清理结束
func (j *Job) Stop() error {
	ctx := j.cron.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(10 * time.Second):
		return errors.New("retention: timed out waiting for running job")
	}
}

// cronLogger 把 cron 的日志接到 pkg/logger
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
