package metrics

import (
	"time"

	"github.com/lk2023060901/beachd/pkg/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

// 连接结果
const (
	ConnAdmitted = "admitted"
	ConnRejected = "rejected"
)

// 预订结果
const (
	OutcomeDone     = "done"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

// Metrics beachd 的业务指标
type Metrics struct {
	client *prometheus.Client

	connectionsActive *prometheus.GaugeVec
	connectionsTotal  *prometheus.CounterVec
	commandsTotal     *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	reservationsTotal *prometheus.CounterVec
	reservationsPrune *prometheus.CounterVec
}

// New 在 client 上注册全部指标；lockCount 在每次采集时读取当前持有的选择锁数量
func New(client *prometheus.Client, lockCount func() int) (*Metrics, error) {
	m := &Metrics{client: client}
	var err error

	if m.connectionsActive, err = client.NewGauge("connections_active", "Admitted connections currently open.", nil); err != nil {
		return nil, err
	}
	if m.connectionsTotal, err = client.NewCounter("connections_total", "Accepted connections by admission result.", []string{"result"}); err != nil {
		return nil, err
	}
	if m.commandsTotal, err = client.NewCounter("commands_total", "Commands processed by verb and response.", []string{"command", "result"}); err != nil {
		return nil, err
	}
	if m.commandDuration, err = client.NewHistogram("command_duration_seconds", "Command processing latency.",
		[]string{"command"}, prom.ExponentialBuckets(0.00005, 4, 8)); err != nil {
		return nil, err
	}
	if m.reservationsTotal, err = client.NewCounter("reservations_total", "Commit attempts by outcome.", []string{"outcome"}); err != nil {
		return nil, err
	}
	if m.reservationsPrune, err = client.NewCounter("reservations_pruned_total", "Reservations removed by the retention job.", nil); err != nil {
		return nil, err
	}

	if err := client.NewGaugeFunc("locks_held", "Selection locks currently held.", func() float64 {
		return float64(lockCount())
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// Client 底层 Prometheus 客户端
func (m *Metrics) Client() *prometheus.Client { return m.client }

// ConnectionOpened 记录准入结果
func (m *Metrics) ConnectionOpened(admitted bool) {
	if admitted {
		m.connectionsTotal.WithLabelValues(ConnAdmitted).Inc()
		m.connectionsActive.WithLabelValues().Inc()
		return
	}
	m.connectionsTotal.WithLabelValues(ConnRejected).Inc()
}

// ConnectionClosed 已准入连接关闭
func (m *Metrics) ConnectionClosed() {
	m.connectionsActive.WithLabelValues().Dec()
}

// Command 记录一条命令的响应与耗时
func (m *Metrics) Command(verb, result string, elapsed time.Duration) {
	m.commandsTotal.WithLabelValues(verb, result).Inc()
	m.commandDuration.WithLabelValues(verb).Observe(elapsed.Seconds())
}

// Reservation 记录一次提交结果
func (m *Metrics) Reservation(outcome string) {
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

// Pruned 记录清理数量
func (m *Metrics) Pruned(n int) {
	m.reservationsPrune.WithLabelValues().Add(float64(n))
}
