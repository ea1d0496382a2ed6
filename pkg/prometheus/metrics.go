package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

func (c *Client) opts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// NewCounter 创建并注册 Counter
func (c *Client) NewCounter(name, help string, labels []string) (*CounterVec, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts(c.opts(name, help)), labels)
	if err := c.register(name, counter); err != nil {
		return nil, err
	}
	return counter, nil
}

// MustNewCounter 创建 Counter，失败则 panic
func (c *Client) MustNewCounter(name, help string, labels []string) *CounterVec {
	return must(c.NewCounter(name, help, labels))
}

// NewGauge 创建并注册 Gauge
func (c *Client) NewGauge(name, help string, labels []string) (*GaugeVec, error) {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts(c.opts(name, help)), labels)
	if err := c.register(name, gauge); err != nil {
		return nil, err
	}
	return gauge, nil
}

// MustNewGauge 创建 Gauge，失败则 panic
func (c *Client) MustNewGauge(name, help string, labels []string) *GaugeVec {
	return must(c.NewGauge(name, help, labels))
}

// NewGaugeFunc 注册采集时回调 fn 取值的 Gauge
func (c *Client) NewGaugeFunc(name, help string, fn func() float64) error {
	return c.register(name, prometheus.NewGaugeFunc(prometheus.GaugeOpts(c.opts(name, help)), fn))
}

// NewHistogram 创建并注册 Histogram，buckets 为 nil 时使用默认分桶
func (c *Client) NewHistogram(name, help string, labels []string, buckets []float64) (*HistogramVec, error) {
	o := c.opts(name, help)
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: o.Namespace,
		Subsystem: o.Subsystem,
		Name:      o.Name,
		Help:      o.Help,
		Buckets:   buckets,
	}, labels)
	if err := c.register(name, histogram); err != nil {
		return nil, err
	}
	return histogram, nil
}

// MustNewHistogram 创建 Histogram，失败则 panic
func (c *Client) MustNewHistogram(name, help string, labels []string, buckets []float64) *HistogramVec {
	return must(c.NewHistogram(name, help, labels, buckets))
}

// RegisterCollector 注册自定义采集器（不参与重名检查）
func (c *Client) RegisterCollector(collector Collector) error {
	if c.IsClosed() {
		return ErrClientClosed
	}
	return c.registry.Register(collector)
}
