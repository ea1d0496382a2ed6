package system

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Collector 进程资源采集器，实现 Start/Stop 以便交给应用生命周期管理
type Collector struct {
	proc     *process.Process
	interval time.Duration

	mu     sync.RWMutex
	stats  Stats
	stopCh chan struct{}
	doneCh chan struct{}
}

// Stats 进程统计数据
type Stats struct {
	// CPU 使用率 (0-100)
	CPUPercent float64 `json:"cpu_percent"`
	// 常驻内存占物理内存的百分比
	MemoryPercent float64 `json:"memory_percent"`
	// 常驻内存字节数
	MemoryBytes uint64 `json:"memory_bytes"`
	// Goroutine 数量
	Goroutines int `json:"goroutines"`
	// 更新时间
	UpdatedAt time.Time `json:"updated_at"`
}

// New 创建采集器，interval<=0 时为 5 秒
func New(interval time.Duration) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Collector{proc: proc, interval: interval}, nil
}

// Start 立即采集一次并启动定期采集
func (c *Collector) Start() error {
	c.mu.Lock()
	if c.stopCh != nil {
		c.mu.Unlock()
		return nil
	}
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	stop, done := c.stopCh, c.doneCh
	c.mu.Unlock()

	c.Collect()
	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-stop:
				return
			}
		}
	}()
	return nil
}

// Stop 停止采集并等待后台 goroutine 退出
func (c *Collector) Stop() error {
	c.mu.Lock()
	stop, done := c.stopCh, c.doneCh
	c.stopCh, c.doneCh = nil, nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

// Collect 执行一次采集
func (c *Collector) Collect() {
	var stats Stats

	if cpuPercent, err := c.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpuPercent
	}
	if memInfo, err := c.proc.MemoryInfo(); err == nil {
		stats.MemoryBytes = memInfo.RSS
		if vm, err := mem.VirtualMemory(); err == nil && vm.Total > 0 {
			stats.MemoryPercent = float64(memInfo.RSS) / float64(vm.Total) * 100
		}
	}
	stats.Goroutines = runtime.NumGoroutine()
	stats.UpdatedAt = time.Now()

	c.mu.Lock()
	c.stats = stats
	c.mu.Unlock()
}

// Stats 最近一次采集结果
func (c *Collector) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
