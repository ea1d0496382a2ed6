package admission

import "go.uber.org/atomic"

// Controller 连接准入：至多 capacity 个连接同时在线，超出即拒绝，不排队
type Controller struct {
	capacity int32
	active   atomic.Int32
}

// New 创建准入控制器
func New(capacity int) *Controller {
	if capacity < 0 {
		capacity = 0
	}
	return &Controller{capacity: int32(capacity)}
}

// Admit 原子地检查并占用一个名额
func (c *Controller) Admit() bool {
	for {
		n := c.active.Load()
		if n >= c.capacity {
			return false
		}
		if c.active.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release 归还一个名额，计数不会低于零
func (c *Controller) Release() {
	for {
		n := c.active.Load()
		if n <= 0 {
			return
		}
		if c.active.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Active 当前在线数
func (c *Controller) Active() int { return int(c.active.Load()) }

// Capacity 容量
func (c *Controller) Capacity() int { return int(c.capacity) }
