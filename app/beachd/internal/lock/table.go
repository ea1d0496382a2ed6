package lock

import (
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"
)

var (
	// ErrNotHolder 调用方未持有该资源的选择锁
	ErrNotHolder = errors.New("lock: not held by caller")
	// ErrUnknownResource 资源编号越界
	ErrUnknownResource = errors.New("lock: unknown resource")
)

// Outcome TrySelect 的结果
type Outcome int

const (
	// Acquired 新获得锁
	Acquired Outcome = iota
	// Refreshed 调用方已持有该锁
	Refreshed
	// Busy 锁被其他会话持有
	Busy
)

func (o Outcome) String() string {
	switch o {
	case Acquired:
		return "acquired"
	case Refreshed:
		return "refreshed"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

type slot struct {
	mu     sync.Mutex
	holder string
}

// Table 选择锁表：每个资源至多一个持有者，从不阻塞等待其他会话
type Table struct {
	slots []slot
	held  atomic.Int64
}

// NewTable 为 size 个资源创建锁表
func NewTable(size int) *Table {
	return &Table{slots: make([]slot, size)}
}

func (t *Table) slot(r int) (*slot, error) {
	if r < 0 || r >= len(t.slots) {
		return nil, errors.Wrapf(ErrUnknownResource, "%d", r)
	}
	return &t.slots[r], nil
}

// TrySelect 尝试为 holder 获取资源 r 的锁
func (t *Table) TrySelect(r int, holder string) (Outcome, error) {
	s, err := t.slot(r)
	if err != nil {
		return Busy, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.holder {
	case "":
		s.holder = holder
		t.held.Inc()
		return Acquired, nil
	case holder:
		return Refreshed, nil
	default:
		return Busy, nil
	}
}

// Release 释放 holder 持有的锁，未持有时返回 false
func (t *Table) Release(r int, holder string) bool {
	s, err := t.slot(r)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.releaseLocked(s, holder)
}

func (t *Table) releaseLocked(s *slot, holder string) bool {
	if holder == "" || s.holder != holder {
		return false
	}
	s.holder = ""
	t.held.Dec()
	return true
}

// Holder 返回资源 r 的当前持有者
func (t *Table) Holder(r int) (string, bool) {
	s, err := t.slot(r)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holder, s.holder != ""
}

// Commit 在资源锁内确认 holder 持有锁并执行 fn，随后无论 fn 成败都释放锁。
// 持有者检查、fn 与释放对其他会话不可分割。
func (t *Table) Commit(r int, holder string, fn func() error) error {
	s, err := t.slot(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if holder == "" || s.holder != holder {
		return errors.Wrapf(ErrNotHolder, "resource %d", r)
	}
	defer t.releaseLocked(s, holder)
	return fn()
}

// HeldCount 当前被持有的锁数量
func (t *Table) HeldCount() int {
	return int(t.held.Load())
}
