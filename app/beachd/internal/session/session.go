package session

import (
	"context"
	"sync"
	"time"

	"github.com/lk2023060901/beachd/pkg/tcp"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
)

// State 会话预订状态
type State int

const (
	// Idle 未持有选择锁
	Idle State = iota
	// Selected 持有某个资源的选择锁
	Selected
)

func (s State) String() string {
	if s == Selected {
		return "selected"
	}
	return "idle"
}

// Session 一个已准入连接对应的会话：身份、预订状态与命令串行处理器
type Session struct {
	conn      tcp.Conn
	createdAt time.Time

	mu       sync.RWMutex
	identity string
	state    State
	resource int

	lastActive atomic.Int64

	taskCh chan string
	cancel context.CancelFunc
}

func newSession(conn tcp.Conn, queueSize int, now time.Time) *Session {
	s := &Session{
		conn:      conn,
		createdAt: now,
		taskCh:    make(chan string, queueSize),
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// ID 会话 ID，即连接 ID，也是选择锁的持有者标识
func (s *Session) ID() string { return s.conn.ID() }

// Conn 底层连接
func (s *Session) Conn() tcp.Conn { return s.conn }

// RemoteAddr 对端地址
func (s *Session) RemoteAddr() string { return s.conn.RemoteAddr() }

// CreatedAt 会话创建时间
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Login 绑定（或重新绑定）身份
func (s *Session) Login(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
}

// Identity 当前身份，未登录时为空
func (s *Session) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// LoggedIn 是否已登录
func (s *Session) LoggedIn() bool {
	return s.Identity() != ""
}

// Selection 返回当前选中的资源
func (s *Session) Selection() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resource, s.state == Selected
}

// State 当前预订状态
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Select 进入 Selected(r)
func (s *Session) Select(r int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Selected
	s.resource = r
}

// Clear 回到 Idle
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.resource = 0
}

// Touch 记录活动时间
func (s *Session) Touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

// LastActive 最近一次活动时间
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// StartProcessor 在 pool 上启动串行处理器：命令按入队顺序逐条交给 handle，
// ctx 取消后执行一次 teardown 并退出。
func (s *Session) StartProcessor(ctx context.Context, pool *ants.Pool, handle func(line string), teardown func()) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrProcessorStarted
	}
	pCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	return pool.Submit(func() {
		defer teardown()
		for {
			select {
			case <-pCtx.Done():
				return
			case line := <-s.taskCh:
				// 已断开的会话不再处理积压命令
				if pCtx.Err() != nil {
					return
				}
				handle(line)
			}
		}
	})
}

// PushTask 投递一条命令，队列满时返回 ErrQueueFull
func (s *Session) PushTask(line string) error {
	select {
	case s.taskCh <- line:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop 停止串行处理器，teardown 随后在处理器内执行
func (s *Session) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	s.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Snapshot 会话只读快照
type Snapshot struct {
	ID         string    `json:"id"`
	RemoteAddr string    `json:"remote_addr"`
	Identity   string    `json:"identity"`
	State      string    `json:"state"`
	Resource   *int      `json:"resource,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Snapshot 生成快照
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:         s.conn.ID(),
		RemoteAddr: s.conn.RemoteAddr(),
		Identity:   s.identity,
		State:      s.state.String(),
		CreatedAt:  s.createdAt,
		LastActive: time.Unix(0, s.lastActive.Load()),
	}
	if s.state == Selected {
		r := s.resource
		snap.Resource = &r
	}
	return snap
}
