package session

import (
	"sync"
	"time"

	"github.com/lk2023060901/beachd/pkg/tcp"
)

// Manager 会话注册表
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session // connID -> Session
	queueSize int
}

// NewManager 创建会话管理器，queueSize 为每个会话的待处理命令上限
func NewManager(queueSize int) *Manager {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		queueSize: queueSize,
	}
}

// Open 为已准入连接创建并注册会话
func (m *Manager) Open(conn tcp.Conn, now time.Time) *Session {
	s := newSession(conn, m.queueSize, now)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[conn.ID()] = s
	return s
}

// Get 获取会话
func (m *Manager) Get(connID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[connID]
	return s, ok
}

// Close 注销会话，只有第一次调用返回 true
func (m *Manager) Close(connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[connID]; !ok {
		return false
	}
	delete(m.sessions, connID)
	return true
}

// Count 当前会话数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// LoggedInCount 已登录会话数
func (m *Manager) LoggedInCount() int {
	n := 0
	m.Range(func(s *Session) bool {
		if s.LoggedIn() {
			n++
		}
		return true
	})
	return n
}

// Range 遍历会话，fn 返回 false 时停止
func (m *Manager) Range(fn func(*Session) bool) {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	for _, s := range list {
		if !fn(s) {
			return
		}
	}
}

// IdleSince 返回最近活动早于 deadline 的会话
func (m *Manager) IdleSince(deadline time.Time) []*Session {
	var idle []*Session
	m.Range(func(s *Session) bool {
		if s.LastActive().Before(deadline) {
			idle = append(idle, s)
		}
		return true
	})
	return idle
}
