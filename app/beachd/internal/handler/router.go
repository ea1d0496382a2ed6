package handler

import (
	"context"
	"sync"

	"github.com/lk2023060901/beachd/app/beachd/internal/session"
)

// CommandFunc 命令处理函数，args 不含动词
type CommandFunc func(ctx context.Context, s *session.Session, args []string) Reply

// Command 一条命令的注册信息
type Command struct {
	// MinArgs/MaxArgs 参数个数范围（不含动词）
	MinArgs int
	MaxArgs int
	// Public 未登录也可执行
	Public bool
	Fn     CommandFunc
}

// Router 按动词路由命令
type Router struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRouter 创建路由器
func NewRouter() *Router {
	return &Router{
		commands: make(map[string]Command),
	}
}

// Register 注册命令
func (r *Router) Register(verb string, cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[verb] = cmd
}

// Has 动词是否已注册
func (r *Router) Has(verb string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[verb]
	return ok
}

// Dispatch 调度命令：未知动词与参数个数不符返回 unknown，未登录返回 nlogin
func (r *Router) Dispatch(ctx context.Context, s *session.Session, verb string, args []string) Reply {
	r.mu.RLock()
	cmd, ok := r.commands[verb]
	r.mu.RUnlock()

	if !ok {
		return reply(ReplyUnknown)
	}
	if !cmd.Public && !s.LoggedIn() {
		return reply(ReplyNotLoggedIn)
	}
	if len(args) < cmd.MinArgs || len(args) > cmd.MaxArgs {
		return reply(ReplyUnknown)
	}
	return cmd.Fn(ctx, s, args)
}
