package session

import "github.com/cockroachdb/errors"

var (
	// ErrQueueFull 待处理命令队列已满
	ErrQueueFull = errors.New("session: command queue full")

	// ErrProcessorStarted 串行处理器已启动
	ErrProcessorStarted = errors.New("session: processor already started")
)
