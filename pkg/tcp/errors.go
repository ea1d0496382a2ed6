package tcp

import "errors"

var (
	// 配置错误
	ErrInvalidConfig = errors.New("tcp: invalid config")

	// 连接错误
	ErrConnectionClosed = errors.New("tcp: connection closed")
	ErrNotConnected     = errors.New("tcp: not connected")

	// 帧错误
	ErrLineTooLong = errors.New("tcp: line too long")

	// 服务器错误
	ErrServerAlreadyStarted = errors.New("tcp: server already started")
	ErrServerNotStarted     = errors.New("tcp: server not started")
)
