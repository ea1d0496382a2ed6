package handler

// 响应令牌，每条命令恰好一行
const (
	ReplyWelcome      = "welcome"
	ReplyFull         = "full"
	ReplyOK           = "ok"
	ReplyAvailable    = "available"
	ReplyNotAvailable = "navailable"
	ReplyDone         = "done"
	ReplyConflict     = "conflict"
	ReplyFailed       = "failed"
	ReplyNotLoggedIn  = "nlogin"
	ReplyUnknown      = "unknown"
	ReplyCancelOK     = "cancel ok"
	ReplyBye          = "bye"
)

// Reply 命令处理结果
type Reply struct {
	Line string
	// Close 写出后关闭连接
	Close bool
}

func reply(line string) Reply { return Reply{Line: line} }
