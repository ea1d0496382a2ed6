package tcp

import (
	"github.com/google/uuid"
	"github.com/lk2023060901/beachd/pkg/pool/bytebuff"
	"github.com/panjf2000/gnet/v2"
	"go.uber.org/atomic"
)

// Conn 行协议连接。WriteLine/WriteAndClose/Close 可在任意 goroutine 调用。
type Conn interface {
	ID() string
	RemoteAddr() string
	// WriteLine 异步写出一行，自动追加 '\n'
	WriteLine(line string) error
	// WriteAndClose 写出最后一行后关闭连接
	WriteAndClose(line string) error
	Close() error
}

// gnetConn 把 gnet.Conn 适配为 Conn
type gnetConn struct {
	id     string
	remote string
	c      gnet.Conn
	closed atomic.Bool
}

func newGnetConn(c gnet.Conn) *gnetConn {
	remote := ""
	if addr := c.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &gnetConn{
		id:     uuid.New().String(),
		remote: remote,
		c:      c,
	}
}

func (g *gnetConn) ID() string         { return g.id }
func (g *gnetConn) RemoteAddr() string { return g.remote }

func (g *gnetConn) WriteLine(line string) error {
	if g.closed.Load() {
		return ErrConnectionClosed
	}
	// 出错时任务可能已入队，缓冲只在回调中归还
	buf := bytebuff.Line(line)
	return g.c.AsyncWrite(buf.B, func(gnet.Conn, error) error {
		bytebuff.Put(buf)
		return nil
	})
}

func (g *gnetConn) WriteAndClose(line string) error {
	if !g.closed.CompareAndSwap(false, true) {
		return ErrConnectionClosed
	}
	// 回调运行在事件循环内，保证先写后关；写入时数据已拷入出站缓冲，可以归还
	buf := bytebuff.Line(line)
	return g.c.AsyncWrite(buf.B, func(c gnet.Conn, _ error) error {
		bytebuff.Put(buf)
		return c.Close()
	})
}

func (g *gnetConn) Close() error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil
	}
	return g.c.CloseWithCallback(nil)
}

func appendNewline(line string) []byte {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	return append(buf, '\n')
}
