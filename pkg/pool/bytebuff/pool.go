// Package bytebuff 基于 valyala/bytebufferpool 的写缓冲池
package bytebuff

import (
	"github.com/valyala/bytebufferpool"
	"go.uber.org/atomic"
)

// Pool 带统计的 ByteBuffer 池
type Pool struct {
	pool bytebufferpool.Pool
	gets atomic.Uint64
	puts atomic.Uint64
}

var defaultPool = New()

// New 创建一个新的 buffer pool
func New() *Pool {
	return &Pool{}
}

// Get 从池中获取一个已清空的 ByteBuffer
func (p *Pool) Get() *bytebufferpool.ByteBuffer {
	p.gets.Inc()
	return p.pool.Get()
}

// Put 将 ByteBuffer 归还到池中，归还后不得再使用
func (p *Pool) Put(buf *bytebufferpool.ByteBuffer) {
	if buf == nil {
		return
	}
	p.puts.Inc()
	p.pool.Put(buf)
}

// Stats 返回获取与归还次数，二者之差为尚未归还的数量
func (p *Pool) Stats() (gets, puts uint64) {
	return p.gets.Load(), p.puts.Load()
}

// Line 从默认池取一个缓冲，写入 line 和换行符
func Line(line string) *bytebufferpool.ByteBuffer {
	buf := defaultPool.Get()
	_, _ = buf.WriteString(line)
	_ = buf.WriteByte('\n')
	return buf
}

// Put 归还到默认池
func Put(buf *bytebufferpool.ByteBuffer) {
	defaultPool.Put(buf)
}

// Stats 默认池的统计信息
func Stats() (gets, puts uint64) {
	return defaultPool.Stats()
}
