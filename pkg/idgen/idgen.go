package idgen

import "go.uber.org/atomic"

// Generator ID生成器接口
type Generator interface {
	// NextID 生成下一个唯一ID
	NextID() (int64, error)
}

// Sequence 进程内自增ID，从 1 开始
type Sequence struct {
	n atomic.Int64
}

// NewSequence 创建自增ID生成器
func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) NextID() (int64, error) {
	return s.n.Inc(), nil
}
