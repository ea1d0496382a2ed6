package bytebuff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolStats(t *testing.T) {
	p := New()
	buf := p.Get()
	assert.Zero(t, buf.Len())
	_, _ = buf.WriteString("welcome")
	p.Put(buf)
	p.Put(nil)

	again := p.Get()
	assert.Zero(t, again.Len(), "buffers come back reset")
	p.Put(again)

	gets, puts := p.Stats()
	assert.Equal(t, uint64(2), gets)
	assert.Equal(t, uint64(2), puts)
}

func TestLine(t *testing.T) {
	g0, p0 := Stats()
	buf := Line("done")
	assert.Equal(t, "done\n", buf.String())
	Put(buf)

	g1, p1 := Stats()
	assert.Equal(t, g0+1, g1)
	assert.Equal(t, p0+1, p1)
}
