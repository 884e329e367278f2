package lob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolAcquireReleaseCycle(t *testing.T) {
	p := NewPool(4)
	assert.Equal(t, 4, p.Available())
	assert.Equal(t, 0, p.Len())

	h1 := p.Acquire()
	h2 := p.Acquire()
	assert.NotEqual(t, NullOrder, h1)
	assert.NotEqual(t, NullOrder, h2)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 2, p.Len())

	p.Release(h1)
	assert.Equal(t, 1, p.Len())

	h3 := p.Acquire()
	assert.Equal(t, h1, h3, "freed handle should be reused LIFO")
}

func TestPoolExhaustionPanics(t *testing.T) {
	p := NewPool(1)
	p.Acquire()
	assert.PanicsWithValue(t, ErrPoolExhausted, func() { p.Acquire() })
}

func TestPoolReleaseForeignHandlePanics(t *testing.T) {
	p := NewPool(2)
	assert.PanicsWithValue(t, ErrForeignHandle, func() { p.Release(NullOrder) })
	assert.PanicsWithValue(t, ErrForeignHandle, func() { p.Release(OrderHandle(99)) })
}

func TestPoolUtilization(t *testing.T) {
	p := NewPool(4)
	assert.Equal(t, 0.0, p.Utilization())
	p.Acquire()
	assert.Equal(t, 0.25, p.Utilization())
}

func TestPoolResetReturnsAllSlots(t *testing.T) {
	p := NewPool(3)
	p.Acquire()
	p.Acquire()
	p.Reset()
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 3, p.Available())
}
