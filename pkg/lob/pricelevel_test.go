package lob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceLevelAddPreservesFIFO(t *testing.T) {
	pool := NewPool(8)
	var level PriceLevel
	level.SetPrice(100)

	h1 := pool.Acquire()
	pool.Get(h1).reset(1, Buy, Limit, 100, 10, 1)
	level.Add(pool, h1)

	h2 := pool.Acquire()
	pool.Get(h2).reset(2, Buy, Limit, 100, 20, 2)
	level.Add(pool, h2)

	assert.Equal(t, uint32(30), level.Aggregate())
	assert.Equal(t, uint32(2), level.Count())
	assert.True(t, level.ValidateIntegrity(pool))
}

func TestPriceLevelRemoveHead(t *testing.T) {
	pool := NewPool(8)
	var level PriceLevel
	level.SetPrice(100)

	h1 := pool.Acquire()
	pool.Get(h1).reset(1, Buy, Limit, 100, 10, 1)
	level.Add(pool, h1)

	h2 := pool.Acquire()
	pool.Get(h2).reset(2, Buy, Limit, 100, 20, 2)
	level.Add(pool, h2)

	level.Remove(pool, h1)
	assert.Equal(t, uint32(20), level.Aggregate())
	assert.Equal(t, uint32(1), level.Count())
	assert.True(t, level.ValidateIntegrity(pool))
}

func TestPriceLevelRemoveTail(t *testing.T) {
	pool := NewPool(8)
	var level PriceLevel
	level.SetPrice(100)

	h1 := pool.Acquire()
	pool.Get(h1).reset(1, Buy, Limit, 100, 10, 1)
	level.Add(pool, h1)

	h2 := pool.Acquire()
	pool.Get(h2).reset(2, Buy, Limit, 100, 20, 2)
	level.Add(pool, h2)

	level.Remove(pool, h2)
	assert.Equal(t, uint32(10), level.Aggregate())
	assert.True(t, level.ValidateIntegrity(pool))

	h3 := pool.Acquire()
	pool.Get(h3).reset(3, Buy, Limit, 100, 5, 3)
	level.Add(pool, h3)
	assert.Equal(t, uint32(15), level.Aggregate())
	assert.True(t, level.ValidateIntegrity(pool))
}

func TestPriceLevelExecutePartialAndFullFills(t *testing.T) {
	pool := NewPool(8)
	var level PriceLevel
	level.SetPrice(100)

	h1 := pool.Acquire()
	pool.Get(h1).reset(1, Sell, Limit, 100, 10, 1)
	level.Add(pool, h1)

	h2 := pool.Acquire()
	pool.Get(h2).reset(2, Sell, Limit, 100, 20, 2)
	level.Add(pool, h2)

	var trades []Trade
	filled := level.Execute(pool, 15, Buy, 999, 42, &trades)

	assert.Equal(t, uint32(15), filled)
	assert.Len(t, trades, 2)
	assert.Equal(t, uint64(999), trades[0].BuyOrderID)
	assert.Equal(t, uint64(1), trades[0].SellOrderID)
	assert.Equal(t, uint32(10), trades[0].Quantity)
	assert.Equal(t, uint32(5), trades[1].Quantity)
	assert.Equal(t, uint32(15), level.Aggregate(), "remaining 15 from order 2 stays resting")
	assert.Equal(t, uint32(1), level.Count())
	assert.True(t, level.ValidateIntegrity(pool))
}

func TestPriceLevelEmptyIsValid(t *testing.T) {
	var level PriceLevel
	pool := NewPool(1)
	assert.True(t, level.ValidateIntegrity(pool))
	assert.False(t, level.HasOrders())
}
