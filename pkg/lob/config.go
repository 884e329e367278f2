package lob

// MaxPriceLevels is the fixed size of the price ladder on each side.
// It is coupled to the two-level bitmap geometry in directory.go
// (64 level-1 bits * 64 level-2 bits) and is not runtime configurable.
const MaxPriceLevels = 4096

// Config holds the immutable parameters an OrderBook is constructed
// with.
type Config struct {
	// BasePrice is the price, in ticks, at slot 0 of the sell ladder and
	// at slot MaxPriceLevels/2-1 near the center of the buy ladder.
	BasePrice uint32
	// MinPriceTick is the minimum price increment.
	MinPriceTick uint32
	// PoolCapacity is the number of Order slots preallocated in the
	// object pool. tradePoolCapacity derives PoolCapacity/10, but the
	// book allocates no Trade pool: trades are appended to the caller's
	// slice.
	PoolCapacity int
}

// DefaultConfig returns a reasonable set of ladder defaults.
func DefaultConfig() Config {
	return Config{
		BasePrice:    50000,
		MinPriceTick: 1,
		PoolCapacity: 1_000_000,
	}
}

func (c Config) tradePoolCapacity() int {
	n := c.PoolCapacity / 10
	if n < 1 {
		n = 1
	}
	return n
}
