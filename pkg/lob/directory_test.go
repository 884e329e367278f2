package lob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectoryEmptyFinds(t *testing.T) {
	var d Directory
	assert.Equal(t, uint32(MaxPriceLevels), d.FindLowest())
	assert.Equal(t, uint32(MaxPriceLevels), d.FindHighest())
	assert.False(t, d.HasAny())
}

func TestDirectorySetClearTest(t *testing.T) {
	var d Directory
	d.Set(5)
	d.Set(130)
	assert.True(t, d.Test(5))
	assert.True(t, d.Test(130))
	assert.False(t, d.Test(6))

	assert.Equal(t, uint32(5), d.FindLowest())
	assert.Equal(t, uint32(130), d.FindHighest())

	d.Clear(5)
	assert.False(t, d.Test(5))
	assert.Equal(t, uint32(130), d.FindLowest())
}

func TestDirectoryFindNextHigherLower(t *testing.T) {
	var d Directory
	for _, s := range []uint32{3, 70, 200, 4095} {
		d.Set(s)
	}
	assert.Equal(t, uint32(70), d.FindNextHigher(3))
	assert.Equal(t, uint32(200), d.FindNextHigher(70))
	assert.Equal(t, uint32(4095), d.FindNextHigher(200))
	assert.Equal(t, uint32(MaxPriceLevels), d.FindNextHigher(4095))

	assert.Equal(t, uint32(200), d.FindNextLower(4095))
	assert.Equal(t, uint32(70), d.FindNextLower(200))
	assert.Equal(t, uint32(3), d.FindNextLower(70))
	assert.Equal(t, uint32(MaxPriceLevels), d.FindNextLower(3))
	assert.Equal(t, uint32(MaxPriceLevels), d.FindNextLower(0))
}

func TestDirectoryFindNextHigherLowerAcrossChunkBoundary(t *testing.T) {
	var d Directory
	d.Set(63)
	d.Set(64)
	assert.Equal(t, uint32(64), d.FindNextHigher(63))
	assert.Equal(t, uint32(63), d.FindNextLower(64))
}

func TestDirectoryClearAll(t *testing.T) {
	var d Directory
	d.Set(1)
	d.Set(4000)
	d.ClearAll()
	assert.False(t, d.HasAny())
	assert.True(t, d.ValidateConsistency())
}

func TestDirectorySimdScanMatchesScalarScan(t *testing.T) {
	var d Directory
	for _, s := range []uint32{0, 1, 65, 127, 128, 300, 4000, 4095} {
		d.Set(s)
	}
	for start := uint32(0); start <= l1Bits; start++ {
		assert.Equal(t, d.ScanForward(start), d.SimdScanForward(start), "start=%d", start)
	}
	for start := uint32(0); start < l1Bits; start++ {
		assert.Equal(t, d.ScanBackward(start), d.SimdScanBackward(start), "start=%d", start)
	}
}

func TestDirectoryValidateConsistency(t *testing.T) {
	var d Directory
	d.Set(10)
	d.Set(500)
	assert.True(t, d.ValidateConsistency())

	d.l1 &^= 1 << 0 // corrupt: drop the l1 bit while l2[0] stays non-zero
	assert.False(t, d.ValidateConsistency())
}
