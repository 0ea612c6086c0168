package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapEmptyStartsAtZero(t *testing.T) {
	h := Empty()
	assert.Equal(t, uintptr(0), h.Size())
	assert.Equal(t, uintptr(0), h.Used())
	assert.Equal(t, uintptr(0), h.Free())
}

func TestHeapAllocateDeallocateRoundTrip(t *testing.T) {
	h := NewFromBytes(make([]byte, 4096))

	addr, err := h.Allocate(64, 8)
	require.NoError(t, err)
	assert.Equal(t, h.Bottom(), addr)
	assert.Equal(t, uintptr(64), h.Used())

	h.Deallocate(addr, 64, 8)
	assert.Equal(t, uintptr(0), h.Used())
	assert.Equal(t, h.Size(), h.Free())
}

func TestHeapOutOfMemory(t *testing.T) {
	h := NewFromBytes(make([]byte, 128))

	_, err := h.Allocate(64, 8)
	require.NoError(t, err)

	_, err = h.Allocate(128, 8)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestHeapInitPanicsOnReinit(t *testing.T) {
	h := NewFromBytes(make([]byte, 4096))

	assert.Panics(t, func() {
		h.Init(0x2000, 4096)
	})
}

func TestHeapManyAllocationsThenFreeAllRestoresFullCapacity(t *testing.T) {
	h := NewFromBytes(make([]byte, 4096))

	var addrs []uintptr
	for i := 0; i < 16; i++ {
		addr, err := h.Allocate(64, 8)
		require.NoError(t, err)
		addrs = append(addrs, addr)
	}

	for _, addr := range addrs {
		h.Deallocate(addr, 64, 8)
	}

	assert.Equal(t, uintptr(0), h.Used())
	assert.Equal(t, h.Size(), h.Free())
	require.NoError(t, h.VerifyAccounting())

	holes := h.Holes()
	require.Len(t, holes, 1, "freeing everything in any order must coalesce back into a single hole")
	assert.Equal(t, h.Size(), holes[0].Size)
}

func TestHeapExtendAddsUsableSpace(t *testing.T) {
	region := make([]byte, 8192)
	h := New(addrOfSlice(region), 4096)

	before := h.Size()
	h.Extend(4096)

	assert.Equal(t, before+4096, h.Size())
	assert.Equal(t, before+4096, h.Free())
}

func TestHeapInitAlignsLossyBottom(t *testing.T) {
	region := make([]byte, 4096+8)
	base := addrOfSlice(region)
	h := New(base+1, 4096)

	assert.Equal(t, base+8, h.Bottom())
	assert.Equal(t, uintptr(4096-7), h.Size())
}

func TestHeapStatsFragmentation(t *testing.T) {
	h := NewFromBytes(make([]byte, 256))

	a, err := h.Allocate(64, 8)
	require.NoError(t, err)
	_, err = h.Allocate(64, 8)
	require.NoError(t, err)

	h.Deallocate(a, 64, 8)

	stats := h.Stats()
	assert.Equal(t, 2, stats.HoleCount, "freeing the first of two allocations leaves it isolated from the trailing hole")
	assert.Greater(t, stats.FragmentPercent, 0.0)
}
