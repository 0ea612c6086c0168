package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-freestanding/holeheap/heap"
)

func TestFreeSentinelFirstObserveIsNotAHit(t *testing.T) {
	s := NewFreeSentinel(1000, 0.01)
	assert.False(t, s.Observe(0x1000))
}

func TestFreeSentinelRepeatObserveIsProbableHit(t *testing.T) {
	s := NewFreeSentinel(1000, 0.01)
	s.Observe(0x2000)
	assert.True(t, s.Observe(0x2000))
}

func TestSnapshotRoundTrip(t *testing.T) {
	h := heap.NewFromBytes(make([]byte, 4096))

	a, err := h.Allocate(64, 8)
	require.NoError(t, err)
	_, err = h.Allocate(64, 8)
	require.NoError(t, err)
	h.Deallocate(a, 64, 8)

	data, err := Snapshot(h)
	require.NoError(t, err)

	snap, err := Load(data)
	require.NoError(t, err)

	assert.Equal(t, h.Bottom(), snap.Bottom)
	assert.Equal(t, h.Top(), snap.Top)
	assert.Equal(t, h.Size(), snap.Size)
	assert.Equal(t, h.Used(), snap.Used)
	assert.Equal(t, h.Holes(), snap.Holes)
}

func TestLoadRejectsForeignData(t *testing.T) {
	_, err := Load([]byte("not a snapshot"))
	assert.Error(t, err)
}
