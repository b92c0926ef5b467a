package providers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapRoundsUpToPowerOfTwo(t *testing.T) {
	h := NewHeap()

	c, err := h.TryAllocateChunk(100)
	require.NoError(t, err)
	require.EqualValues(t, 128, c.Size)

	c2, err := h.TryAllocateChunk(128)
	require.NoError(t, err)
	require.EqualValues(t, 128, c2.Size)
	require.NotEqual(t, c.ID, c2.ID)
}

func TestHeapFreeChunkRejectsUnknownID(t *testing.T) {
	h := NewHeap()
	err := h.FreeChunk(999)
	require.Error(t, err)
}

func TestHeapFreeChunkThenReuseOfIDFails(t *testing.T) {
	h := NewHeap()
	c, err := h.TryAllocateChunk(64)
	require.NoError(t, err)

	require.NoError(t, h.FreeChunk(c.ID))
	require.Error(t, h.FreeChunk(c.ID))
}

func TestNextPow2(t *testing.T) {
	cases := map[uint32]uint32{
		0:    1,
		1:    1,
		2:    2,
		3:    4,
		63:   64,
		64:   64,
		65:   128,
		1024: 1024,
		1025: 2048,
	}
	for in, want := range cases {
		require.Equal(t, want, nextPow2(in), "nextPow2(%d)", in)
	}
}
