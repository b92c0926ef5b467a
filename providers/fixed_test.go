package providers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/XenoAtom/XenoAtom.Allocators/tlsf"
)

func TestFixedAddressesIncrementByChunkSize(t *testing.T) {
	p := &Fixed{ChunkSize: 65536, BaseAddress: 0xFE00120000000000}

	c0, err := p.TryAllocateChunk(512)
	require.NoError(t, err)
	require.Equal(t, tlsf.MemoryAddress(0xFE00120000000000), c0.Base)

	c1, err := p.TryAllocateChunk(512)
	require.NoError(t, err)
	require.Equal(t, tlsf.MemoryAddress(0xFE00120000000000+65536), c1.Base)

	require.NotEqual(t, c0.ID, c1.ID)
}

func TestFixedGrowsChunkForOversizeRequest(t *testing.T) {
	p := &Fixed{ChunkSize: 65536, BaseAddress: 0}

	c, err := p.TryAllocateChunk(65537)
	require.NoError(t, err)
	require.EqualValues(t, 131072, c.Size)

	c2, err := p.TryAllocateChunk(1)
	require.NoError(t, err)
	require.Equal(t, tlsf.MemoryAddress(131072), c2.Base)
}

func TestFixedEnforcesMaxChunks(t *testing.T) {
	p := &Fixed{ChunkSize: 1024, BaseAddress: 0, MaxChunks: 1}

	_, err := p.TryAllocateChunk(1)
	require.NoError(t, err)

	_, err = p.TryAllocateChunk(1)
	require.Error(t, err)
}

func TestFixedFreeChunkRejectsDoubleFree(t *testing.T) {
	p := &Fixed{ChunkSize: 1024, BaseAddress: 0}
	c, err := p.TryAllocateChunk(1)
	require.NoError(t, err)

	require.NoError(t, p.FreeChunk(c.ID))
	require.Error(t, p.FreeChunk(c.ID))
}
