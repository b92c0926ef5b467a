package providers

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/XenoAtom/XenoAtom.Allocators/tlsf"
)

// Fixed is a deterministic tlsf.ChunkProvider for tests: it hands out
// power-of-two chunks starting at a configured base address and packed end
// to end, so a test can predict every address a tlsf.Allocator will ever
// return. Each chunk is sized to ChunkSize unless a request is larger, in
// which case the chunk grows to the next power of two able to hold it
// (matching a real provider that must occasionally hand out an oversize
// chunk rather than refuse outright). It never shrinks or reorders chunk
// IDs, and refuses once MaxChunks have been handed out (0 means unlimited).
type Fixed struct {
	// ChunkSize is the baseline size of a chunk this provider returns. It
	// must be a power of two; a request larger than it grows the chunk
	// to the next power of two instead of failing.
	ChunkSize uint32

	// BaseAddress is the address of the first chunk; subsequent chunks
	// are packed immediately after the previous one ends.
	BaseAddress tlsf.MemoryAddress

	// MaxChunks caps the number of chunks this provider will ever hand
	// out. Zero means unlimited.
	MaxChunks int

	issued int
	offset uint64
	live   map[tlsf.ChunkID]bool
	nextID uint64
}

// TryAllocateChunk implements tlsf.ChunkProvider.
func (f *Fixed) TryAllocateChunk(minSize uint32) (tlsf.Chunk, error) {
	if bits.OnesCount32(f.ChunkSize) != 1 {
		return tlsf.Chunk{}, errors.Errorf("providers: Fixed.ChunkSize %d is not a power of two", f.ChunkSize)
	}
	if f.MaxChunks > 0 && f.issued >= f.MaxChunks {
		return tlsf.Chunk{}, errors.Errorf("providers: Fixed has exhausted its budget of %d chunks", f.MaxChunks)
	}

	size := f.ChunkSize
	if want := nextPow2(minSize); want > size {
		size = want
	}

	if f.live == nil {
		f.live = make(map[tlsf.ChunkID]bool)
	}

	base := f.BaseAddress + tlsf.MemoryAddress(f.offset)
	f.offset += uint64(size)
	f.nextID++
	id := tlsf.ChunkID(f.nextID)
	f.live[id] = true
	f.issued++

	return tlsf.Chunk{ID: id, Base: base, Size: size}, nil
}

// FreeChunk implements tlsf.ChunkProvider. It does not reuse the address
// range of a freed chunk; Fixed is meant to make addresses predictable
// across a whole test scenario, including its Reset call, not to model
// real reclamation.
func (f *Fixed) FreeChunk(id tlsf.ChunkID) error {
	if !f.live[id] {
		return errors.Errorf("providers: Fixed chunk %d is not live", id)
	}
	delete(f.live, id)
	return nil
}
