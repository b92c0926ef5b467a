// Package providers collects concrete tlsf.ChunkProvider implementations:
// an in-process Go-heap-backed one, an anonymous-mmap one, and a
// deterministic fixed-address one for golden tests.
package providers

import (
	"math/bits"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/XenoAtom/XenoAtom.Allocators/tlsf"
)

// Heap is a tlsf.ChunkProvider backed by ordinary Go-heap allocations. Each
// chunk is a make([]byte, size) slab kept alive by a reference in the
// provider so the garbage collector never reclaims memory a live token still
// points into; the MemoryAddress handed to the allocator is the real address
// of the slab's first byte, recovered through unsafe.Pointer but never
// dereferenced by tlsf itself.
//
// Heap never fails a request for a power-of-two size the Go runtime itself
// is willing to allocate; out-of-memory conditions surface as the standard
// Go allocation failure (a runtime fatal error), not as a returned error,
// matching how a make([]byte, n) call behaves everywhere else in Go.
type Heap struct {
	nextID uint64
	slabs  map[tlsf.ChunkID][]byte
}

// NewHeap returns a ready-to-use Heap provider.
func NewHeap() *Heap {
	return &Heap{slabs: make(map[tlsf.ChunkID][]byte)}
}

// TryAllocateChunk implements tlsf.ChunkProvider. It rounds minSize up to
// the next power of two (or 1, if minSize is 0) and allocates a slab of
// exactly that size.
func (h *Heap) TryAllocateChunk(minSize uint32) (tlsf.Chunk, error) {
	size := nextPow2(minSize)
	slab := make([]byte, size)

	id := tlsf.ChunkID(atomic.AddUint64(&h.nextID, 1))
	h.slabs[id] = slab

	base := tlsf.MemoryAddress(addressOf(slab))
	return tlsf.Chunk{ID: id, Base: base, Size: size}, nil
}

// FreeChunk implements tlsf.ChunkProvider. It drops the provider's
// reference to the slab, making it eligible for garbage collection once no
// other reference (there should be none) remains.
func (h *Heap) FreeChunk(id tlsf.ChunkID) error {
	if _, ok := h.slabs[id]; !ok {
		return errors.Errorf("providers: heap chunk %d is not live", id)
	}
	delete(h.slabs, id)
	return nil
}

func nextPow2(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	return 1 << uint(32-bits.LeadingZeros32(n-1))
}
