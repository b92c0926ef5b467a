package providers

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/XenoAtom/XenoAtom.Allocators/tlsf"
)

// Mmap is a tlsf.ChunkProvider backed by anonymous, page-aligned virtual
// memory obtained directly from the operating system via unix.Mmap. Unlike
// Heap, the regions it returns are never subject to Go's garbage collector
// or its moving/compacting behaviour (Go's allocator does not currently
// move live objects, but an mmap'd region is immune to that question
// entirely), which matters for backing memory that must keep a stable
// address for its entire lifetime independent of GC internals.
type Mmap struct {
	mu     sync.Mutex
	nextID uint64
	regions map[tlsf.ChunkID][]byte
}

// NewMmap returns a ready-to-use Mmap provider.
func NewMmap() *Mmap {
	return &Mmap{regions: make(map[tlsf.ChunkID][]byte)}
}

// TryAllocateChunk implements tlsf.ChunkProvider. It rounds minSize up to
// the next power of two and then up again to a whole number of OS pages,
// and maps that many bytes PROT_READ|PROT_WRITE, MAP_ANON|MAP_PRIVATE.
func (m *Mmap) TryAllocateChunk(minSize uint32) (tlsf.Chunk, error) {
	size := nextPow2(minSize)

	pageSize := uint32(unix.Getpagesize())
	if rem := size % pageSize; rem != 0 {
		size += pageSize - rem
		size = nextPow2(size)
	}

	region, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return tlsf.Chunk{}, errors.Wrap(err, "providers: mmap failed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := tlsf.ChunkID(m.nextID)
	m.regions[id] = region

	base := tlsf.MemoryAddress(addressOf(region))
	return tlsf.Chunk{ID: id, Base: base, Size: size}, nil
}

// FreeChunk implements tlsf.ChunkProvider, unmapping the region.
func (m *Mmap) FreeChunk(id tlsf.ChunkID) error {
	m.mu.Lock()
	region, ok := m.regions[id]
	if ok {
		delete(m.regions, id)
	}
	m.mu.Unlock()

	if !ok {
		return errors.Errorf("providers: mmap chunk %d is not live", id)
	}
	return unix.Munmap(region)
}
