package tlsf

import (
	"math/bits"

	"github.com/cznic/mathutil"
	"go.uber.org/zap"
)

// Config gathers the construction-time parameters of an Allocator (§6.2).
type Config struct {
	// Provider supplies and reclaims backing chunks. Required.
	Provider ChunkProvider

	// Alignment is the byte alignment applied to every returned address
	// and every block size. It must be a power of two; zero selects the
	// default of MinAlignment, and any non-zero value below MinAlignment
	// is clamped up to it.
	Alignment uint32

	// InitialChunkCapacity and InitialBlockCapacity are optional sizing
	// hints to avoid early slice growth; both default to a small built-in
	// capacity when zero.
	InitialChunkCapacity int
	InitialBlockCapacity int

	// Logger receives diagnostic (non-control-flow) events: chunk
	// acquisition, chunk release, and debug-assertion failures. Nil
	// disables logging.
	Logger *zap.SugaredLogger
}

const (
	defaultChunkCapacity = 4
	defaultBlockCapacity = 64
)

// Allocator is a single Two-Level Segregated Fit memory allocator instance.
// It owns a descriptor pool, a chunk registry, and a bin directory; it
// never reads or writes the backing memory it hands out addresses into.
//
// Allocator is not safe for concurrent use (§5).
type Allocator struct {
	provider  ChunkProvider
	alignment uint32

	pool   descriptorPool
	chunks []chunkDescriptor
	dir    binDirectory

	log *zap.SugaredLogger
}

// New constructs an Allocator from cfg. It acquires no chunks up front;
// the first chunk is pulled from cfg.Provider lazily, on the first
// Allocate call that cannot be satisfied from an existing (empty) pool.
func New(cfg Config) (*Allocator, error) {
	if cfg.Provider == nil {
		return nil, &ConfigError{Msg: "Provider is required"}
	}

	align := cfg.Alignment
	if align == 0 {
		align = MinAlignment
	}
	if bits.OnesCount32(align) != 1 {
		return nil, &ConfigError{Msg: "Alignment must be a power of two"}
	}
	align = uint32(mathutil.MaxUint64(uint64(align), uint64(MinAlignment)))

	chunkCap := cfg.InitialChunkCapacity
	if chunkCap <= 0 {
		chunkCap = defaultChunkCapacity
	}
	blockCap := cfg.InitialBlockCapacity
	if blockCap <= 0 {
		blockCap = defaultBlockCapacity
	}

	return &Allocator{
		provider:  cfg.Provider,
		alignment: align,
		pool:      newDescriptorPool(blockCap),
		chunks:    make([]chunkDescriptor, 0, chunkCap),
		dir:       newBinDirectory(),
		log:       cfg.Logger,
	}, nil
}

// Alignment returns the configured alignment in bytes.
func (a *Allocator) Alignment() uint32 { return a.alignment }

func alignUp32(x, align uint32) uint32 {
	return (x + align - 1) &^ (align - 1)
}

func alignUp64(x, align uint64) uint64 {
	return (x + align - 1) &^ (align - 1)
}

// Allocation is the result of a successful Allocate call (§6.2).
type Allocation struct {
	Token   Token
	ChunkID ChunkID
	Address MemoryAddress
	Size    uint32
}

// Allocate returns storage for size bytes, rounded up to the configured
// alignment (§4.3). The granted Size is always >= size and a multiple of
// the alignment; the granted Address is always a multiple of the alignment.
//
// A zero size, or one that overflows MemorySize once rounded up to the
// alignment, is rejected with a *SizeError. Otherwise the only failure
// mode is chunk exhaustion: if no existing free block fits and the
// ChunkProvider cannot supply a large-enough new chunk, Allocate returns a
// *ChunkAllocationError and leaves the Allocator's state exactly as it was
// before the call.
func (a *Allocator) Allocate(size uint32) (Allocation, error) {
	if size == 0 {
		return Allocation{}, &SizeError{Requested: size}
	}

	aligned := alignUp32(size, a.alignment)
	if aligned < size { // overflowed MemorySize
		return Allocation{}, &SizeError{Requested: size}
	}

	l1, l2 := mapSize(aligned)

	fl, fl2, idx, ok := a.search(l1, l2, aligned)
	if !ok {
		chunkIdx, err := a.acquireChunk(aligned)
		if err != nil {
			return Allocation{}, err
		}
		c := &a.chunks[chunkIdx]
		fb := a.pool.get(c.firstBlock)
		fl, fl2 = mapSize(fb.size)
		fl, fl2, idx, ok = a.search(fl, fl2, aligned)
		if !ok {
			// acquireChunk only registers a chunk whose usable size is >=
			// aligned, and that chunk's free block heads the bin searched
			// here, so this branch is not taken.
			return Allocation{}, newChunkAllocationError(aligned,
				errInsufficientChunk(c.usableSize(), aligned))
		}
	}

	a.removeFree(fl, fl2, idx)

	b := a.pool.get(idx)
	surplus := b.size - aligned
	usedIdx := idx

	if surplus > 0 {
		remainderOffset := b.offset + aligned
		remainderIdx := a.pool.alloc()
		b = a.pool.get(idx) // alloc() may have grown/reallocated the slice
		rem := a.pool.get(remainderIdx)
		*rem = blockDescriptor{
			chunkIndex: b.chunkIndex,
			offset:     remainderOffset,
			size:       surplus,
			status:     statusFree,
			freePrev:   noBlock,
			freeNext:   noBlock,
			physPrev:   idx,
			physNext:   b.physNext,
		}
		if b.physNext != noBlock {
			a.pool.get(b.physNext).physPrev = remainderIdx
		}
		b.physNext = remainderIdx
		b.size = aligned

		rl1, rl2 := mapSize(surplus)
		a.insertFree(rl1, rl2, remainderIdx)
	}

	b = a.pool.get(usedIdx)
	b.status = statusUsed
	b.freePrev, b.freeNext = noBlock, noBlock

	c := &a.chunks[b.chunkIndex]
	c.totalAllocated += aligned
	c.usedCount++
	c.freeCount--
	if surplus > 0 {
		c.freeCount++
	}

	addr := MemoryAddress(uint64(c.base) + uint64(b.offset))
	return Allocation{Token: Token{index: usedIdx}, ChunkID: c.id, Address: addr, Size: aligned}, nil
}

// acquireChunk requests a new chunk able to hold minSize bytes, registers
// it, and installs its entire usable extent as one Free block. It returns
// the index into a.chunks of the newly registered chunk.
func (a *Allocator) acquireChunk(minSize uint32) (int, error) {
	chunk, err := a.provider.TryAllocateChunk(minSize)
	if err != nil {
		return 0, newChunkAllocationError(minSize, err)
	}

	if bits.OnesCount32(chunk.Size) != 1 || chunk.Size < a.alignment || chunk.Size < minSize {
		return 0, newChunkAllocationError(minSize, errBadChunkContract(chunk, minSize, a.alignment))
	}

	gap := uint32(alignUp64(uint64(chunk.Base), uint64(a.alignment)) - uint64(chunk.Base))
	usable := chunk.Size - gap
	if usable < minSize {
		return 0, newChunkAllocationError(minSize, errInsufficientChunk(usable, minSize))
	}

	blockIdx := a.pool.alloc()
	b := a.pool.get(blockIdx)
	*b = blockDescriptor{
		chunkIndex: 0, // patched below once the chunk index is known
		offset:     gap,
		size:       usable,
		status:     statusFree,
		freePrev:   noBlock,
		freeNext:   noBlock,
		physPrev:   noBlock,
		physNext:   noBlock,
	}

	a.chunks = append(a.chunks, chunkDescriptor{
		id:           chunk.ID,
		base:         chunk.Base,
		size:         chunk.Size,
		firstBlock:   blockIdx,
		freeCount:    1,
		alignmentGap: gap,
	})
	chunkIdx := len(a.chunks) - 1
	b.chunkIndex = int32(chunkIdx)

	l1, l2 := mapSize(usable)
	a.insertFree(l1, l2, blockIdx)

	if a.log != nil {
		a.log.Debugw("tlsf: chunk acquired",
			"chunk_id", chunk.ID, "base", chunk.Base, "size", chunk.Size, "gap", gap)
	}

	return chunkIdx, nil
}

// search finds the smallest (L1', L2') >= (l1, l2) whose head block's size
// is >= size, per §4.3 step 3 / §9 "fragmented-bin edge case": bin
// membership alone does not imply fit, because the second level partitions
// a size range into L2Count sub-ranges and a bin's head may sit at the low
// end of that sub-range.
func (a *Allocator) search(l1, l2 int, size uint32) (foundL1, foundL2 int, idx int32, ok bool) {
	curL1, curL2 := l1, l2
	for {
		fl := a.dir.findNextL1(curL1)
		if fl == -1 {
			return 0, 0, 0, false
		}

		startL2 := 0
		if fl == curL1 {
			startL2 = curL2
		}

		fl2 := a.dir.findNextL2(fl, startL2)
		if fl2 == -1 {
			curL1, curL2 = fl+1, 0
			continue
		}

		head := a.dir.head(fl, fl2)
		if a.pool.get(head).size >= size {
			return fl, fl2, head, true
		}

		if fl2+1 >= L2Count {
			curL1, curL2 = fl+1, 0
		} else {
			curL1, curL2 = fl, fl2+1
		}
	}
}

// insertFree prepends block idx to bin (l1, l2)'s free list and sets both
// bitmap levels (§4.2, invariant 1).
func (a *Allocator) insertFree(l1, l2 int, idx int32) {
	b := a.pool.get(idx)
	oldHead := a.dir.head(l1, l2)
	b.freePrev = noBlock
	b.freeNext = oldHead
	if oldHead != noBlock {
		a.pool.get(oldHead).freePrev = idx
	}
	a.dir.setHead(l1, l2, idx)
	a.dir.setL2(l1, l2)
}

// removeFree unlinks block idx from bin (l1, l2), for the case where it is
// known to currently be the head (used by Allocate after search()).
func (a *Allocator) removeFree(l1, l2 int, idx int32) {
	a.unlinkFree(l1, l2, idx)
}

// unlinkFree removes block idx from bin (l1, l2)'s free list wherever it
// sits in the chain (head or not), updating both bitmap levels when the
// bin becomes empty (§4.4 "coalesce with previous/next").
func (a *Allocator) unlinkFree(l1, l2 int, idx int32) {
	b := a.pool.get(idx)
	prev, next := b.freePrev, b.freeNext

	if prev != noBlock {
		a.pool.get(prev).freeNext = next
	} else {
		a.dir.setHead(l1, l2, next)
	}
	if next != noBlock {
		a.pool.get(next).freePrev = prev
	}

	if a.dir.head(l1, l2) == noBlock {
		a.dir.clearL2(l1, l2)
	}

	b.freePrev, b.freeNext = noBlock, noBlock
}

// Free releases the allocation identified by tok (§4.4). tok must have
// been returned by a prior Allocate on this Allocator and not already
// freed or reset away; violating that is a programming error (§7.3). Free
// panics with an *InvariantError when tok's index lies outside the current
// descriptor pool (ErrUnknownToken) or its block is not currently Used
// (ErrDoubleFree), logging the failure first when a Logger is configured.
// A stale token whose descriptor slot has since been reused by a newer
// allocation is not detected.
func (a *Allocator) Free(tok Token) {
	if a.log != nil {
		defer func() {
			if r := recover(); r != nil {
				a.log.Errorw("tlsf: invariant violation", "error", r)
				panic(r)
			}
		}()
	}

	assertInvariant(a.pool.valid(tok.index), ErrUnknownToken, tok)

	b := a.pool.get(tok.index)
	assertInvariant(b.status == statusUsed, ErrDoubleFree, tok)

	c := &a.chunks[b.chunkIndex]
	c.totalAllocated -= b.size
	c.usedCount--
	c.freeCount++

	b.status = statusFree
	idx := tok.index

	if b.physPrev != noBlock {
		prevIdx := b.physPrev
		p := a.pool.get(prevIdx)
		if p.status == statusFree {
			pl1, pl2 := mapSize(p.size)
			a.unlinkFree(pl1, pl2, prevIdx)

			b.offset = p.offset
			b.size += p.size
			b.physPrev = p.physPrev
			if p.physPrev != noBlock {
				a.pool.get(p.physPrev).physNext = idx
			} else {
				c.firstBlock = idx
			}

			a.pool.recycle(prevIdx)
			c.freeCount--
			b = a.pool.get(idx)
		}
	}

	if b.physNext != noBlock {
		n := a.pool.get(b.physNext)
		if n.status == statusFree {
			nl1, nl2 := mapSize(n.size)
			a.unlinkFree(nl1, nl2, b.physNext)

			nextOfNext := n.physNext
			b.size += n.size
			a.pool.recycle(b.physNext)
			b.physNext = nextOfNext
			if nextOfNext != noBlock {
				a.pool.get(nextOfNext).physPrev = idx
			}
			c.freeCount--
		}
	}

	l1, l2 := mapSize(b.size)
	a.insertFree(l1, l2, idx)
}

// Reset releases every chunk back to the ChunkProvider and discards all
// allocator state (§4.6). Every invariant trivially holds over the
// resulting empty state (invariant set, §3).
func (a *Allocator) Reset() error {
	var firstErr error
	for i := range a.chunks {
		if err := a.provider.FreeChunk(a.chunks[i].id); err != nil && firstErr == nil {
			firstErr = err
		}
		if a.log != nil {
			a.log.Debugw("tlsf: chunk released", "chunk_id", a.chunks[i].id)
		}
	}

	a.chunks = a.chunks[:0]
	a.pool = newDescriptorPool(cap(a.pool.blocks))
	a.dir = newBinDirectory()

	return firstErr
}

// Chunks returns a snapshot of every currently registered chunk's summary
// statistics (§6.2), in acquisition order.
func (a *Allocator) Chunks() []ChunkSummary {
	out := make([]ChunkSummary, len(a.chunks))
	for i := range a.chunks {
		out[i] = a.chunks[i].summary()
	}
	return out
}
