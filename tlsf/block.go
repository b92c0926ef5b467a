package tlsf

import "fmt"

// blockStatus is the three-way state of a block descriptor slot (§4.7).
// A slot is Used XOR Free XOR Available at any instant (invariant 6).
type blockStatus uint8

const (
	// statusAvailable marks a descriptor slot sitting on the recycled-
	// descriptor free list; it carries no chunk/offset/size meaning.
	statusAvailable blockStatus = iota
	statusUsed
	statusFree
)

func (s blockStatus) String() string {
	switch s {
	case statusUsed:
		return "Used"
	case statusFree:
		return "Free"
	default:
		return "Avail"
	}
}

// blockDescriptor is the out-of-band, fixed-shape record describing one
// block of a chunk (§3). Descriptors live in descriptorPool.blocks, addressed by
// stable integer index ("Token"); they never move once created, so that
// indices handed out to callers remain valid for the descriptor's entire
// lifetime, including across recycling through the Available list.
type blockDescriptor struct {
	chunkIndex int32
	offset     uint32
	size       uint32
	status     blockStatus

	// Free-list links (§3): valid only while status == statusFree. They
	// double as the singly-linked Available-list "next" field (freeNext)
	// when status == statusAvailable; freePrev is unused in that state.
	freePrev int32
	freeNext int32

	// Physical (address-order) links within the owning chunk (§3,
	// invariant 3). noBlock marks either end of the chain.
	physPrev int32
	physNext int32
}

// Token is an opaque handle identifying a live allocation. It wraps the
// descriptor-pool index of the underlying Used block; per §9's resolution
// of the token-representation open question, it carries no separate
// validity bit — Free() itself asserts the block is still Used.
type Token struct {
	index int32
}

// String implements fmt.Stringer so a Token can be logged or printed
// without exposing its internal field.
func (t Token) String() string {
	return fmt.Sprintf("%d", t.index)
}

// descriptorPool is the growable array of block descriptors plus the
// singly-linked list of recycled (Available) slots threaded through their
// freeNext field (§4.5). Indices are never reused for a *different*
// purpose while outstanding: a slot only becomes Available, and therefore
// eligible for reuse, once its prior occupant has been coalesced away.
type descriptorPool struct {
	blocks    []blockDescriptor
	availHead int32
}

func newDescriptorPool(capacityHint int) descriptorPool {
	return descriptorPool{
		blocks:    make([]blockDescriptor, 0, capacityHint),
		availHead: noBlock,
	}
}

// alloc returns the index of a descriptor slot ready to be populated by the
// caller, preferring a recycled slot over growing the pool (§4.5, §5).
func (p *descriptorPool) alloc() int32 {
	if p.availHead != noBlock {
		idx := p.availHead
		p.availHead = p.blocks[idx].freeNext
		return idx
	}
	p.blocks = append(p.blocks, blockDescriptor{})
	return int32(len(p.blocks) - 1)
}

// recycle returns a descriptor slot to the Available list. The caller must
// have already unlinked it from any free-list/physical chain.
func (p *descriptorPool) recycle(idx int32) {
	b := &p.blocks[idx]
	b.status = statusAvailable
	b.freeNext = p.availHead
	p.availHead = idx
}

func (p *descriptorPool) get(idx int32) *blockDescriptor { return &p.blocks[idx] }

func (p *descriptorPool) valid(idx int32) bool {
	return idx >= 0 && int(idx) < len(p.blocks)
}
