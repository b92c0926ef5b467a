package tlsf

// chunkDescriptor records one acquired backing region (§3) plus the
// per-chunk statistics exposed read-only via ChunkSummary.
type chunkDescriptor struct {
	id   ChunkID
	base MemoryAddress
	size uint32

	totalAllocated uint32
	usedCount      int
	freeCount      int

	// firstBlock is the descriptor-pool index of the first block in this
	// chunk's physical (address) order; walking physNext from it visits
	// every block of the chunk exactly once (invariant 3).
	firstBlock int32

	// alignmentGap is the number of unused bytes between chunk.base and
	// firstBlock's offset origin, absorbed so that every returned address
	// is aligned (§4.3 "Tie-breaking and edge cases").
	alignmentGap uint32
}

// ChunkSummary is the read-only diagnostic view of a chunk returned by
// Allocator.Chunks (§6.2). It is a snapshot, not a live view: mutating it
// has no effect on the allocator.
type ChunkSummary struct {
	ID             ChunkID
	Base           MemoryAddress
	Size           uint32
	TotalAllocated uint32
	UsedCount      int
	FreeCount      int
}

func (c *chunkDescriptor) summary() ChunkSummary {
	return ChunkSummary{
		ID:             c.id,
		Base:           c.base,
		Size:           c.size,
		TotalAllocated: c.totalAllocated,
		UsedCount:      c.usedCount,
		FreeCount:      c.freeCount,
	}
}

// usableSize is the chunk's size minus whatever alignment gap was absorbed
// at the front, i.e. the total size available for blocks (invariant 3).
func (c *chunkDescriptor) usableSize() uint32 {
	return c.size - c.alignmentGap
}
