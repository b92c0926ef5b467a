// Package tlsf implements a Two-Level Segregated Fit (TLSF) dynamic memory
// allocator for real-time and embedded workloads.
//
// The allocator partitions a pool of large, externally supplied memory
// chunks into variable-sized blocks and services allocate/free requests in
// bounded time: the segregated-fit search is O(1) worst case, and chunk
// acquisition is delegated to, and amortised by, an injected ChunkProvider.
//
// Block metadata lives out-of-band in a descriptor pool owned by the
// Allocator, never inside the backing memory itself, so the backing region
// does not need to be addressable by the CPU running this package (it may
// be device or GPU memory reachable only through the ChunkProvider's own
// means). Tokens returned by Allocate are descriptor-pool indices, not
// pointers, and remain valid for the life of the allocation.
//
// Allocator is not safe for concurrent use; callers needing multi-goroutine
// access must serialize their own calls (a mutex, or one Allocator per
// goroutine).
package tlsf
