package tlsf

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError is returned by New when the requested configuration is
// rejected before any chunk is ever acquired.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "tlsf: " + e.Msg }

// SizeError is returned by Allocate when the requested size is zero or
// overflows MemorySize once rounded up to the configured alignment (§7.4).
type SizeError struct {
	Requested uint32
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("tlsf: requested size %d cannot be satisfied at this alignment", e.Requested)
}

// ChunkAllocationError is returned by Allocate when the ChunkProvider could
// not satisfy a request for a new chunk. The allocator's internal state is
// left exactly as it was before the call; no chunk is partially registered.
type ChunkAllocationError struct {
	MinSize uint32
	cause   error
}

func (e *ChunkAllocationError) Error() string { return e.cause.Error() }

// Unwrap exposes the ChunkProvider's own error via errors.Is/errors.As.
func (e *ChunkAllocationError) Unwrap() error { return e.cause }

func newChunkAllocationError(minSize uint32, cause error) error {
	return &ChunkAllocationError{
		MinSize: minSize,
		cause:   errors.Wrapf(cause, "tlsf: chunk provider could not satisfy a request for %d bytes", minSize),
	}
}

// errBadChunkContract reports a ChunkProvider that returned a chunk
// violating the §6.1 contract (not a power of two, or smaller than either
// the alignment or the requested minimum).
func errBadChunkContract(c Chunk, minSize, alignment uint32) error {
	return errors.Errorf(
		"chunk provider returned an invalid chunk (size=%d, min=%d, alignment=%d): size must be a power of two and >= both",
		c.Size, minSize, alignment)
}

// errInsufficientChunk reports a freshly acquired chunk whose usable size
// falls short of the request once its alignment gap is subtracted (possible
// when the chunk's base address is not aligned). Such a chunk is rejected
// before it is registered.
func errInsufficientChunk(usable, requested uint32) error {
	return errors.Errorf("chunk usable size %d is still smaller than requested size %d after alignment gap", usable, requested)
}

// InvariantErrorKind identifies the specific invariant an InvariantError
// reports. These all indicate a programming error by the caller (§7.3 of
// the design): a double free, a token from another allocator or lifetime,
// or a free after Reset.
type InvariantErrorKind int

const (
	// ErrDoubleFree is raised when Free is called with a token whose
	// block is not currently Used.
	ErrDoubleFree InvariantErrorKind = iota
	// ErrUnknownToken is raised when a token's block index is outside the
	// Allocator's current descriptor pool (which Reset empties).
	ErrUnknownToken
	// ErrUseAfterReset names a free of a token from before the most recent
	// Reset. Free does not raise it: such a token is reported as
	// ErrUnknownToken when its index is outside the current descriptor
	// pool, as ErrDoubleFree when its slot is not Used, and otherwise is
	// not told apart from a current token.
	ErrUseAfterReset
)

func (k InvariantErrorKind) String() string {
	switch k {
	case ErrDoubleFree:
		return "double free"
	case ErrUnknownToken:
		return "unknown token"
	case ErrUseAfterReset:
		return "use after reset"
	default:
		return "invariant violation"
	}
}

// InvariantError reports a violation of one of the debug-only invariants
// the allocator asserts (§7.3). Production code is expected to treat a
// recovered InvariantError the same as any other unrecoverable corruption:
// stop using the Allocator instance.
type InvariantError struct {
	Kind  InvariantErrorKind
	Token Token
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("tlsf: %s (token=%d)", e.Kind, e.Token.index)
}

func assertInvariant(cond bool, kind InvariantErrorKind, tok Token) {
	if !cond {
		panic(&InvariantError{Kind: kind, Token: tok})
	}
}
