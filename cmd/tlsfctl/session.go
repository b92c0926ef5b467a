package main

import (
	"github.com/pkg/errors"

	"github.com/XenoAtom/XenoAtom.Allocators/providers"
	"github.com/XenoAtom/XenoAtom.Allocators/tlsf"
)

// newAllocator builds an Allocator plus its backing ChunkProvider from the
// loaded config. The provider choice only affects where bytes actually
// live; the allocator's behaviour is identical in every case.
func newAllocator(cfg providerConfig) (*tlsf.Allocator, error) {
	var provider tlsf.ChunkProvider

	switch cfg.Provider {
	case "heap":
		provider = providers.NewHeap()
	case "mmap":
		provider = providers.NewMmap()
	case "fixed":
		provider = &providers.Fixed{
			ChunkSize:   cfg.ChunkSize,
			BaseAddress: tlsf.MemoryAddress(cfg.BaseAddress),
			MaxChunks:   cfg.MaxChunks,
		}
	default:
		return nil, errors.Errorf("tlsfctl: unknown provider %q (want heap, mmap, or fixed)", cfg.Provider)
	}

	return tlsf.New(tlsf.Config{
		Provider:  provider,
		Alignment: cfg.Alignment,
	})
}
