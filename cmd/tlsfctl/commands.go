package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newAllocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alloc <size>",
		Short: "Allocate size bytes from a freshly constructed allocator and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("tlsfctl: invalid size %q: %w", args[0], err)
			}

			a, err := newAllocator(cfg)
			if err != nil {
				return err
			}

			alloc, err := a.Allocate(uint32(size))
			if err != nil {
				return err
			}

			fmt.Printf("address=0x%x size=%d chunk=%d token=%s\n",
				uint64(alloc.Address), alloc.Size, alloc.ChunkID, alloc.Token)
			return a.Dump(os.Stdout)
		},
	}
}

func newFreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "free <size>",
		Short: "Allocate then immediately free size bytes, printing the dump after the free",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("tlsfctl: invalid size %q: %w", args[0], err)
			}

			a, err := newAllocator(cfg)
			if err != nil {
				return err
			}

			alloc, err := a.Allocate(uint32(size))
			if err != nil {
				return err
			}

			a.Free(alloc.Token)
			return a.Dump(os.Stdout)
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Construct an allocator and immediately reset it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAllocator(cfg)
			if err != nil {
				return err
			}
			if err := a.Reset(); err != nil {
				return err
			}
			return a.Dump(os.Stdout)
		},
	}
}

func newChunksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chunks",
		Short: "Print the chunk summary of a freshly constructed allocator",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAllocator(cfg)
			if err != nil {
				return err
			}
			for _, c := range a.Chunks() {
				fmt.Printf("id=%d base=0x%x size=%d allocated=%d used=%d free=%d\n",
					c.ID, uint64(c.Base), c.Size, c.TotalAllocated, c.UsedCount, c.FreeCount)
			}
			return nil
		},
	}
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print a full diagnostic dump of a freshly constructed allocator",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAllocator(cfg)
			if err != nil {
				return err
			}
			return a.Dump(os.Stdout)
		},
	}
}
