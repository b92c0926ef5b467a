package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/XenoAtom/XenoAtom.Allocators/tlsf"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Run an interactive session against one long-lived allocator instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAllocator(cfg)
			if err != nil {
				return err
			}
			return runRepl(a, os.Stdin, os.Stdout)
		},
	}
}

// runRepl reads one command per line from in and writes results to out,
// keeping every Token issued by "alloc" addressable by a printed integer
// handle so a session can be scripted:
//
//	alloc <size>   allocate size bytes, print "handle=<n> address=... size=... chunk=..."
//	free <handle>  free the allocation with that handle
//	reset          release every chunk and start over
//	chunks         print chunk summaries
//	dump           print a full diagnostic dump
//	quit / exit    end the session
func runRepl(a *tlsf.Allocator, in *os.File, out *os.File) error {
	tokens := make(map[int]tlsf.Token)
	nextHandle := 1

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return nil

		case "alloc":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: alloc <size>")
				continue
			}
			size, err := strconv.ParseUint(fields[1], 10, 32)
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			alloc, err := a.Allocate(uint32(size))
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			handle := nextHandle
			nextHandle++
			tokens[handle] = alloc.Token
			fmt.Fprintf(out, "handle=%d address=0x%x size=%d chunk=%d\n",
				handle, uint64(alloc.Address), alloc.Size, alloc.ChunkID)

		case "free":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: free <handle>")
				continue
			}
			handle, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			tok, ok := tokens[handle]
			if !ok {
				fmt.Fprintln(out, "error: unknown handle", handle)
				continue
			}
			a.Free(tok)
			delete(tokens, handle)

		case "reset":
			if err := a.Reset(); err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			tokens = make(map[int]tlsf.Token)
			nextHandle = 1

		case "chunks":
			for _, c := range a.Chunks() {
				fmt.Fprintf(out, "id=%d base=0x%x size=%d allocated=%d used=%d free=%d\n",
					c.ID, uint64(c.Base), c.Size, c.TotalAllocated, c.UsedCount, c.FreeCount)
			}

		case "dump":
			if err := a.Dump(out); err != nil {
				fmt.Fprintln(out, "error:", err)
			}

		default:
			fmt.Fprintln(out, "unknown command:", fields[0])
		}
	}
	return scanner.Err()
}
