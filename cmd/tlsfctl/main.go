// Command tlsfctl builds a TLSF allocator from a small config (provider
// choice, alignment, chunk size) and exposes its operations as subcommands,
// for interactive exploration (via "repl") or one-shot scripted smoke
// checks against a freshly constructed allocator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string
var cfg = defaultProviderConfig()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tlsfctl",
		Short: "Inspect and drive a TLSF allocator instance",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}
			// Explicit flags win over the config file and environment;
			// those only fill in whatever the user didn't pass on the
			// command line.
			flags := cmd.Flags()
			if !flags.Changed("provider") {
				cfg.Provider = loaded.Provider
			}
			if !flags.Changed("alignment") {
				cfg.Alignment = loaded.Alignment
			}
			if !flags.Changed("chunk-size") {
				cfg.ChunkSize = loaded.ChunkSize
			}
			if !flags.Changed("base-address") {
				cfg.BaseAddress = loaded.BaseAddress
			}
			if !flags.Changed("max-chunks") {
				cfg.MaxChunks = loaded.MaxChunks
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&cfg.Provider, "provider", cfg.Provider, "chunk provider: heap, mmap, or fixed")
	root.PersistentFlags().Uint32Var(&cfg.Alignment, "alignment", cfg.Alignment, "allocation alignment in bytes")
	root.PersistentFlags().Uint32Var(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "chunk size for the fixed provider")
	root.PersistentFlags().Uint64Var(&cfg.BaseAddress, "base-address", cfg.BaseAddress, "base address for the fixed provider")
	root.PersistentFlags().IntVar(&cfg.MaxChunks, "max-chunks", cfg.MaxChunks, "chunk budget for the fixed provider (0 = unlimited)")

	root.AddCommand(
		newAllocCmd(),
		newFreeCmd(),
		newResetCmd(),
		newChunksCmd(),
		newDumpCmd(),
		newReplCmd(),
	)
	return root
}
