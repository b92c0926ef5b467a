package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/XenoAtom/XenoAtom.Allocators/tlsf"
)

// providerConfig mirrors the subset of tlsf.Config plus the chunk-provider
// selection that a user can set on disk, via environment variables
// (TLSFCTL_*), or on the command line. It is loaded once at startup via
// viper and never touched again.
type providerConfig struct {
	Provider    string `mapstructure:"provider"`
	Alignment   uint32 `mapstructure:"alignment"`
	ChunkSize   uint32 `mapstructure:"chunk_size"`
	BaseAddress uint64 `mapstructure:"base_address"`
	MaxChunks   int    `mapstructure:"max_chunks"`
}

func defaultProviderConfig() providerConfig {
	return providerConfig{
		Provider:    "heap",
		Alignment:   tlsf.MinAlignment,
		ChunkSize:   65536,
		BaseAddress: 0xFE00120000000000,
		MaxChunks:   0,
	}
}

func loadConfig(cfgFile string) (providerConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("TLSFCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaultProviderConfig()
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("alignment", cfg.Alignment)
	v.SetDefault("chunk_size", cfg.ChunkSize)
	v.SetDefault("base_address", cfg.BaseAddress)
	v.SetDefault("max_chunks", cfg.MaxChunks)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, errors.Wrap(err, "tlsfctl: reading config file")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "tlsfctl: parsing config")
	}
	return cfg, nil
}
