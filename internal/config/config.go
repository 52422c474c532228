package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const appName = "dchunk"

type Config struct {
	ChunkSize     int    `toml:"chunk_size"`
	OutputDir     string `toml:"output_dir"`
	MemoryLimitMB int64  `toml:"memory_limit_mb"`
	Streaming     bool   `toml:"streaming"`
	Ledger        bool   `toml:"ledger"`
	DBPath        string `toml:"db_path"`
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	return &Config{
		ChunkSize:     25000,
		OutputDir:     "chunks",
		MemoryLimitMB: 256,
		Streaming:     true,
		Ledger:        true,
		DBPath:        "~/.config/dchunk/dchunk.db",
	}
}

// Load reads config.toml from the config dir over the defaults.
func Load() (*Config, error) {
	cfg := Default()

	cfgPath := Path()
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("parse config %s: chunk_size must be positive, got %d", cfgPath, cfg.ChunkSize)
	}

	// expand ~ in paths
	home, _ := os.UserHomeDir()
	cfg.OutputDir = expandHome(cfg.OutputDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

// MemoryLimit is the in-memory load limit in bytes; 0 means unlimited.
func (c *Config) MemoryLimit() int64 {
	if c.MemoryLimitMB <= 0 {
		return 0
	}
	return c.MemoryLimitMB * 1024 * 1024
}

// Dir returns $XDG_CONFIG_HOME/dchunk, or ~/.config/dchunk.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// Path is the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
