package config

import (
	"fmt"
	"os"
)

const defaultTOML = `# dchunk configuration

# target size of one chunk, in estimated characters
chunk_size = 25000

# chunk files go to <output_dir>/<input name>/
output_dir = "chunks"

# inputs larger than this are streamed instead of loaded in memory
memory_limit_mb = 256
streaming = true

# record runs in a sqlite ledger for search and browse
ledger = true
db_path = "~/.config/dchunk/dchunk.db"
`

// WriteDefault writes a default config.toml and returns its path. An existing
// file is left untouched.
func WriteDefault() (string, bool, error) {
	path := Path()
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return "", false, fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultTOML), 0o644); err != nil {
		return "", false, fmt.Errorf("write config: %w", err)
	}
	return path, true, nil
}
