package parse

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
)

// Entry is one dialogue log record. It is kept as the raw JSON bytes of the
// input so that field order and content pass through unchanged.
type Entry = json.RawMessage

var (
	// ErrMalformed is returned when the input is not an ordered sequence of entries.
	ErrMalformed = errors.New("malformed input")
	// ErrTooLarge is returned when the input does not fit the in-memory limit.
	ErrTooLarge = errors.New("input too large to load in memory")
)

// Source yields entries in input order. Next returns io.EOF after the last
// entry. Reset rewinds to the first entry.
type Source interface {
	Next() (Entry, error)
	Reset() error
	Close() error
}

type Format int

const (
	FormatArray Format = iota // one JSON array of entries
	FormatLines               // one entry per line
)

// DetectFormat derives the input format from the file name. A trailing .zst
// marks zstd-compressed input.
func DetectFormat(path string) (format Format, compressed bool) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".zst") {
		compressed = true
		name = strings.TrimSuffix(name, ".zst")
	}
	switch filepath.Ext(name) {
	case ".jsonl", ".ndjson":
		return FormatLines, compressed
	default:
		return FormatArray, compressed
	}
}

// Supported reports whether path has an extension the loaders understand.
func Supported(path string) bool {
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(path)), ".zst")
	switch filepath.Ext(name) {
	case ".json", ".jsonl", ".ndjson":
		return true
	}
	return false
}
