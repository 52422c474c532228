package parse

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	n, err := z.dec.Read(p)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: decompress: %v", ErrMalformed, err)
	}
	return n, err
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}

// openReader opens path, transparently decompressing *.zst files.
func openReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if _, compressed := DetectFormat(path); !compressed {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &zstdReadCloser{dec: dec, f: f}, nil
}
