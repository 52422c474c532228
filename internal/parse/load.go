package parse

import (
	"bytes"
	"fmt"
	"io"
)

// Slice is a Source over entries held in memory.
type Slice struct {
	entries []Entry
	pos     int
}

func NewSlice(entries []Entry) *Slice {
	return &Slice{entries: entries}
}

func (s *Slice) Next() (Entry, error) {
	if s.pos >= len(s.entries) {
		return nil, io.EOF
	}
	e := s.entries[s.pos]
	s.pos++
	return e, nil
}

func (s *Slice) Reset() error {
	s.pos = 0
	return nil
}

func (s *Slice) Close() error { return nil }

func (s *Slice) Len() int { return len(s.entries) }

// Load reads every entry of path into memory. Inputs whose (decompressed)
// size exceeds limit bytes fail with ErrTooLarge; limit <= 0 disables the check.
func Load(path string, limit int64) (*Slice, error) {
	r, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := readLimited(r, limit)
	if err != nil {
		return nil, err
	}

	format, _ := DetectFormat(path)
	if format == FormatLines {
		lr := newLineReader(bytes.NewReader(data))
		var entries []Entry
		for {
			e, err := lr.next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
		return NewSlice(entries), nil
	}

	entries, err := decodeArray(data)
	if err != nil {
		return nil, err
	}
	return NewSlice(entries), nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
