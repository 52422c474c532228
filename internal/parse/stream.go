package parse

import (
	"errors"
	"io"
)

var errStreamClosed = errors.New("stream closed")

// Stream is a Source that decodes entries lazily from the file. Reset
// reopens the file, so a stream can be walked more than once.
type Stream struct {
	path   string
	format Format
	rc     io.ReadCloser
	next   func() (Entry, error)
}

// OpenStream opens path for lazy, entry-at-a-time reading.
func OpenStream(path string) (*Stream, error) {
	format, _ := DetectFormat(path)
	s := &Stream{path: path, format: format}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stream) open() error {
	rc, err := openReader(s.path)
	if err != nil {
		return err
	}
	s.rc = rc
	if s.format == FormatLines {
		s.next = newLineReader(rc).next
	} else {
		s.next = newArrayReader(rc).next
	}
	return nil
}

func (s *Stream) Next() (Entry, error) {
	if s.rc == nil {
		return nil, errStreamClosed
	}
	return s.next()
}

func (s *Stream) Reset() error {
	if err := s.Close(); err != nil {
		return err
	}
	return s.open()
}

func (s *Stream) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc = nil
	s.next = nil
	return err
}

// Validate drains src and returns the number of entries it yielded.
func Validate(src Source) (int, error) {
	n := 0
	for {
		_, err := src.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
