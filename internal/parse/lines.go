package parse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// lineReader reads one entry per non-blank line. Unlike transcript parsing,
// an undecodable line is an error: entries are never dropped. Lines have no
// length limit, so a single huge entry is read like any other.
type lineReader struct {
	r    *bufio.Reader
	line int
	done bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

func (l *lineReader) next() (Entry, error) {
	for !l.done {
		raw, err := l.r.ReadBytes('\n')
		if err == io.EOF {
			l.done = true
		} else if err != nil {
			return nil, err
		}
		l.line++

		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, fmt.Errorf("%w: line %d is not valid JSON", ErrMalformed, l.line)
		}
		return Entry(line), nil
	}
	return nil, io.EOF
}
