package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const notAList = "JSON file must contain a list of dialogue entries"

// arrayReader walks a top-level JSON array token by token, decoding one
// element at a time so the array itself is never materialized.
type arrayReader struct {
	dec     *json.Decoder
	started bool
	done    bool
	index   int
}

func newArrayReader(r io.Reader) *arrayReader {
	return &arrayReader{dec: json.NewDecoder(r)}
}

func (a *arrayReader) next() (Entry, error) {
	if a.done {
		return nil, io.EOF
	}

	if !a.started {
		tok, err := a.dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty input", ErrMalformed)
		}
		if err != nil {
			return nil, malformed(err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return nil, fmt.Errorf("%w: %s", ErrMalformed, notAList)
		}
		a.started = true
	}

	if !a.dec.More() {
		if _, err := a.dec.Token(); err != nil {
			return nil, malformed(err)
		}
		if _, err := a.dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("%w: unexpected data after array", ErrMalformed)
		}
		a.done = true
		return nil, io.EOF
	}

	var e Entry
	if err := a.dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformed, a.index, err)
	}
	a.index++
	return e, nil
}

// decodeArray decodes a whole JSON array held in memory.
func decodeArray(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %s, got %s", ErrMalformed, notAList, typeErr.Value)
		}
		return nil, malformed(err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: %s, got null", ErrMalformed, notAList)
	}
	return entries, nil
}

func malformed(err error) error {
	if errors.Is(err, ErrMalformed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
