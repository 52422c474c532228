package split

import (
	"errors"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
	"github.com/Zuo-Peng/dialogue-chunker/internal/parse"
)

var (
	ErrInputNotFound     = errors.New("input file not found")
	ErrMalformedInput    = parse.ErrMalformed
	ErrResourceExhausted = parse.ErrTooLarge
	ErrStorageWrite      = chunk.ErrStorageWrite
	ErrInvalidBudget     = errors.New("chunk size must be positive")

	// ErrStreamingUnsupported is returned instead of falling back to
	// streaming when streaming is disabled. It always wraps ErrResourceExhausted.
	ErrStreamingUnsupported = errors.New("unsupported for this input size: streaming disabled")
)
