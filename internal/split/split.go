// Package split drives one end-to-end split of a dialogue log into chunk files.
package split

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
	"github.com/Zuo-Peng/dialogue-chunker/internal/parse"
)

// Options configures a run. Nothing is read from global state.
type Options struct {
	Budget     int    // target characters per chunk
	OutputRoot string // namespaces are created below this directory

	// MemoryLimit is the largest input, in bytes after decompression, that is
	// loaded in memory. Larger inputs are streamed. Zero means no limit.
	MemoryLimit int64
	Streaming   bool

	// Logger receives structured run events. When nil, a discard logger is used.
	Logger *slog.Logger

	// OnChunk, when set, is called after each chunk file is written.
	OnChunk func(c chunk.Chunk, path string)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Run splits input into chunk files below opts.OutputRoot and writes the run
// statistics. Statistics are only written when the whole run succeeds; chunk
// files written before a failure are left in place.
func Run(input string, opts Options) (chunk.Stats, error) {
	logger := opts.logger()

	if opts.Budget <= 0 {
		return chunk.Stats{}, fmt.Errorf("%w: %d", ErrInvalidBudget, opts.Budget)
	}
	info, err := os.Stat(input)
	if err != nil || !info.Mode().IsRegular() {
		return chunk.Stats{}, fmt.Errorf("%w: %s", ErrInputNotFound, input)
	}

	w := chunk.NewWriter(opts.OutputRoot, input)
	if err := w.Prepare(); err != nil {
		return chunk.Stats{}, err
	}

	src, mode, err := open(input, opts, logger)
	if err != nil {
		return chunk.Stats{}, err
	}
	defer src.Close()

	stats := chunk.Stats{
		InputFile:       input,
		OutputDirectory: w.Dir(),
		Mode:            mode,
	}
	if err := process(src, w, opts, logger, &stats); err != nil {
		return chunk.Stats{}, err
	}
	stats.Finalize()

	if _, err := w.WriteStats(stats); err != nil {
		return chunk.Stats{}, err
	}
	logger.Debug("run complete", "input", input, "chunks", stats.ChunkCount, "mode", mode)
	return stats, nil
}

// open loads input in memory, falling back to a validated stream when the
// input exceeds the memory limit.
func open(input string, opts Options, logger *slog.Logger) (parse.Source, string, error) {
	src, err := parse.Load(input, opts.MemoryLimit)
	if err == nil {
		logger.Debug("loaded input", "input", input, "entries", src.Len())
		return src, chunk.ModeMemory, nil
	}
	if !errors.Is(err, parse.ErrTooLarge) {
		return nil, "", err
	}

	if !opts.Streaming {
		return nil, "", fmt.Errorf("%w: %w", ErrStreamingUnsupported, err)
	}
	logger.Warn("file too large for memory, using streaming", "input", input, "limit", opts.MemoryLimit)

	stream, err := parse.OpenStream(input)
	if err != nil {
		return nil, "", err
	}
	// A full pass first, so malformed input fails before any chunk is written.
	n, err := parse.Validate(stream)
	if err != nil {
		stream.Close()
		return nil, "", err
	}
	if err := stream.Reset(); err != nil {
		stream.Close()
		return nil, "", err
	}
	logger.Debug("validated stream", "input", input, "entries", n)
	return stream, chunk.ModeStreaming, nil
}

func process(src parse.Source, w *chunk.Writer, opts Options, logger *slog.Logger, stats *chunk.Stats) error {
	acc := chunk.NewAccumulator(opts.Budget)

	emit := func(c chunk.Chunk) error {
		path, err := w.Write(c)
		if err != nil {
			return err
		}
		stats.ChunkCount++
		logger.Debug("saved chunk", "chunk", c.Number, "entries", len(c.Entries), "size", c.Size)
		if opts.OnChunk != nil {
			opts.OnChunk(c, path)
		}
		return nil
	}

	for {
		e, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		size := chunk.Estimate(e)
		stats.TotalEntries++
		stats.TotalCharacters += size

		if c, ok := acc.Offer(e, size); ok {
			if err := emit(c); err != nil {
				return err
			}
		}
	}

	if c, ok := acc.Flush(); ok {
		return emit(c)
	}
	return nil
}
