package chunk

import (
	"fmt"
	"strconv"

	"github.com/Zuo-Peng/dialogue-chunker/internal/parse"
)

const (
	ModeMemory    = "memory"
	ModeStreaming = "streaming"
)

// Chunk is a sealed, numbered group of consecutive entries.
type Chunk struct {
	Number  int
	Entries []parse.Entry
	Size    int // estimated characters
}

type Metadata struct {
	ChunkNumber int    `json:"chunk_number"`
	EntryCount  int    `json:"entry_count"`
	SessionID   string `json:"session_id"`
}

func (c Chunk) Metadata() Metadata {
	return Metadata{
		ChunkNumber: c.Number,
		EntryCount:  len(c.Entries),
		SessionID:   SessionID(c.Number),
	}
}

// SessionID is the identifier a downstream reader uses to cite a chunk.
func SessionID(number int) string {
	return "E" + strconv.Itoa(number)
}

// File is the on-disk layout of one chunk.
type File struct {
	Metadata Metadata      `json:"chunk_metadata"`
	Entries  []parse.Entry `json:"entries"`
}

// Stats summarizes one run.
type Stats struct {
	InputFile        string  `json:"input_file"`
	TotalEntries     int     `json:"total_entries"`
	TotalCharacters  int     `json:"total_characters"`
	ChunkCount       int     `json:"chunk_count"`
	AverageChunkSize float64 `json:"average_chunk_size"`
	OutputDirectory  string  `json:"output_directory"`
	Mode             string  `json:"mode"`
}

// Finalize computes the derived fields. The average is 0 when no chunk was produced.
func (s *Stats) Finalize() {
	if s.ChunkCount == 0 {
		s.AverageChunkSize = 0
		return
	}
	s.AverageChunkSize = float64(s.TotalCharacters) / float64(s.ChunkCount)
}

func (s Stats) String() string {
	return fmt.Sprintf("entries=%d characters=%d chunks=%d avg=%.0f mode=%s",
		s.TotalEntries, s.TotalCharacters, s.ChunkCount, s.AverageChunkSize, s.Mode)
}
