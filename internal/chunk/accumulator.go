package chunk

import "github.com/Zuo-Peng/dialogue-chunker/internal/parse"

// Accumulator groups consecutive entries into chunks whose estimated size
// stays within budget. An entry larger than the budget becomes a chunk of its
// own; entries are never split or dropped.
type Accumulator struct {
	budget int
	buf    []parse.Entry
	size   int
	sealed int
}

func NewAccumulator(budget int) *Accumulator {
	return &Accumulator{budget: budget}
}

// Offer adds entry to the buffer. When the entry would push a non-empty
// buffer over budget, the buffer is sealed first and returned.
func (a *Accumulator) Offer(entry parse.Entry, size int) (Chunk, bool) {
	var out Chunk
	sealed := false
	if len(a.buf) > 0 && a.size+size > a.budget {
		out = a.seal()
		sealed = true
	}
	a.buf = append(a.buf, entry)
	a.size += size
	return out, sealed
}

// Flush seals whatever remains. It reports false when the buffer is empty.
func (a *Accumulator) Flush() (Chunk, bool) {
	if len(a.buf) == 0 {
		return Chunk{}, false
	}
	return a.seal(), true
}

func (a *Accumulator) seal() Chunk {
	a.sealed++
	c := Chunk{Number: a.sealed, Entries: a.buf, Size: a.size}
	a.buf = nil
	a.size = 0
	return c
}
