package pipeline

import (
	"fmt"

	"github.com/pxndameong/era5-month-excel/internal/era5"
)

// Chunk is an inclusive range of years processed together.
type Chunk struct {
	First int
	Last  int
}

// Years returns the years of the chunk as a set.
func (c Chunk) Years() era5.YearSet {
	return era5.YearsBetween(c.First, c.Last)
}

func (c Chunk) String() string {
	if c.First == c.Last {
		return fmt.Sprint(c.First)
	}
	return fmt.Sprintf("%d-%d", c.First, c.Last)
}

// Partition splits start..end into consecutive chunks of size years. The
// last chunk may be shorter. A non-positive size yields a single chunk.
func Partition(start, end, size int) []Chunk {
	if start > end {
		return nil
	}
	if size < 1 {
		return []Chunk{{First: start, Last: end}}
	}
	var chunks []Chunk
	for first := start; first <= end; first += size {
		chunks = append(chunks, Chunk{First: first, Last: min(first+size-1, end)})
	}
	return chunks
}
