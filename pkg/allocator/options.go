package allocator

import "github.com/sirupsen/logrus"

// Arena is the growth primitive the heap is built on. Sbrk returns the
// offset of the old break; Bytes returns the arena up to the current break
// and must keep earlier bytes at the same offsets after growth.
type Arena interface {
	Sbrk(incr int) (uint32, error)
	Bytes() []byte
}

type Options struct {
	// ChunkSize is the minimum number of bytes requested from the arena
	// when no free block fits. Must be a multiple of 8, at least 16.
	ChunkSize uint32

	// Debug makes Free and Realloc validate their pointer and panic on
	// contract violations.
	Debug bool

	Logger *logrus.Logger
}

func DefaultOptions() *Options {
	return &Options{ChunkSize: DefaultChunkSize}
}
