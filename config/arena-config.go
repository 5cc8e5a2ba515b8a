package config

import "go-mm/pkg/memlib"

type ArenaConfig struct {
	MaxHeap int
	Backing string
	// Path is only used by the file backing.
	Path string
}

func NewArenaConfig() *ArenaConfig {
	return &ArenaConfig{
		MaxHeap: memlib.DefaultMaxHeap,
		Backing: string(memlib.BackingHeap),
		Path:    "heap.bin",
	}
}

func (c *ArenaConfig) Options() *memlib.Options {
	return &memlib.Options{
		MaxHeap: c.MaxHeap,
		Backing: memlib.Backing(c.Backing),
		Path:    c.Path,
	}
}
