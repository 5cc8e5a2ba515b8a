package config

import (
	"go-mm/pkg/allocator"
	"go-mm/util/logger"
)

type AllocatorConfig struct {
	ChunkSize uint32
	Debug     bool
}

func NewAllocatorConfig() *AllocatorConfig {
	return &AllocatorConfig{
		ChunkSize: allocator.DefaultChunkSize,
		Debug:     false,
	}
}

func (c *AllocatorConfig) Options() *allocator.Options {
	return &allocator.Options{
		ChunkSize: c.ChunkSize,
		Debug:     c.Debug,
		Logger:    logger.L,
	}
}
