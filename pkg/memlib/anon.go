package memlib

import (
	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

type anonRegion struct {
	m mmap.MMap
}

func newAnonRegion(size int) (*anonRegion, error) {
	m, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, errors.Wrap(err, "anonymous mapping failed")
	}
	return &anonRegion{m: m}, nil
}

func (r *anonRegion) bytes() []byte { return r.m }
func (r *anonRegion) sync() error   { return nil }

func (r *anonRegion) close() error {
	return r.m.Unmap()
}
