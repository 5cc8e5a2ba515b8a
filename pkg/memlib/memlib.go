// Package memlib provides the arena the allocator carves its heap from.
// The whole arena is reserved when it is opened so that offsets handed out
// by Sbrk stay valid for the arena's lifetime; only the break moves.
package memlib

import (
	"go-mm/pkg/customerrors"
	"go-mm/util/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type region interface {
	bytes() []byte
	sync() error
	close() error
}

func Open(opts *Options) (*Arena, error) {
	if opts.MaxHeap <= 0 {
		return nil, errors.Errorf("invalid max heap size %d", opts.MaxHeap)
	}

	var (
		r   region
		err error
	)
	switch opts.Backing {
	case BackingHeap, "":
		r = newSliceRegion(opts.MaxHeap)
	case BackingAnon:
		r, err = newAnonRegion(opts.MaxHeap)
	case BackingFile:
		r, err = newFileRegion(opts.Path, opts.MaxHeap)
	default:
		return nil, errors.Errorf("unknown arena backing '%s'", opts.Backing)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reserve %s arena", opts.Backing)
	}

	logger.L.WithFields(logrus.Fields{
		"backing": opts.Backing,
		"max":     opts.MaxHeap,
	}).Debug("arena reserved")

	return &Arena{
		region: r,
		data:   r.bytes(),
		max:    opts.MaxHeap,
	}, nil
}

// Arena is a contiguous byte range with a monotonically growing break.
type Arena struct {
	region region
	data   []byte
	brk    int
	max    int
}

// Sbrk extends the arena by incr bytes and returns the offset of the old
// break, which is the start of the new region.
func (a *Arena) Sbrk(incr int) (uint32, error) {
	if incr < 0 {
		return 0, errors.Wrapf(customerrors.ErrOutOfMemory, "sbrk: negative increment %d", incr)
	}
	if a.brk+incr > a.max {
		return 0, errors.Wrapf(
			customerrors.ErrOutOfMemory,
			"sbrk: %d bytes past break %d exceeds max heap %d",
			incr, a.brk, a.max,
		)
	}

	old := a.brk
	a.brk += incr
	return uint32(old), nil
}

// Bytes returns the arena from its start up to the current break.
func (a *Arena) Bytes() []byte {
	return a.data[:a.brk:a.brk]
}

func (a *Arena) Size() int {
	return a.brk
}

func (a *Arena) MaxSize() int {
	return a.max
}

// Reset moves the break back to the start of the arena. Any allocator built
// on top of it must be discarded.
func (a *Arena) Reset() {
	a.brk = 0
}

// Sync flushes a file backed arena to disk; other backings ignore it.
func (a *Arena) Sync() error {
	return errors.Wrap(a.region.sync(), "failed to sync arena")
}

func (a *Arena) Close() error {
	a.data = nil
	a.brk = 0
	return errors.Wrap(a.region.close(), "failed to release arena")
}
