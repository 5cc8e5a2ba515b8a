// Package allocator implements a segregated-fit heap allocator over a single
// growable arena. Blocks carry boundary tags (a header and a footer word
// holding size and allocated bit), free blocks are kept in ten size-class
// buckets sorted by size, and freed blocks are merged with free neighbours
// immediately.
//
// An Allocator is not safe for concurrent use.
package allocator

import (
	"math"

	"go-mm/pkg/customerrors"
	"go-mm/util/helpers"
	"go-mm/util/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// New lays the heap out at the arena's current break and grows it by one
// chunk. The heap is initialized exactly once, here.
func New(arena Arena, opts *Options) (*Allocator, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < minBlockSize || chunkSize%dsize != 0 {
		return nil, errors.Errorf("invalid chunk size %d", chunkSize)
	}

	log := opts.Logger
	if log == nil {
		log = logger.L
	}

	a := &Allocator{
		arena:     arena,
		chunkSize: chunkSize,
		debug:     opts.Debug,
		log:       log,
	}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

type Allocator struct {
	arena     Arena
	mem       memory
	meta      *metadata
	chunkSize uint32
	debug     bool
	log       *logrus.Logger
}

// Alloc returns a block with at least size usable bytes. A zero size
// returns Nil and leaves the heap untouched.
func (a *Allocator) Alloc(size uint32) (Ptr, error) {
	if size == 0 {
		return Nil, nil
	}
	if size > maxRequest {
		return Nil, errors.Wrapf(customerrors.ErrOutOfMemory, "request of %d bytes is too large", size)
	}

	asize := adjustSize(size)
	if bp := a.findFit(asize); bp != 0 {
		a.place(bp, asize)
		return Ptr(bp), nil
	}

	bp, err := a.extend(helpers.Max(asize, a.chunkSize) / wsize)
	if err != nil {
		return Nil, errors.Wrapf(err, "failed to allocate %d bytes", size)
	}
	a.place(bp, asize)
	return Ptr(bp), nil
}

// Free releases a block returned by Alloc or Realloc. Nil is ignored.
func (a *Allocator) Free(p Ptr) {
	if p == Nil {
		return
	}

	bp := uint32(p)
	if a.debug {
		a.mustBeAllocated(bp, "free")
	}

	a.mem.tag(bp, a.mem.size(bp), false)
	a.mem.clearLinks(bp)
	a.coalesce(bp)
}

// Realloc moves the block to one of the new size, keeping the leading
// min(old, new) bytes. A Nil pointer behaves as Alloc, a zero size as Free.
// When the new block cannot be allocated the old one is left as it was.
func (a *Allocator) Realloc(p Ptr, size uint32) (Ptr, error) {
	if p == Nil {
		return a.Alloc(size)
	}
	if size == 0 {
		a.Free(p)
		return Nil, nil
	}
	if a.debug {
		a.mustBeAllocated(uint32(p), "realloc")
	}

	np, err := a.Alloc(size)
	if err != nil {
		return Nil, errors.Wrapf(err, "failed to reallocate block %d", p)
	}

	n := helpers.Min(a.UsableSize(p), size)
	copy(a.mem[np:uint32(np)+n], a.mem[p:uint32(p)+n])
	a.Free(p)
	return np, nil
}

// UsableSize is the number of payload bytes the block can hold.
func (a *Allocator) UsableSize(p Ptr) uint32 {
	return a.mem.size(uint32(p)) - dsize
}

// Bytes returns the block's payload. The slice stays valid until the block
// is freed.
func (a *Allocator) Bytes(p Ptr) []byte {
	bp := uint32(p)
	end := bp + a.UsableSize(p)
	return a.mem[bp:end:end]
}

func adjustSize(size uint32) uint32 {
	if size <= dsize {
		return minBlockSize
	}
	return helpers.AlignUp(size+dsize, dsize)
}

func (a *Allocator) init() error {
	base, err := a.arena.Sbrk(prologueWords * wsize)
	if err != nil {
		return errors.Wrap(err, "failed to reserve heap prologue")
	}
	if base%dsize != 0 {
		return errors.Errorf("arena break %d is not %d-byte aligned", base, dsize)
	}
	a.mem = memory(a.arena.Bytes())

	for class := 0; class < numClasses; class++ {
		a.mem.put(base+uint32(class)*wsize, 0)
	}
	a.mem.put(base+numClasses*wsize, 0)
	a.mem.put(base+(numClasses+1)*wsize, pack(dsize, true))
	a.mem.put(base+(numClasses+2)*wsize, pack(dsize, true))
	a.mem.put(base+(numClasses+3)*wsize, pack(0, true))

	a.meta = &metadata{
		listStart: base,
		heapStart: base + (numClasses+2)*wsize,
	}

	if _, err := a.extend(a.chunkSize / wsize); err != nil {
		return errors.Wrap(err, "failed to extend initial heap")
	}

	a.log.WithFields(logrus.Fields{
		"heapStart": a.meta.heapStart,
		"chunkSize": a.chunkSize,
	}).Debug("heap initialized")
	return nil
}

// extend grows the heap by an even number of words and returns the new
// free block, merged with a free block that ended at the old epilogue.
func (a *Allocator) extend(words uint32) (uint32, error) {
	if words%2 != 0 {
		words++
	}
	size := words * wsize
	if uint64(len(a.mem))+uint64(size) > math.MaxUint32 {
		return 0, errors.Wrapf(customerrors.ErrOutOfMemory, "heap of %d bytes cannot grow by %d", len(a.mem), size)
	}

	bp, err := a.arena.Sbrk(int(size))
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"bytes": size,
			"break": len(a.mem),
		}).Warn("heap extension failed")
		return 0, errors.Wrapf(err, "failed to extend heap by %d bytes", size)
	}
	a.mem = memory(a.arena.Bytes())

	// the new block's header overwrites the old epilogue
	a.mem.tag(bp, size, false)
	a.mem.clearLinks(bp)
	a.mem.put(hdrp(a.mem.next(bp)), pack(0, true))

	a.log.WithFields(logrus.Fields{
		"bytes": size,
		"break": len(a.mem),
	}).Debug("heap extended")

	return a.coalesce(bp), nil
}

// place allocates asize bytes at the start of free block bp. A remainder
// big enough to be a block of its own is split off and freed.
func (a *Allocator) place(bp, asize uint32) {
	m := a.mem
	csize := m.size(bp)
	a.remove(bp)

	if csize-asize < minBlockSize {
		m.tag(bp, csize, true)
		return
	}

	m.tag(bp, asize, true)
	rest := m.next(bp)
	m.tag(rest, csize-asize, false)
	m.clearLinks(rest)
	a.coalesce(rest)
}

// coalesce merges free block bp with its free neighbours and links the
// result into the free lists. bp must not be linked on entry.
func (a *Allocator) coalesce(bp uint32) uint32 {
	m := a.mem
	prevAlloc := tagAlloc(m.get(bp - dsize))
	nextAlloc := m.allocated(m.next(bp))
	size := m.size(bp)

	switch {
	case prevAlloc && nextAlloc:

	case prevAlloc && !nextAlloc:
		next := m.next(bp)
		a.remove(next)
		size += m.size(next)
		m.tag(bp, size, false)

	case !prevAlloc && nextAlloc:
		prev := m.prev(bp)
		a.remove(prev)
		size += m.size(prev)
		bp = prev
		m.tag(bp, size, false)

	default:
		prev, next := m.prev(bp), m.next(bp)
		a.remove(prev)
		a.remove(next)
		size += m.size(prev) + m.size(next)
		bp = prev
		m.tag(bp, size, false)
	}

	a.insert(bp)
	return bp
}

func (a *Allocator) mustBeAllocated(bp uint32, op string) {
	if err := a.validate(bp); err != nil {
		panic(errors.Wrapf(err, "%s of block %d", op, bp))
	}
}

func (a *Allocator) validate(bp uint32) error {
	m := a.mem
	epilogue := uint32(len(m)) - wsize
	if bp < a.meta.firstBlock() || bp >= epilogue || bp%dsize != 0 {
		return errors.Wrap(customerrors.ErrInvalidPointer, "outside the heap or misaligned")
	}

	hdr := m.get(hdrp(bp))
	size := tagSize(hdr)
	if size < minBlockSize || hdrp(bp)+size > epilogue {
		return errors.Wrapf(customerrors.ErrInvalidPointer, "bad block size %d", size)
	}
	if ftr := m.get(m.ftrp(bp)); ftr != hdr {
		return errors.Wrapf(customerrors.ErrInvalidPointer, "header %#x does not match footer %#x", hdr, ftr)
	}
	if !tagAlloc(hdr) {
		return errors.Wrap(customerrors.ErrInvalidPointer, "block is not allocated")
	}
	return nil
}
