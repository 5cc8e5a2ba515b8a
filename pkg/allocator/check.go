package allocator

import (
	"go-mm/pkg/customerrors"

	"github.com/pkg/errors"
)

// Check walks the heap and every free list and reports the first broken
// invariant. It never repairs anything.
func (a *Allocator) Check() error {
	m := a.mem
	end := uint32(len(m))
	pro := a.meta.heapStart

	if m.get(hdrp(pro)) != pack(dsize, true) || m.get(pro) != pack(dsize, true) {
		return corrupt("bad prologue header %#x footer %#x", m.get(hdrp(pro)), m.get(pro))
	}

	free := 0
	prevFree := false
	bp := a.meta.firstBlock()
	for {
		if hdrp(bp)+wsize > end {
			return corrupt("block %d starts past the break %d", bp, end)
		}

		hdr := m.get(hdrp(bp))
		size := tagSize(hdr)
		if size == 0 {
			if !tagAlloc(hdr) {
				return corrupt("epilogue at %d is not allocated", bp)
			}
			if hdrp(bp) != end-wsize {
				return corrupt("epilogue at %d is not at the break %d", bp, end)
			}
			break
		}

		switch {
		case bp%dsize != 0:
			return corrupt("block %d is not %d-byte aligned", bp, dsize)
		case size < minBlockSize:
			return corrupt("block %d is smaller than %d bytes: %d", bp, minBlockSize, size)
		case hdrp(bp)+size > end-wsize:
			return corrupt("block %d of %d bytes runs over the epilogue", bp, size)
		}
		if ftr := m.get(m.ftrp(bp)); ftr != hdr {
			return corrupt("block %d header %#x does not match footer %#x", bp, hdr, ftr)
		}

		isFree := !tagAlloc(hdr)
		if isFree && prevFree {
			return corrupt("block %d and the block before it are both free", bp)
		}
		if isFree {
			free++
		}
		prevFree = isFree
		bp += size
	}

	listed := 0
	for class := 0; class < numClasses; class++ {
		above, last := uint32(0), uint32(0)
		for bp := m.get(a.root(class)); bp != 0; bp = m.get(downp(bp)) {
			if listed++; listed > free {
				return corrupt("free lists hold more blocks than the heap has free")
			}
			if bp < a.meta.firstBlock() || bp >= end-wsize || bp%dsize != 0 {
				return corrupt("class %d links to %d outside the heap", class, bp)
			}

			size := m.size(bp)
			switch {
			case m.allocated(bp):
				return corrupt("allocated block %d is in class %d", bp, class)
			case classOf(size) != class:
				return corrupt("block %d of %d bytes is in class %d", bp, size, class)
			case size < last:
				return corrupt("class %d is not sorted at block %d", class, bp)
			case m.get(abovep(bp)) != above:
				return corrupt("block %d links above to %d, expected %d", bp, m.get(abovep(bp)), above)
			}
			above, last = bp, size
		}
	}
	if listed != free {
		return corrupt("free lists hold %d blocks, heap has %d free", listed, free)
	}

	return nil
}

func corrupt(format string, args ...interface{}) error {
	return errors.Wrapf(customerrors.ErrCorruptHeap, format, args...)
}
