package allocator

import (
	"encoding/binary"

	"go-mm/util/helpers"
)

var bin = binary.LittleEndian

// Ptr is a payload offset from the start of the arena. Offset zero holds a
// bucket head, so it never names a payload and doubles as the nil pointer.
type Ptr uint32

const Nil Ptr = 0

// memory is the heap as seen through the block tags. Block arguments are
// payload offsets; the header sits one word before the payload and the
// footer one double word before the next block's payload.
type memory []byte

func pack(size uint32, alloc bool) uint32 {
	helpers.SetBit(&size, 0, alloc)
	return size
}

func tagSize(tag uint32) uint32 {
	return tag &^ (dsize - 1)
}

func tagAlloc(tag uint32) bool {
	return helpers.GetBit(tag, 0)
}

func hdrp(bp uint32) uint32 {
	return bp - wsize
}

func (m memory) get(off uint32) uint32 {
	return bin.Uint32(m[off : off+wsize])
}

func (m memory) put(off, val uint32) {
	bin.PutUint32(m[off:off+wsize], val)
}

func (m memory) size(bp uint32) uint32 {
	return tagSize(m.get(hdrp(bp)))
}

func (m memory) allocated(bp uint32) bool {
	return tagAlloc(m.get(hdrp(bp)))
}

// ftrp needs the header to already hold the block's size.
func (m memory) ftrp(bp uint32) uint32 {
	return bp + m.size(bp) - dsize
}

func (m memory) next(bp uint32) uint32 {
	return bp + m.size(bp)
}

func (m memory) prev(bp uint32) uint32 {
	return bp - tagSize(m.get(bp-dsize))
}

// tag writes the header first so the footer lands at the new size.
func (m memory) tag(bp, size uint32, alloc bool) {
	m.put(hdrp(bp), pack(size, alloc))
	m.put(m.ftrp(bp), pack(size, alloc))
}

// Free blocks keep their list links in the first two payload words.
func downp(bp uint32) uint32  { return bp }
func abovep(bp uint32) uint32 { return bp + wsize }

func (m memory) clearLinks(bp uint32) {
	m.put(downp(bp), 0)
	m.put(abovep(bp), 0)
}
