package allocator

const (
	wsize = 4 // word, header and footer size
	dsize = 8 // double word, the alignment unit

	// DefaultChunkSize is how far the heap grows when no free block fits.
	DefaultChunkSize = 1 << 12

	// header + footer + down and above links
	minBlockSize = 2 * dsize

	numClasses = 10

	// bucket heads, one padding word, prologue header and footer, epilogue
	prologueWords = numClasses + 4

	maxRequest = 1<<32 - 1 - 2*dsize
)

// metadata records where the fixed part of the heap lives in the arena.
//
//	listStart+0  .. +39  bucket heads, one word per size class
//	listStart+40         padding
//	listStart+44         prologue header, PACK(8, 1)
//	listStart+48         prologue footer, PACK(8, 1)  <- heapStart
//	listStart+52         epilogue header, PACK(0, 1)
//
// The first real block has its payload at heapStart+8, which is 8-aligned
// whenever listStart is.
type metadata struct {
	listStart uint32
	heapStart uint32
}

func (m *metadata) firstBlock() uint32 {
	return m.heapStart + dsize
}
