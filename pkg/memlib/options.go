package memlib

// Backing selects the memory that sits behind an Arena.
type Backing string

const (
	// BackingHeap reserves the whole arena as one Go byte slice.
	BackingHeap Backing = "heap"
	// BackingAnon reserves the arena as an anonymous private mapping.
	BackingAnon Backing = "anon"
	// BackingFile maps the arena onto a file so the heap image can be
	// inspected after the process exits. Unix only.
	BackingFile Backing = "file"
)

// DefaultMaxHeap is the arena limit used when none is configured.
const DefaultMaxHeap = 20 * (1 << 20)

type Options struct {
	MaxHeap int
	Backing Backing
	Path    string
}
