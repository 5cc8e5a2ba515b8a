package allocator

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Block describes one heap block as its tags record it.
type Block struct {
	Ptr       Ptr
	Size      uint32
	Allocated bool
}

func (b Block) Format(f fmt.State, c rune) {
	state := "free"
	if b.Allocated {
		state = "alloc"
	}
	f.Write([]byte(fmt.Sprintf("{ptr:'%v', size:'%v', %s}", uint32(b.Ptr), b.Size, state)))
}

func (a *Allocator) block(bp uint32) Block {
	return Block{Ptr(bp), a.mem.size(bp), a.mem.allocated(bp)}
}

// Walk visits every block between the prologue and the epilogue in address
// order until fn returns false.
func (a *Allocator) Walk(fn func(b Block) bool) {
	for bp := a.meta.firstBlock(); a.mem.size(bp) > 0; bp = a.mem.next(bp) {
		if !fn(a.block(bp)) {
			return
		}
	}
}

// FreeBlocks returns the chain of size class class from head to tail.
func (a *Allocator) FreeBlocks(class int) []Block {
	blocks := []Block{}
	for bp := a.mem.get(a.root(class)); bp != 0; bp = a.mem.get(downp(bp)) {
		blocks = append(blocks, a.block(bp))
	}
	return blocks
}

// NumClasses is the number of free list buckets.
func (a *Allocator) NumClasses() int {
	return numClasses
}

// HeapSize is the number of arena bytes the heap spans, sentinels included.
func (a *Allocator) HeapSize() int {
	return len(a.mem) - int(a.meta.listStart)
}

func (a *Allocator) Print(w io.Writer) error {
	var err error
	a.Walk(func(b Block) bool {
		_, err = fmt.Fprintln(w, b)
		return err == nil
	})
	if err != nil {
		return errors.Wrap(err, "heap print failed")
	}

	for class := 0; class < numClasses; class++ {
		if _, err := fmt.Fprintf(w, "class %d: %v\n", class, a.FreeBlocks(class)); err != nil {
			return errors.Wrap(err, "freelist print failed")
		}
	}
	return nil
}
