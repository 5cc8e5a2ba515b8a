package allocator

import (
	"bytes"
	"math"
	"math/rand"
	"testing"
	"unsafe"

	"go-mm/pkg/customerrors"
	"go-mm/pkg/memlib"

	"github.com/stretchr/testify/require"
)

func newAllocator(t *testing.T, maxHeap int, opts *Options) (*Allocator, *memlib.Arena) {
	t.Helper()

	arena, err := memlib.Open(&memlib.Options{MaxHeap: maxHeap})
	require.NoError(t, err)
	t.Cleanup(func() { arena.Close() })

	a, err := New(arena, opts)
	require.NoError(t, err)
	require.NoError(t, a.Check())
	return a, arena
}

func blocks(a *Allocator) []Block {
	list := []Block{}
	a.Walk(func(b Block) bool {
		list = append(list, b)
		return true
	})
	return list
}

func fill(a *Allocator, p Ptr, n uint32, b byte) {
	payload := a.Bytes(p)
	for i := uint32(0); i < n; i++ {
		payload[i] = b
	}
}

func TestNew(t *testing.T) {
	a, arena := newAllocator(t, 1<<16, nil)

	require.Equal(t, 4152, arena.Size())
	require.Equal(t, 4152, a.HeapSize())
	require.Equal(t, []Block{{56, 4096, false}}, blocks(a))
	require.Equal(t, []Block{{56, 4096, false}}, a.FreeBlocks(9))
	for class := 0; class < 9; class++ {
		require.Empty(t, a.FreeBlocks(class))
	}
}

func TestNewOutOfMemory(t *testing.T) {
	for _, limit := range []int{40, 56, 4000} {
		arena, err := memlib.Open(&memlib.Options{MaxHeap: limit})
		require.NoError(t, err)

		_, err = New(arena, nil)
		require.ErrorIs(t, err, customerrors.ErrOutOfMemory, "max heap %d", limit)
		require.NoError(t, arena.Close())
	}
}

func TestNewInvalidOptions(t *testing.T) {
	arena, err := memlib.Open(&memlib.Options{MaxHeap: 1 << 16})
	require.NoError(t, err)
	defer arena.Close()

	_, err = New(arena, &Options{ChunkSize: 8})
	require.Error(t, err)
	_, err = New(arena, &Options{ChunkSize: 20})
	require.Error(t, err)
}

func TestNewMisalignedArena(t *testing.T) {
	arena, err := memlib.Open(&memlib.Options{MaxHeap: 1 << 16})
	require.NoError(t, err)
	defer arena.Close()

	_, err = arena.Sbrk(4)
	require.NoError(t, err)
	_, err = New(arena, nil)
	require.Error(t, err)
}

func TestNewAfterArenaBreak(t *testing.T) {
	arena, err := memlib.Open(&memlib.Options{MaxHeap: 1 << 16})
	require.NoError(t, err)
	defer arena.Close()

	_, err = arena.Sbrk(16)
	require.NoError(t, err)
	a, err := New(arena, &Options{ChunkSize: 1024})
	require.NoError(t, err)
	require.NoError(t, a.Check())
	require.Equal(t, []Block{{72, 1024, false}}, blocks(a))

	p, err := a.Alloc(10)
	require.NoError(t, err)
	require.Equal(t, Ptr(72), p)
	require.Equal(t, 1024+14*4, a.HeapSize())
}

func TestAllocZero(t *testing.T) {
	a, arena := newAllocator(t, 1<<16, nil)
	_, err := a.Alloc(300)
	require.NoError(t, err)

	before := append([]byte(nil), arena.Bytes()...)
	p, err := a.Alloc(0)
	require.NoError(t, err)
	require.Equal(t, Nil, p)
	require.True(t, bytes.Equal(before, arena.Bytes()))
}

func TestAllocSizes(t *testing.T) {
	a, _ := newAllocator(t, 1<<16, nil)

	p, err := a.Alloc(1)
	require.NoError(t, err)
	require.Equal(t, Ptr(56), p)
	require.Equal(t, uint32(8), a.UsableSize(p))

	q, err := a.Alloc(100)
	require.NoError(t, err)
	require.Equal(t, Ptr(72), q)
	require.Equal(t, uint32(104), a.UsableSize(q))
	require.Len(t, a.Bytes(q), 104)

	require.Equal(t, []Block{
		{56, 16, true},
		{72, 112, true},
		{184, 3968, false},
	}, blocks(a))
	require.NoError(t, a.Check())
}

func TestAllocTooLarge(t *testing.T) {
	a, _ := newAllocator(t, 1<<16, nil)

	_, err := a.Alloc(math.MaxUint32)
	require.ErrorIs(t, err, customerrors.ErrOutOfMemory)
	_, err = a.Alloc(1 << 20)
	require.ErrorIs(t, err, customerrors.ErrOutOfMemory)
	require.NoError(t, a.Check())
}

func TestAlignmentAndSizeFidelity(t *testing.T) {
	a, arena := newAllocator(t, 1<<20, nil)

	for n := uint32(1); n < 600; n += 7 {
		p, err := a.Alloc(n)
		require.NoError(t, err)
		require.Zero(t, uint32(p)%8, "payload offset %d", p)
		require.Zero(t, uintptr(unsafe.Pointer(&arena.Bytes()[p]))%8, "payload address of %d", p)
		require.GreaterOrEqual(t, a.UsableSize(p), n)
	}
	require.NoError(t, a.Check())
}

func TestReuse(t *testing.T) {
	a, _ := newAllocator(t, 1<<16, nil)

	p, err := a.Alloc(100)
	require.NoError(t, err)
	a.Free(p)
	require.Equal(t, []Block{{56, 4096, false}}, blocks(a))

	q, err := a.Alloc(100)
	require.NoError(t, err)
	require.Equal(t, p, q)
	require.Equal(t, 4152, a.HeapSize())
}

func TestCoalesceTripleFree(t *testing.T) {
	a, _ := newAllocator(t, 1<<16, nil)

	var ptrs [3]Ptr
	for i := range ptrs {
		p, err := a.Alloc(100)
		require.NoError(t, err)
		ptrs[i] = p
	}
	require.Equal(t, [3]Ptr{56, 168, 280}, ptrs)

	// take the rest of the chunk so nothing else is free
	rest, err := a.Alloc(3752)
	require.NoError(t, err)
	require.Equal(t, Ptr(392), rest)
	require.Equal(t, uint32(3752), a.UsableSize(rest))
	for class := 0; class < numClasses; class++ {
		require.Empty(t, a.FreeBlocks(class))
	}

	a.Free(ptrs[0])
	a.Free(ptrs[2])
	require.Equal(t, []Block{{280, 112, false}, {56, 112, false}}, a.FreeBlocks(4))
	require.NoError(t, a.Check())

	a.Free(ptrs[1])
	require.NoError(t, a.Check())
	require.Empty(t, a.FreeBlocks(4))
	require.Equal(t, []Block{{56, 336, false}}, a.FreeBlocks(6))
	require.Equal(t, []Block{{56, 336, false}, {392, 3760, true}}, blocks(a))

	// 320 bytes need a 328 byte block, only the merged range has room
	p, err := a.Alloc(320)
	require.NoError(t, err)
	require.Equal(t, Ptr(56), p)
	require.Equal(t, 4152, a.HeapSize())
	require.Equal(t, []Block{{56, 336, true}, {392, 3760, true}}, blocks(a))
}

func TestCoalesceWithNext(t *testing.T) {
	a, _ := newAllocator(t, 1<<16, nil)

	p1, _ := a.Alloc(100)
	p2, _ := a.Alloc(100)
	_, err := a.Alloc(100)
	require.NoError(t, err)

	a.Free(p2)
	a.Free(p1)
	require.Equal(t, []Block{{56, 224, false}}, a.FreeBlocks(5))
	require.NoError(t, a.Check())
}

func TestCoalesceWithPrev(t *testing.T) {
	a, _ := newAllocator(t, 1<<16, nil)

	p1, _ := a.Alloc(100)
	p2, _ := a.Alloc(100)
	_, err := a.Alloc(100)
	require.NoError(t, err)

	a.Free(p1)
	a.Free(p2)
	require.Equal(t, []Block{{56, 224, false}}, a.FreeBlocks(5))
	require.NoError(t, a.Check())
}

func TestExtendMergesTrailingFree(t *testing.T) {
	a, arena := newAllocator(t, 1<<16, nil)

	p, err := a.Alloc(100)
	require.NoError(t, err)
	require.Equal(t, []Block{{56, 112, true}, {168, 3984, false}}, blocks(a))

	q, err := a.Alloc(5000)
	require.NoError(t, err)
	require.Equal(t, Ptr(168), q)
	require.Equal(t, 4152+5008, arena.Size())
	require.Equal(t, []Block{
		{p, 112, true},
		{168, 5008, true},
		{5176, 3984, false},
	}, blocks(a))
	require.NoError(t, a.Check())
}

func TestFreeNil(t *testing.T) {
	a, arena := newAllocator(t, 1<<16, nil)

	before := append([]byte(nil), arena.Bytes()...)
	a.Free(Nil)
	require.True(t, bytes.Equal(before, arena.Bytes()))
}

func TestRealloc(t *testing.T) {
	a, _ := newAllocator(t, 1<<16, nil)

	p, err := a.Realloc(Nil, 100)
	require.NoError(t, err)
	require.Equal(t, Ptr(56), p)
	for i := range a.Bytes(p) {
		a.Bytes(p)[i] = byte(i)
	}

	q, err := a.Realloc(p, 500)
	require.NoError(t, err)
	require.Equal(t, Ptr(168), q)
	require.GreaterOrEqual(t, a.UsableSize(q), uint32(500))
	for i := 0; i < 104; i++ {
		require.Equal(t, byte(i), a.Bytes(q)[i], "byte %d", i)
	}
	require.NoError(t, a.Check())

	r, err := a.Realloc(q, 10)
	require.NoError(t, err)
	require.Equal(t, Ptr(56), r)
	for i := 0; i < 10; i++ {
		require.Equal(t, byte(i), a.Bytes(r)[i], "byte %d", i)
	}
	require.NoError(t, a.Check())

	r, err = a.Realloc(r, 0)
	require.NoError(t, err)
	require.Equal(t, Nil, r)
	require.Equal(t, []Block{{56, 4096, false}}, blocks(a))
}

func TestReallocOutOfMemory(t *testing.T) {
	a, _ := newAllocator(t, 8192, nil)

	p, err := a.Alloc(100)
	require.NoError(t, err)
	fill(a, p, 100, 0x5A)

	q, err := a.Realloc(p, 10000)
	require.ErrorIs(t, err, customerrors.ErrOutOfMemory)
	require.Equal(t, Nil, q)
	require.True(t, blocks(a)[0].Allocated)
	require.Equal(t, bytes.Repeat([]byte{0x5A}, 100), a.Bytes(p)[:100])
	require.NoError(t, a.Check())
}

func TestExhaustion(t *testing.T) {
	a, arena := newAllocator(t, 1<<16, nil)

	live := []Ptr{}
	var err error
	for i := 0; i < 1000; i++ {
		var p Ptr
		if p, err = a.Alloc(1000); err != nil {
			break
		}
		live = append(live, p)
	}
	require.ErrorIs(t, err, customerrors.ErrOutOfMemory)
	require.NotEmpty(t, live)
	require.LessOrEqual(t, arena.Size(), 1<<16)
	require.NoError(t, a.Check())

	for _, p := range live {
		a.Free(p)
	}
	require.NoError(t, a.Check())
	require.Len(t, blocks(a), 1)
	require.False(t, blocks(a)[0].Allocated)
}

func TestRandomOperations(t *testing.T) {
	a, _ := newAllocator(t, 1<<20, nil)
	rng := rand.New(rand.NewSource(42))

	type allocation struct {
		ptr  Ptr
		size uint32
		fill byte
	}
	live := []*allocation{}

	verify := func(al *allocation) {
		payload := a.Bytes(al.ptr)
		for i := uint32(0); i < al.size; i++ {
			if payload[i] != al.fill {
				t.Fatalf("block %d byte %d is %#x, expected %#x", al.ptr, i, payload[i], al.fill)
			}
		}
	}

	for i := 0; i < 3000; i++ {
		switch op := rng.Intn(10); {
		case op < 5 || len(live) == 0:
			size := uint32(1 + rng.Intn(2000))
			p, err := a.Alloc(size)
			if err != nil {
				require.ErrorIs(t, err, customerrors.ErrOutOfMemory)
				break
			}
			require.Zero(t, uint32(p)%8)
			al := &allocation{p, size, byte(i)}
			fill(a, p, size, al.fill)
			live = append(live, al)

		case op < 8:
			idx := rng.Intn(len(live))
			verify(live[idx])
			a.Free(live[idx].ptr)
			live = append(live[:idx], live[idx+1:]...)

		default:
			idx := rng.Intn(len(live))
			al := live[idx]
			size := uint32(1 + rng.Intn(3000))
			p, err := a.Realloc(al.ptr, size)
			if err != nil {
				require.ErrorIs(t, err, customerrors.ErrOutOfMemory)
				break
			}
			if size < al.size {
				al.size = size
			}
			al.ptr = p
			verify(al)
			al.size = size
			fill(a, p, size, al.fill)
		}

		require.NoError(t, a.Check(), "step %d", i)
	}

	// payloads that overlapped would have overwritten each other's fill
	for _, al := range live {
		verify(al)
	}

	allocated := map[Ptr]bool{}
	a.Walk(func(b Block) bool {
		if b.Allocated {
			allocated[b.Ptr] = true
		}
		return true
	})
	require.Len(t, allocated, len(live))
	for _, al := range live {
		require.True(t, allocated[al.ptr])
	}
}

func TestDebugModeContractViolations(t *testing.T) {
	a, _ := newAllocator(t, 1<<16, &Options{Debug: true})

	p, err := a.Alloc(100)
	require.NoError(t, err)
	q, err := a.Alloc(100)
	require.NoError(t, err)

	require.Panics(t, func() { a.Free(p + 4) })
	require.Panics(t, func() { a.Free(Ptr(1 << 20)) })
	require.Panics(t, func() { a.Free(Ptr(8)) })

	a.Free(p)
	require.Panics(t, func() { a.Free(p) })
	require.Panics(t, func() { a.Realloc(p, 10) })

	r, err := a.Realloc(q, 200)
	require.NoError(t, err)
	a.Free(r)
	require.NoError(t, a.Check())
}
