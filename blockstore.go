package recintern

import (
	"fmt"
	"sync/atomic"
)

// DefaultBlockSize is the number of tuples per block: about a million.
const DefaultBlockSize = 1 << 20

// blockStore is the reverse index of a blockMap: an append-only directory of
// fixed-capacity blocks. Each block holds blockSize tuples of arity values
// laid out flat, and is never reallocated once created.
//
// Writers (put) must be serialized by the owner. Readers (get) take no lock:
// the directory is replaced copy-on-write and published atomically, and a
// slot is only read after the put that filled it happened-before the read.
type blockStore struct {
	arity     int
	blockSize int
	dir       atomic.Pointer[[][]Value]
}

func newBlockStore(arity, blockSize int) *blockStore {
	if arity <= 0 {
		panic(fmt.Errorf("block store needs positive arity, got %d", arity))
	}
	if blockSize <= 0 {
		panic(fmt.Errorf("invalid block size %d", blockSize))
	}
	s := &blockStore{arity: arity, blockSize: blockSize}
	s.dir.Store(new([][]Value))
	return s
}

func (s *blockStore) locate(h Value) (block, offset int) {
	i := int(h) - 1
	return i / s.blockSize, (i % s.blockSize) * s.arity
}

// put stores tup at handle h. Returns true if a new block was appended.
func (s *blockStore) put(h Value, tup Tuple) bool {
	b, off := s.locate(h)
	dir := *s.dir.Load()
	var grown bool
	if b == len(dir) {
		next := make([][]Value, len(dir)+1)
		copy(next, dir)
		next[b] = make([]Value, s.blockSize*s.arity)
		s.dir.Store(&next)
		dir = next
		grown = true
	} else if b > len(dir) {
		panic(fmt.Errorf("block store: handle %d skips past block %d", h, len(dir)))
	}
	copy(dir[b][off:off+s.arity], tup)
	return grown
}

func (s *blockStore) get(h Value) Tuple {
	b, off := s.locate(h)
	dir := *s.dir.Load()
	if b >= len(dir) {
		panic(fmt.Errorf("block store: handle %d is in unallocated block %d (have %d)", h, b, len(dir)))
	}
	end := off + s.arity
	return Tuple(dir[b][off:end:end])
}

func (s *blockStore) blockCount() int {
	return len(*s.dir.Load())
}

func (s *blockStore) slotsAllocated() int {
	return s.blockCount() * s.blockSize
}
