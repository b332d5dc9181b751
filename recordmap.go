package recintern

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// RecordMap is a bidirectional mapping between the tuples of one type and
// their handles.
type RecordMap interface {
	Type() *Type

	// Pack returns the handle of tup, creating one if necessary. Packing equal
	// tuples always yields the same handle. Panics if the tuple does not match
	// the map's arity, or (with ErrCapacityExhausted) if no more handles can
	// be assigned.
	Pack(tup Tuple) Value

	// Unpack returns the tuple addressed by ref, which must have been returned
	// by Pack of this map. The result must not be modified.
	Unpack(ref Value) Tuple

	// Len returns the number of handles assigned so far.
	Len() int

	// RecordReferences returns a point-in-time copy of the map, from handle
	// to field values.
	RecordReferences() map[Value][]Value

	Stats() MapStats
}

// NewRecordMap returns a standalone map for typ, not attached to any
// registry. Most callers want Registry.Map instead.
func NewRecordMap(typ *Type, opt Options) RecordMap {
	opt.normalize()
	return newRecordMap(typ, opt, nil)
}

func newRecordMap(typ *Type, opt Options, onLateInsert func(RecordMap)) RecordMap {
	if typ.Arity() == 0 {
		return &emptyMap{typ: typ}
	}
	return &blockMap{
		typ:          typ,
		index:        make(map[string]Value),
		store:        newBlockStore(typ.Arity(), opt.BlockSize),
		maxHandle:    opt.MaxHandle,
		logger:       opt.Logger,
		verbose:      opt.Verbose,
		onLateInsert: onLateInsert,
	}
}

type blockMap struct {
	typ       *Type
	maxHandle Value
	logger    *slog.Logger
	verbose   bool

	// guards index and store writes, i.e. the whole find-or-insert sequence
	packLock sync.Mutex
	index    map[string]Value
	store    *blockStore
	size     atomic.Int32

	// set by the registry once its snapshot exists
	frozen       atomic.Bool
	onLateInsert func(RecordMap)

	packCount atomic.Uint64
	hitCount  atomic.Uint64
}

func (m *blockMap) Type() *Type {
	return m.typ
}

func (m *blockMap) Pack(tup Tuple) Value {
	if len(tup) != m.typ.Arity() {
		panic(typeErrf(m.typ, tup, nil, "cannot pack %d fields", len(tup)))
	}
	m.packCount.Add(1)

	kb := acquireKeyBytes()
	*kb = tup.encode(ensureCapacity((*kb)[:0], tup.keyLen()))
	ref, inserted, grown := m.lookupOrInsert(*kb, tup)
	releaseKeyBytes(kb)

	if !inserted {
		m.hitCount.Add(1)
		return ref
	}
	if grown && m.verbose {
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "recintern: new block", typeAttr(m.typ), slog.Int("blocks", m.store.blockCount()), slog.Int("ref", int(ref)))
	}
	if m.frozen.Load() && m.onLateInsert != nil {
		m.onLateInsert(m)
	}
	return ref
}

func (m *blockMap) lookupOrInsert(key []byte, tup Tuple) (ref Value, inserted, grown bool) {
	m.packLock.Lock()
	defer m.packLock.Unlock()

	if ref, ok := m.index[string(key)]; ok {
		return ref, false, false
	}

	// 0 is the null reference, so handles start at 1
	next := int64(len(m.index)) + 1
	if next > int64(m.maxHandle) {
		panic(typeErrf(m.typ, tup, ErrCapacityExhausted, "cannot assign handle %d (limit %d)", next, m.maxHandle))
	}
	ref = Value(next)

	m.index[string(key)] = ref
	grown = m.store.put(ref, tup)
	m.size.Store(ref)
	return ref, true, grown
}

func (m *blockMap) Unpack(ref Value) Tuple {
	if n := m.size.Load(); ref <= 0 || ref > n {
		panic(handleErrf(m.typ, ref, int(n), "invalid record reference"))
	}
	return m.store.get(ref)
}

func (m *blockMap) Len() int {
	return int(m.size.Load())
}

func (m *blockMap) RecordReferences() map[Value][]Value {
	m.packLock.Lock()
	defer m.packLock.Unlock()

	arity := m.typ.Arity()
	result := make(map[Value][]Value, len(m.index))
	for key, ref := range m.index {
		tup, err := decodeKey([]byte(key), arity)
		if err != nil {
			panic(fmt.Errorf("recintern: %v: corrupted index: %w", m.typ, err))
		}
		result[ref] = tup
	}
	return result
}

func (m *blockMap) Stats() MapStats {
	return MapStats{
		Records:        m.Len(),
		Blocks:         m.store.blockCount(),
		SlotsAllocated: m.store.slotsAllocated(),
		Packs:          m.packCount.Load(),
		Hits:           m.hitCount.Load(),
	}
}

func (m *blockMap) freeze() {
	m.frozen.Store(true)
}

// emptyMap handles the zero-field type, which has exactly one value.
type emptyMap struct {
	typ       *Type
	packCount atomic.Uint64
}

var emptyTuple = Tuple{}

func (m *emptyMap) Type() *Type {
	return m.typ
}

func (m *emptyMap) Pack(tup Tuple) Value {
	if len(tup) != 0 {
		panic(typeErrf(m.typ, tup, nil, "cannot pack %d fields", len(tup)))
	}
	m.packCount.Add(1)
	return 1
}

func (m *emptyMap) Unpack(ref Value) Tuple {
	return emptyTuple
}

func (m *emptyMap) Len() int {
	return 1
}

func (m *emptyMap) RecordReferences() map[Value][]Value {
	return map[Value][]Value{1: {}}
}

func (m *emptyMap) Stats() MapStats {
	n := m.packCount.Load()
	return MapStats{
		Records: 1,
		Packs:   n,
		Hits:    n,
	}
}
