package recintern

import (
	"errors"
	"sync"
	"testing"
)

func setupMap(t testing.TB, typ *Type, opt Options) RecordMap {
	t.Helper()
	base := testOptions(t)
	if opt.Logger == nil {
		opt.Logger = base.Logger
		opt.Verbose = true
	}
	return NewRecordMap(typ, opt)
}

func TestRecordMap_Basics(t *testing.T) {
	m := setupMap(t, ArityType(3), Options{})

	eq(t, m.Pack(Tuple{1, 2, 3}), Value(1))
	eq(t, m.Pack(Tuple{1, 2, 3}), Value(1))
	eq(t, m.Pack(Tuple{4, 5, 6}), Value(2))
	deepEqual(t, m.Unpack(1), Tuple{1, 2, 3})
	deepEqual(t, m.Unpack(2), Tuple{4, 5, 6})
	eq(t, m.Len(), 2)

	deepEqual(t, m.RecordReferences(), map[Value][]Value{
		1: {1, 2, 3},
		2: {4, 5, 6},
	})

	s := m.Stats()
	eq(t, s.Records, 2)
	eq(t, s.Blocks, 1)
	eq(t, s.SlotsAllocated, DefaultBlockSize)
	eq(t, s.Packs, uint64(3))
	eq(t, s.Hits, uint64(1))
	eq(t, s.Misses(), uint64(2))
}

func TestRecordMap_DenseFirstSeenOrder(t *testing.T) {
	m := setupMap(t, ArityType(2), Options{})
	for k := 1; k <= 100; k++ {
		v := Value(k)
		eq(t, m.Pack(Tuple{v, v * v}), v)
		eq(t, m.Pack(Tuple{v, v * v}), v)
		eq(t, IsNull(v), false)
	}
	for k := 1; k <= 100; k++ {
		v := Value(k)
		deepEqual(t, m.Unpack(v), Tuple{v, v * v})
	}
}

func TestRecordMap_Injective(t *testing.T) {
	m := setupMap(t, ArityType(2), Options{})
	a := m.Pack(Tuple{1, 2})
	b := m.Pack(Tuple{2, 1})
	c := m.Pack(Tuple{-1, 2})
	if a == b || b == c || a == c {
		t.Errorf("** distinct tuples share handles: %d %d %d", a, b, c)
	}
}

func TestRecordMap_CopiesInput(t *testing.T) {
	m := setupMap(t, ArityType(2), Options{})
	tup := Tuple{1, 2}
	ref := m.Pack(tup)
	tup[0] = 100
	deepEqual(t, m.Unpack(ref), Tuple{1, 2})
	eq(t, m.Pack(Tuple{1, 2}), ref)
	eq(t, m.Pack(tup), Value(2))
}

func TestRecordMap_BlockBoundary(t *testing.T) {
	const blockSize = 1024
	m := setupMap(t, ArityType(2), Options{BlockSize: blockSize})
	for k := 1; k <= blockSize+1; k++ {
		eq(t, m.Pack(Tuple{Value(k), 7}), Value(k))
	}
	deepEqual(t, m.Unpack(1), Tuple{1, 7})
	deepEqual(t, m.Unpack(blockSize), Tuple{blockSize, 7})
	deepEqual(t, m.Unpack(blockSize+1), Tuple{blockSize + 1, 7})
	eq(t, m.Stats().Blocks, 2)
}

func TestRecordMap_WrongArity(t *testing.T) {
	m := setupMap(t, ArityType(2), Options{})
	v := assertPanics(t, func() { m.Pack(Tuple{1}) })
	var te *TypeError
	if err, ok := v.(error); !ok || !errors.As(err, &te) {
		t.Fatalf("** panic value = %v, wanted *TypeError", v)
	}
	eq(t, m.Len(), 0)
}

func TestRecordMap_InvalidHandle(t *testing.T) {
	m := setupMap(t, ArityType(1), Options{})
	m.Pack(Tuple{5})

	for _, ref := range []Value{Null, -1, 2} {
		v := assertPanics(t, func() { m.Unpack(ref) })
		var he *HandleError
		if err, ok := v.(error); !ok || !errors.As(err, &he) {
			t.Fatalf("** Unpack(%d) panicked with %v, wanted *HandleError", ref, v)
		}
		eq(t, he.Handle, ref)
	}
}

func TestRecordMap_CapacityExhausted(t *testing.T) {
	m := setupMap(t, ArityType(1), Options{MaxHandle: 2})
	eq(t, m.Pack(Tuple{10}), Value(1))
	eq(t, m.Pack(Tuple{20}), Value(2))

	v := assertPanics(t, func() { m.Pack(Tuple{30}) })
	err, ok := v.(error)
	if !ok || !errors.Is(err, ErrCapacityExhausted) {
		t.Fatalf("** panic value = %v, wanted ErrCapacityExhausted", v)
	}

	// nothing was committed, and the map is still usable
	eq(t, m.Len(), 2)
	eq(t, m.Pack(Tuple{20}), Value(2))
	deepEqual(t, m.RecordReferences(), map[Value][]Value{1: {10}, 2: {20}})
}

func TestRecordMap_ConcurrentDedup(t *testing.T) {
	m := setupMap(t, ArityType(3), Options{})
	const n = 64

	start := make(chan struct{})
	refs := make([]Value, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			refs[i] = m.Pack(Tuple{7, 8, 9})
		}(i)
	}
	close(start)
	wg.Wait()

	for i, ref := range refs {
		if ref != 1 {
			t.Errorf("** goroutine %d got handle %d, wanted 1", i, ref)
		}
	}
	eq(t, m.Len(), 1)
	eq(t, m.Stats().Misses(), uint64(1))
}

func TestRecordMap_ConcurrentPackUnpack(t *testing.T) {
	m := setupMap(t, ArityType(2), Options{BlockSize: 16})
	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	results := make([]map[Value]Tuple, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			seen := make(map[Value]Tuple)
			for i := 0; i < perWorker; i++ {
				// half the tuples are shared between workers, half are private
				tup := Tuple{Value(i), Value(i % 2 * w)}
				ref := m.Pack(tup)
				if got := m.Unpack(ref); !got.Equal(tup) {
					t.Errorf("** worker %d: Unpack(%d) = %v, wanted %v", w, ref, got, tup)
				}
				seen[ref] = tup
			}
			results[w] = seen
		}(w)
	}
	wg.Wait()

	all := make(map[Value]Tuple)
	for _, seen := range results {
		for ref, tup := range seen {
			if prev, ok := all[ref]; ok && !prev.Equal(tup) {
				t.Errorf("** handle %d assigned to both %v and %v", ref, prev, tup)
			}
			all[ref] = tup
		}
	}
	eq(t, m.Len(), len(all))
	for ref := Value(1); ref <= Value(len(all)); ref++ {
		if _, ok := all[ref]; !ok {
			t.Errorf("** handle %d missing, handles are not dense", ref)
		}
	}
}

func TestEmptyMap(t *testing.T) {
	m := setupMap(t, ArityType(0), Options{})
	for i := 0; i < 3; i++ {
		eq(t, m.Pack(Tuple{}), Value(1))
		eq(t, m.Pack(nil), Value(1))
	}
	eq(t, len(m.Unpack(1)), 0)
	if m.Unpack(1) == nil {
		t.Errorf("** Unpack(1) = nil, wanted empty tuple")
	}
	eq(t, m.Len(), 1)
	deepEqual(t, m.RecordReferences(), map[Value][]Value{1: {}})
	eq(t, m.Stats().Packs, uint64(6))
	assertPanics(t, func() { m.Pack(Tuple{1}) })
}

func TestEmptyMap_Concurrent(t *testing.T) {
	m := setupMap(t, ArityType(0), Options{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ref := m.Pack(Tuple{}); ref != 1 {
				t.Errorf("** Pack(()) = %d, wanted 1", ref)
			}
			if tup := m.Unpack(1); len(tup) != 0 {
				t.Errorf("** Unpack(1) = %v, wanted ()", tup)
			}
		}()
	}
	wg.Wait()
}
