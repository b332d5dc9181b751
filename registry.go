package recintern

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

type Options struct {
	// BlockSize is the number of tuples per block of the reverse index.
	BlockSize int

	// MaxHandle is the largest handle a map may assign; packing past it panics
	// with ErrCapacityExhausted.
	MaxHandle Value

	Logger  *slog.Logger
	Verbose bool
}

func (o *Options) normalize() {
	if o.BlockSize == 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.MaxHandle == 0 {
		o.MaxHandle = MaxValue
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Registry is an interning context: it holds one RecordMap per tuple type,
// creating them on first use, and never forgets a map.
type Registry struct {
	opt    Options
	logger *slog.Logger

	// readers load byKey without locking; writers republish it under mapsLock
	byKey    atomic.Pointer[map[string]RecordMap]
	mapsLock sync.Mutex
	maps     []RecordMap
	sealed   bool

	snapshotOnce sync.Once
	snapshot     *RecordTable
	stale        atomic.Bool
}

func NewRegistry(opt Options) *Registry {
	opt.normalize()
	r := &Registry{
		opt:    opt,
		logger: opt.Logger,
	}
	r.byKey.Store(&map[string]RecordMap{})
	return r
}

// Default is the process-wide registry used by the package-level functions.
var Default = NewRegistry(Options{})

// Map returns the map for typ, creating and registering it if needed.
func (r *Registry) Map(typ *Type) RecordMap {
	if m := (*r.byKey.Load())[typ.Key()]; m != nil {
		return m
	}
	return r.createMap(typ)
}

func (r *Registry) createMap(typ *Type) RecordMap {
	r.mapsLock.Lock()
	defer r.mapsLock.Unlock()

	old := *r.byKey.Load()
	if m := old[typ.Key()]; m != nil {
		return m
	}

	m := newRecordMap(typ, r.opt, r.lateInsert)
	next := make(map[string]RecordMap, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[typ.Key()] = m
	r.maps = append(r.maps, m)
	if r.sealed {
		// the snapshot can never include this map
		if bm, ok := m.(*blockMap); ok {
			bm.freeze()
		}
		r.lateInsert(m)
	}
	r.byKey.Store(&next)
	if r.opt.Verbose {
		r.logger.LogAttrs(context.Background(), slog.LevelDebug, "recintern: new record map", typeAttr(typ), slog.Int("maps", len(r.maps)))
	}
	return m
}

// Maps returns all maps created so far, in creation order.
func (r *Registry) Maps() []RecordMap {
	r.mapsLock.Lock()
	defer r.mapsLock.Unlock()
	return slices.Clone(r.maps)
}

func (r *Registry) Pack(typ *Type, tup Tuple) Value {
	return r.Map(typ).Pack(tup)
}

func (r *Registry) Unpack(typ *Type, ref Value) Tuple {
	return r.Map(typ).Unpack(ref)
}

// Snapshot returns the consolidated table of every record of every map. It
// is built on the first call and never refreshed, so all interning must be
// done before the first call; later packs are not reflected (see
// SnapshotStale).
func (r *Registry) Snapshot() *RecordTable {
	r.snapshotOnce.Do(func() {
		r.mapsLock.Lock()
		maps := slices.Clone(r.maps)
		r.sealed = true
		r.mapsLock.Unlock()

		tbl := newRecordTable()
		for i, m := range maps {
			// freeze before copying, so packs racing the copy still count as late
			if bm, ok := m.(*blockMap); ok {
				bm.freeze()
			}
			for ref, fields := range m.RecordReferences() {
				tbl.addRecord(ref, i, fields)
			}
		}

		r.snapshot = tbl

		if r.opt.Verbose {
			r.logger.LogAttrs(context.Background(), slog.LevelDebug, "recintern: snapshot built", slog.Int("maps", len(maps)), slog.Int("records", tbl.Len()))
		}
	})
	return r.snapshot
}

// SnapshotStale reports whether a record was interned, or a map created,
// after (or while) the snapshot was built.
func (r *Registry) SnapshotStale() bool {
	return r.stale.Load()
}

func (r *Registry) lateInsert(m RecordMap) {
	if r.stale.CompareAndSwap(false, true) {
		r.logger.LogAttrs(context.Background(), slog.LevelWarn, "recintern: records added after snapshot was built; snapshot is stale", typeAttr(m.Type()), slog.Int("records", m.Len()))
	}
}

// Pack interns tup in the Default registry.
func Pack(typ *Type, tup Tuple) Value {
	return Default.Pack(typ, tup)
}

// Unpack resolves ref in the Default registry.
func Unpack(typ *Type, ref Value) Tuple {
	return Default.Unpack(typ, ref)
}

// Snapshot returns the consolidated snapshot of the Default registry.
func Snapshot() *RecordTable {
	return Default.Snapshot()
}
