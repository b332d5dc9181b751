package recintern

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpMapHeaders = DumpFlags(1 << iota)
	DumpStats
	DumpRecords

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the registry's maps for debugging. Like Snapshot, it expects
// interning to be quiescent.
func (r *Registry) Dump(f DumpFlags) string {
	var buf strings.Builder
	for i, m := range r.Maps() {
		dumpMap(&buf, f, m, i+1)
	}
	return buf.String()
}

func dumpMap(w *strings.Builder, f DumpFlags, m RecordMap, pos int) {
	prefix := fmt.Sprintf("map%d", pos)
	s := m.Stats()

	if f.Contains(DumpMapHeaders) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s %v (%d records)\n", prefix, m.Type(), s.Records)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: blocks = %d, slots = %d, packs = %d, hits = %d, misses = %d\n", prefix, s.Blocks, s.SlotsAllocated, s.Packs, s.Hits, s.Misses())
	}
	if f.Contains(DumpRecords) {
		if f.Contains(DumpStats) {
			fmt.Fprintln(w, dumpSep2)
		}
		n := m.Len()
		for ref := 1; ref <= n; ref++ {
			fmt.Fprintf(w, "%s.%d = %v\n", prefix, ref, m.Unpack(Value(ref)))
		}
	}
}
