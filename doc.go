/*
Package recintern implements record interning tables: a mapping that assigns
small, stable integer handles to fixed-arity tuples of values, and can turn
a handle back into its tuple.

A rule evaluator stores nested records (composite values, possibly holding
other record handles) as a single Value, so they can flow through relational
operators built for flat values.

We implement:

1. Record maps, one per tuple type, performing Pack (tuple to handle) and
Unpack (handle to tuple).

2. A block store backing each map, so that handles stay valid and interned
tuples never move as the map grows.

3. A trivial map for the zero-field tuple type, which has exactly one value.

4. A registry of all maps ever created, and a consolidated snapshot
(RecordTable) of every interned record across all types.

# Technical Details

**Handles.**
Handles are dense and assigned in first-insertion order starting at 1.
Zero is the null handle meaning “no nested record”. Handles are never reused
and are only meaningful relative to their tuple type: handle 1 of a 2-field
type and handle 1 of a 3-field type are unrelated records.

**Types.**
A tuple type is identified by its list of field kinds. Two Type values with
the same kinds share a single map, regardless of their display names.

**Forward index.**
Each field is encoded as 4 big-endian bytes; the concatenation is the key of
a Go map from key to handle. Arity is fixed per map, so keys need no length
trailer.

**Block store.**
The reverse index is a directory of fixed-capacity blocks, each holding
BlockSize tuples laid out flat. Handle h lives in block (h-1)/BlockSize at
offset (h-1)%BlockSize. A new block is appended once every BlockSize inserts;
existing blocks are never reallocated. The directory itself is published
through an atomic pointer, so Unpack takes no lock.

**Concurrency.**
Pack runs its whole find-or-insert sequence under the map's mutex, so at most
one handle is ever created per distinct tuple. Unpack is lock-free; a handle
must reach the unpacking goroutine through some synchronization that happens
after the Pack which produced it returned.

**Snapshot.**
Registry.Snapshot walks every registered map once and caches the result for
the lifetime of the registry. Records interned after that are not reflected;
callers must finish interning before asking for the snapshot. The registry
logs a warning the first time this rule is broken, and SnapshotStale reports
it.
*/
package recintern
