package recintern

import (
	"bytes"
	"fmt"
	"iter"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/google/btree"
	"github.com/vmihailenco/msgpack/v5"
)

// Record is one entry of a RecordTable.
type Record struct {
	Ref    Value
	Fields []Value

	// position of the source map in the registry; orders entries sharing a Ref
	src int
}

func lessRecord(a, b Record) bool {
	if a.Ref != b.Ref {
		return a.Ref < b.Ref
	}
	return a.src < b.src
}

// RecordTable is a read-only table of records keyed by handle, merged from
// several record maps. Handles of different types collide, so one handle may
// have several entries; the table does not know which type each came from,
// the caller has to track that (typically via the arity).
type RecordTable struct {
	tree *btree.BTreeG[Record]
}

const (
	recordTableDegree = 32
	maxPreallocFields = 64
)

func newRecordTable() *RecordTable {
	return &RecordTable{
		tree: btree.NewG[Record](recordTableDegree, lessRecord),
	}
}

func (tbl *RecordTable) addRecord(ref Value, src int, fields []Value) {
	tbl.tree.ReplaceOrInsert(Record{Ref: ref, Fields: fields, src: src})
}

// Len returns the total number of entries.
func (tbl *RecordTable) Len() int {
	return tbl.tree.Len()
}

func (tbl *RecordTable) ascendRef(ref Value, f func(rec Record) bool) {
	tbl.tree.AscendGreaterOrEqual(Record{Ref: ref, src: math.MinInt}, func(rec Record) bool {
		if rec.Ref != ref {
			return false
		}
		return f(rec)
	})
}

// Records returns the field values of every entry with the given handle.
func (tbl *RecordTable) Records(ref Value) [][]Value {
	var result [][]Value
	tbl.ascendRef(ref, func(rec Record) bool {
		result = append(result, rec.Fields)
		return true
	})
	return result
}

// Lookup returns the fields of the record with the given handle and arity.
func (tbl *RecordTable) Lookup(ref Value, arity int) ([]Value, bool) {
	var result []Value
	var found bool
	tbl.ascendRef(ref, func(rec Record) bool {
		if len(rec.Fields) == arity {
			result, found = rec.Fields, true
			return false
		}
		return true
	})
	return result, found
}

// All iterates over the entries in handle order.
func (tbl *RecordTable) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		tbl.tree.Ascend(func(rec Record) bool {
			return yield(rec)
		})
	}
}

// Mapping returns the table as a plain map from handle to all its entries.
func (tbl *RecordTable) Mapping() map[Value][][]Value {
	result := make(map[Value][][]Value)
	for rec := range tbl.All() {
		result[rec.Ref] = append(result[rec.Ref], rec.Fields)
	}
	return result
}

// Checksum returns a hash of the table contents, stable across runs that
// intern the same records in the same order.
func (tbl *RecordTable) Checksum() uint64 {
	var buf []byte
	h := xxhash.New()
	for rec := range tbl.All() {
		buf = appendFixedValue(buf[:0], rec.Ref)
		buf = appendFixedValue(buf, Value(len(rec.Fields)))
		buf = Tuple(rec.Fields).encode(buf)
		h.Write(buf)
	}
	return h.Sum64()
}

var _ msgpack.CustomEncoder = (*RecordTable)(nil)
var _ msgpack.CustomDecoder = (*RecordTable)(nil)

// EncodeMsgpack writes the table as an array of [ref, [fields...]] pairs.
func (tbl *RecordTable) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(tbl.Len()); err != nil {
		return err
	}
	var err error
	tbl.tree.Ascend(func(rec Record) bool {
		if err = enc.EncodeArrayLen(2); err != nil {
			return false
		}
		if err = enc.EncodeInt32(rec.Ref); err != nil {
			return false
		}
		if err = enc.EncodeArrayLen(len(rec.Fields)); err != nil {
			return false
		}
		for _, v := range rec.Fields {
			if err = enc.EncodeInt32(v); err != nil {
				return false
			}
		}
		return true
	})
	return err
}

func (tbl *RecordTable) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if tbl.tree == nil {
		tbl.tree = btree.NewG[Record](recordTableDegree, lessRecord)
	}
	for i := 0; i < n; i++ {
		pn, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		if pn != 2 {
			return fmt.Errorf("record %d: got %d elements, wanted 2", i, pn)
		}
		ref, err := dec.DecodeInt32()
		if err != nil {
			return err
		}
		fn, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		if fn < 0 {
			return fmt.Errorf("record %d: nil fields", i)
		}
		// fn comes from the input, so grow as elements actually arrive
		fields := make([]Value, 0, min(fn, maxPreallocFields))
		for j := 0; j < fn; j++ {
			v, err := dec.DecodeInt32()
			if err != nil {
				return err
			}
			fields = append(fields, v)
		}
		// entries arrive in order, so i keeps duplicates of ref in their original order
		tbl.addRecord(ref, i, fields)
	}
	return nil
}

// AppendMsgpack appends the msgpack encoding of the table to buf.
func (tbl *RecordTable) AppendMsgpack(buf []byte) []byte {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	err := tbl.EncodeMsgpack(enc)
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode record table using MsgPack: %w", err))
	}
	return bb.Buf
}

// DecodeRecordTable parses the output of AppendMsgpack.
func DecodeRecordTable(buf []byte) (*RecordTable, error) {
	var r bytes.Reader
	r.Reset(buf)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	tbl := newRecordTable()
	err := tbl.DecodeMsgpack(dec)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(buf, int(r.Size())-r.Len(), err, "failed to decode record table")
	}
	return tbl, nil
}
