package recintern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Tuple is a fixed-length sequence of field values. Tuples returned by
// Unpack point into the block store and must not be modified.
type Tuple []Value

func (tup Tuple) String() string {
	var buf strings.Builder
	buf.WriteByte('(')
	for i, v := range tup {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	}
	buf.WriteByte(')')
	return buf.String()
}

func (tup Tuple) Equal(another Tuple) bool {
	n := len(tup)
	if len(another) != n {
		return false
	}
	for i, v := range tup {
		if v != another[i] {
			return false
		}
	}
	return true
}

// Hash returns a 64-bit hash of the tuple. Equal tuples have equal hashes.
func (tup Tuple) Hash() uint64 {
	var stack [16 * valueSize]byte
	return xxhash.Sum64(tup.encode(stack[:0]))
}

// Clone returns a copy that does not share memory with tup.
func (tup Tuple) Clone() Tuple {
	if tup == nil {
		return nil
	}
	return append(make(Tuple, 0, len(tup)), tup...)
}

func (tup Tuple) Values() []Value {
	return append(make([]Value, 0, len(tup)), tup...)
}

// key format: el1 el2 ... elN, each as fixed 4-byte big-endian
func (tup Tuple) encode(buf []byte) []byte {
	for _, v := range tup {
		buf = appendFixedValue(buf, v)
	}
	return buf
}

func (tup Tuple) keyLen() int {
	return len(tup) * valueSize
}

func decodeKey(raw []byte, arity int) (Tuple, error) {
	if len(raw) != arity*valueSize {
		return nil, fmt.Errorf("invalid tuple key: got %d bytes, wanted %d for arity %d", len(raw), arity*valueSize, arity)
	}
	tup := make(Tuple, arity)
	for i := range tup {
		tup[i], raw = decodeFixedValue(raw)
	}
	return tup, nil
}
