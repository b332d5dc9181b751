package recintern

import (
	"fmt"
	"strings"
)

// Kind is the type of a single tuple field. All kinds are stored as Values.
type Kind uint8

const (
	Signed Kind = iota
	Unsigned
	Float
	Symbol
	Record
)

var kindCodes = [...]string{
	Signed:   "i",
	Unsigned: "u",
	Float:    "f",
	Symbol:   "s",
	Record:   "r",
}

func (k Kind) Code() string {
	if int(k) >= len(kindCodes) {
		panic(fmt.Errorf("invalid field kind %d", k))
	}
	return kindCodes[k]
}

func (k Kind) String() string {
	switch k {
	case Signed:
		return "number"
	case Unsigned:
		return "unsigned"
	case Float:
		return "float"
	case Symbol:
		return "symbol"
	case Record:
		return "record"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Type describes a tuple type: its field kinds and an optional display name.
// The identity of a type is its kind signature (see Key).
type Type struct {
	name  string
	kinds []Kind
	key   string
}

func NewType(name string, kinds ...Kind) *Type {
	codes := make([]string, len(kinds))
	for i, k := range kinds {
		codes[i] = k.Code()
	}
	return &Type{
		name:  name,
		kinds: append([]Kind(nil), kinds...),
		key:   strings.Join(codes, ","),
	}
}

// ArityType returns a type of n Signed fields.
func ArityType(n int) *Type {
	if n < 0 {
		panic(fmt.Errorf("negative arity %d", n))
	}
	return NewType("", make([]Kind, n)...)
}

func (typ *Type) Name() string {
	return typ.name
}

func (typ *Type) Arity() int {
	return len(typ.kinds)
}

func (typ *Type) Kinds() []Kind {
	return append([]Kind(nil), typ.kinds...)
}

// Key returns the signature that identifies the type, e.g. "i,u,r".
func (typ *Type) Key() string {
	return typ.key
}

func (typ *Type) String() string {
	var buf strings.Builder
	if typ.name != "" {
		buf.WriteString(typ.name)
	}
	buf.WriteByte('[')
	for i, k := range typ.kinds {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(k.String())
	}
	buf.WriteByte(']')
	return buf.String()
}
