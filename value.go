package recintern

import "math"

// Value is the scalar domain of the evaluation runtime. Record handles are
// Values too, indistinguishable from ordinary field values.
type Value = int32

const (
	// Null is the handle encoding the absence of a nested record.
	Null Value = 0

	// MaxValue is the largest representable Value and the default handle limit.
	MaxValue Value = math.MaxInt32

	valueSize = 4
)

// IsNull reports whether ref is the null reference.
func IsNull(ref Value) bool {
	return ref == Null
}

// NullOf returns the null reference for the given type. All types share the
// same null reference; the parameter only documents intent at call sites.
func NullOf(typ *Type) Value {
	return Null
}
