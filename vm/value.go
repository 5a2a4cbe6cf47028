package vm

import "strconv"

// ---------------------------------------------------------------------------
// Value: the runtime datum
// ---------------------------------------------------------------------------

// ValueKind identifies which variant a Value holds.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBool
	KindNumber
)

// Value is a fern runtime value: a number, a boolean, or nil.
//
// The representation is a small tagged struct rather than an interface or a
// NaN-boxed word. There are no heap values at this stage, so every Value is
// copied by value and never aliased.
type Value struct {
	kind    ValueKind
	number  float64
	boolean bool
}

// Pre-defined singleton values.
var (
	Nil   = Value{kind: KindNil}
	True  = Value{kind: KindBool, boolean: true}
	False = Value{kind: KindBool, boolean: false}
)

// FromFloat64 creates a number Value.
func FromFloat64(f float64) Value {
	return Value{kind: KindNumber, number: f}
}

// FromBool creates a boolean Value.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Kind returns the variant tag of v.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNumber returns true if v holds a number.
func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}

// IsBool returns true if v holds a boolean.
func (v Value) IsBool() bool {
	return v.kind == KindBool
}

// IsNil returns true if v is the nil value.
func (v Value) IsNil() bool {
	return v.kind == KindNil
}

// Float64 returns v as a float64.
// Panics if v is not a number.
func (v Value) Float64() float64 {
	if v.kind != KindNumber {
		panic("Value.Float64: not a number")
	}
	return v.number
}

// Bool returns v as a bool.
// Panics if v is not a boolean.
func (v Value) Bool() bool {
	if v.kind != KindBool {
		panic("Value.Bool: not a boolean")
	}
	return v.boolean
}

// ---------------------------------------------------------------------------
// Equality and truthiness
// ---------------------------------------------------------------------------

// Equals reports structural equality. Values of different variants are
// simply unequal; numbers compare by IEEE-754 rules, so NaN never equals
// anything, including itself.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber:
		return v.number == other.number
	default:
		return false
	}
}

// IsTruthy returns true if v counts as true in a logical context.
// Only nil and false are falsy; every number, including 0, is truthy.
func (v Value) IsTruthy() bool {
	return !v.IsFalsy()
}

// IsFalsy returns true if v is nil or false.
func (v Value) IsFalsy() bool {
	return v.kind == KindNil || (v.kind == KindBool && !v.boolean)
}

// String returns the display form of v: "nil", "true"/"false", or the
// shortest decimal rendering of the number.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	default:
		return "<invalid>"
	}
}
