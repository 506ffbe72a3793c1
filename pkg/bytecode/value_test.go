package bytecode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValuesEqualByKind(t *testing.T) {
	assert.True(t, ValuesEqual(NilVal, NilVal))
	assert.True(t, ValuesEqual(BoolVal(true), BoolVal(true)))
	assert.False(t, ValuesEqual(BoolVal(true), BoolVal(false)))
	assert.True(t, ValuesEqual(NumberVal(1), NumberVal(1)))
	assert.False(t, ValuesEqual(NumberVal(1), BoolVal(true)))
}

func TestValuesEqualObjIsIdentity(t *testing.T) {
	a := &ObjString{Chars: "hi"}
	b := &ObjString{Chars: "hi"}
	assert.True(t, ValuesEqual(ObjVal(a), ObjVal(a)))
	assert.False(t, ValuesEqual(ObjVal(a), ObjVal(b)), "equal-content but distinct objects must not compare equal without interning")
}

func TestNaNNeverEqualsItself(t *testing.T) {
	nan := NumberVal(math.NaN())
	assert.False(t, ValuesEqual(nan, nan))
	assert.True(t, nan.IsNaN())
}

func TestDivisionByZeroIsNaNNotError(t *testing.T) {
	v := NumberVal(0 / soften(0))
	assert.True(t, v.IsNaN())
}

// soften defeats the compiler's constant-folding of 0/0 so the division
// actually executes, matching what OP_DIVIDE does with two runtime zeros.
func soften(f float64) float64 { return f }

func TestIsFalsey(t *testing.T) {
	assert.True(t, NilVal.IsFalsey())
	assert.True(t, BoolVal(false).IsFalsey())
	assert.False(t, BoolVal(true).IsFalsey())
	assert.False(t, NumberVal(0).IsFalsey(), "0 is truthy in glox")
	assert.False(t, ObjVal(&ObjString{Chars: ""}).IsFalsey(), "empty string is truthy in glox")
}

func TestIsObjType(t *testing.T) {
	s := &ObjString{Chars: "x"}
	v := ObjVal(s)
	assert.True(t, v.IsObjType(ObjTypeString))
	assert.False(t, v.IsObjType(ObjTypeFunction))
	assert.False(t, NumberVal(1).IsObjType(ObjTypeString))
}
