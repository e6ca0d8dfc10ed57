// Package wgsl renders Go values as WGSL literal and declaration text.
package wgsl

import (
	"strconv"
)

// Value is a Go value that can be written into WGSL source
type Value interface {
	// TypeName returns the name of the type in WGSL syntax, e.g. `u32` or `vec3<f32>`
	TypeName() string
	// Definition returns an expression constructing the value, e.g. `7u`
	Definition() string
}

// Declarer is implemented by aggregate values that need a type declaration
// (a `struct` statement) before they can be used
type Declarer interface {
	Declaration() string
}

// Declaration returns the declaration text of v, or "" for types that need none
func Declaration(v Value) string {
	if d, ok := v.(Declarer); ok {
		return d.Declaration()
	}
	return ""
}

type (
	U32  uint32
	I32  int32
	F32  float32
	Bool bool
)

func (U32) TypeName() string  { return "u32" }
func (I32) TypeName() string  { return "i32" }
func (F32) TypeName() string  { return "f32" }
func (Bool) TypeName() string { return "bool" }

func (v U32) Definition() string {
	return strconv.FormatUint(uint64(v), 10) + "u"
}

func (v I32) Definition() string {
	return strconv.FormatInt(int64(v), 10)
}

func (v F32) Definition() string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

func (v Bool) Definition() string {
	return strconv.FormatBool(bool(v))
}
