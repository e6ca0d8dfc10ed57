package wgsl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalars(t *testing.T) {
	tests := []struct {
		value    Value
		typeName string
		def      string
	}{
		{U32(1), "u32", "1u"},
		{U32(0), "u32", "0u"},
		{U32(4294967295), "u32", "4294967295u"},
		{I32(-3), "i32", "-3"},
		{I32(42), "i32", "42"},
		{F32(1), "f32", "1"},
		{F32(1.5), "f32", "1.5"},
		{F32(2.2), "f32", "2.2"},
		{F32(-0.25), "f32", "-0.25"},
		{Bool(true), "bool", "true"},
		{Bool(false), "bool", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			require.Equal(t, tt.typeName, tt.value.TypeName())
			require.Equal(t, tt.def, tt.value.Definition())
			require.Empty(t, Declaration(tt.value))
		})
	}
}

func TestVectors(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		typeName string
		def      string
	}{
		{"vec2 u32", Vec2[uint32]{1, 2}, "vec2<u32>", "vec2<u32>(1, 2)"},
		{"vec3 i32", Vec3[int32]{-1, 0, 1}, "vec3<i32>", "vec3<i32>(-1, 0, 1)"},
		{"vec4 f32 whole", Vec4[float32]{1, 2, 3, 4}, "vec4<f32>", "vec4<f32>(1.0, 2.0, 3.0, 4.0)"},
		{"vec4 f32 fractional", Vec4[float32]{1.5, 2.1, 3.7, 4.9}, "vec4<f32>", "vec4<f32>(1.5, 2.1, 3.7, 4.9)"},
		{"vec2 bool", Vec2[bool]{true, false}, "vec2<bool>", "vec2<bool>(true, false)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.typeName, tt.value.TypeName())
			require.Equal(t, tt.def, tt.value.Definition())
			require.NotContains(t, tt.value.Definition(), "[")
			require.NotContains(t, tt.value.Definition(), "]")
		})
	}
}

func TestArray(t *testing.T) {
	arr, err := NewArray([]Value{U32(1), U32(0)})
	require.NoError(t, err)
	require.Equal(t, "array<u32, 2>", arr.TypeName())
	require.Equal(t, "array<u32, 2>(1u,0u,)", arr.Definition())

	bools := Array[Bool]{true, false}
	require.Equal(t, "array<bool, 2>(true,false,)", bools.Definition())

	var empty Array[U32]
	require.Equal(t, "array<u32, 0>", empty.TypeName())
}

func TestArrayErrors(t *testing.T) {
	_, err := NewArray(nil)
	require.ErrorIs(t, err, ErrEmptyArray)

	_, err = NewArray([]Value{U32(1), I32(1)})
	require.ErrorIs(t, err, ErrMixedArray)

	_, err = NewArray([]Value{
		Struct{Name: "A", Fields: []Field{{"x", U32(1)}}},
		Struct{Name: "B", Fields: []Field{{"x", U32(1)}}},
	})
	require.ErrorIs(t, err, ErrMixedArray)

	_, err = NewArray([]Value{U32(1), nil})
	require.ErrorIs(t, err, ErrMixedArray)
}

type colorStruct struct {
	data [4]float32
}

func (colorStruct) TypeName() string { return "Struct" }

func (s colorStruct) Definition() string {
	return "Struct(" + Vec4[float32](s.data).Definition() + ")"
}

func TestArrayOfHandWrittenStructs(t *testing.T) {
	arr, err := NewArray([]Value{
		colorStruct{data: [4]float32{1, 2, 3, 4}},
		colorStruct{data: [4]float32{1.5, 2.1, 3.7, 4.9}},
	})
	require.NoError(t, err)
	require.Equal(t,
		"array<Struct, 2>(Struct(vec4<f32>(1.0, 2.0, 3.0, 4.0)),Struct(vec4<f32>(1.5, 2.1, 3.7, 4.9)),)",
		arr.Definition(),
	)
}
