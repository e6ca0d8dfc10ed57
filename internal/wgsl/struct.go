package wgsl

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var ErrUnsupportedType = errors.New("type has no WGSL representation")

// Field is a single named member of a Struct
type Field struct {
	Name  string
	Value Value
}

// Struct describes a WGSL struct value together with its type.
//
// The declaration concatenates the field type names in declared order, e.g.
// `struct Light {vec3<f32>, f32};`, and the definition calls the constructor
// with every field's definition, e.g. `Light(vec3<f32>(1.0, 1.0, 1.0), 0.5)`.
type Struct struct {
	Name   string
	Fields []Field
}

func (s Struct) TypeName() string { return s.Name }

func (s Struct) Definition() string {
	defs := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		defs[i] = f.Value.Definition()
	}
	return s.Name + "(" + strings.Join(defs, ", ") + ")"
}

func (s Struct) Declaration() string {
	types := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		types[i] = f.Value.TypeName()
	}
	return "struct " + s.Name + " {" + strings.Join(types, ", ") + "};"
}

// TypeNamer lets a Go struct pick the WGSL name used by StructOf
type TypeNamer interface {
	WGSLTypeName() string
}

// StructOf builds a Struct from a Go struct value by walking its exported fields.
//
// Supported field kinds are uint32, int32, float32 and bool, arrays of 2 to 4 of
// those (rendered as vectors), nested structs and anything implementing Value.
// The tag `wgsl:"-"` skips a field and `wgsl:"name"` renames it.
func StructOf(v any) (Struct, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Struct{}, fmt.Errorf("%w: nil pointer", ErrUnsupportedType)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Struct{}, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedType, rv.Type())
	}
	rt := rv.Type()

	name := rt.Name()
	if namer, ok := rv.Interface().(TypeNamer); ok {
		name = namer.WGSLTypeName()
	}
	if name == "" {
		return Struct{}, fmt.Errorf("%w: anonymous struct %s", ErrUnsupportedType, rt)
	}

	s := Struct{Name: name}
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		fieldName := sf.Name
		if tag := sf.Tag.Get("wgsl"); tag == "-" {
			continue
		} else if tag != "" {
			fieldName = tag
		}

		val, err := valueOf(rv.Field(i))
		if err != nil {
			return Struct{}, fmt.Errorf("field %s.%s: %w", name, sf.Name, err)
		}
		s.Fields = append(s.Fields, Field{Name: fieldName, Value: val})
	}
	return s, nil
}

func valueOf(fv reflect.Value) (Value, error) {
	if fv.CanInterface() {
		if val, ok := fv.Interface().(Value); ok {
			return val, nil
		}
	}

	switch fv.Kind() {
	case reflect.Uint32:
		return U32(fv.Uint()), nil
	case reflect.Int32:
		return I32(fv.Int()), nil
	case reflect.Float32:
		return F32(fv.Float()), nil
	case reflect.Bool:
		return Bool(fv.Bool()), nil
	case reflect.Array:
		return vectorOf(fv)
	case reflect.Struct:
		return StructOf(fv.Interface())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, fv.Type())
	}
}

func vectorOf(fv reflect.Value) (Value, error) {
	n := fv.Len()
	if n < 2 || n > 4 {
		return nil, fmt.Errorf("%w: %s (vectors have 2 to 4 components)", ErrUnsupportedType, fv.Type())
	}

	switch fv.Type().Elem().Kind() {
	case reflect.Uint32:
		c := make([]uint32, n)
		for i := range c {
			c[i] = uint32(fv.Index(i).Uint())
		}
		return vectorFrom(c), nil
	case reflect.Int32:
		c := make([]int32, n)
		for i := range c {
			c[i] = int32(fv.Index(i).Int())
		}
		return vectorFrom(c), nil
	case reflect.Float32:
		c := make([]float32, n)
		for i := range c {
			c[i] = float32(fv.Index(i).Float())
		}
		return vectorFrom(c), nil
	case reflect.Bool:
		c := make([]bool, n)
		for i := range c {
			c[i] = fv.Index(i).Bool()
		}
		return vectorFrom(c), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, fv.Type())
	}
}

// vectorFrom expects 2 to 4 components
func vectorFrom[T Component](c []T) Value {
	switch len(c) {
	case 2:
		return Vec2[T]([2]T(c))
	case 3:
		return Vec3[T]([3]T(c))
	default:
		return Vec4[T]([4]T(c))
	}
}
