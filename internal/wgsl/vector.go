package wgsl

import (
	"strconv"
	"strings"
)

// Component is a scalar type usable as a vector component
type Component interface {
	uint32 | int32 | float32 | bool
}

type (
	Vec2[T Component] [2]T
	Vec3[T Component] [3]T
	Vec4[T Component] [4]T
)

func (v Vec2[T]) TypeName() string { return vectorTypeName[T](2) }
func (v Vec3[T]) TypeName() string { return vectorTypeName[T](3) }
func (v Vec4[T]) TypeName() string { return vectorTypeName[T](4) }

func (v Vec2[T]) Definition() string { return vectorDefinition(v[:]) }
func (v Vec3[T]) Definition() string { return vectorDefinition(v[:]) }
func (v Vec4[T]) Definition() string { return vectorDefinition(v[:]) }

func componentName[T Component]() string {
	var zero T
	switch any(zero).(type) {
	case uint32:
		return "u32"
	case int32:
		return "i32"
	case float32:
		return "f32"
	default:
		return "bool"
	}
}

func vectorTypeName[T Component](n int) string {
	return "vec" + strconv.Itoa(n) + "<" + componentName[T]() + ">"
}

// vectorDefinition writes `vecN<T>(c0, c1, ...)`. Components are listed the way a
// debug dump of the array would show them: floats keep a decimal point, integers
// carry no suffix since the constructor already fixes the type.
func vectorDefinition[T Component](components []T) string {
	var sb strings.Builder
	sb.WriteString(vectorTypeName[T](len(components)))
	sb.WriteByte('(')
	for i, c := range components {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(formatComponent(c))
	}
	sb.WriteByte(')')
	return sb.String()
}

func formatComponent[T Component](c T) string {
	switch v := any(c).(type) {
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case float32:
		s := strconv.FormatFloat(float64(v), 'f', -1, 32)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}
