package wgsl

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var (
	ErrEmptyArray = errors.New("array has no elements")
	ErrMixedArray = errors.New("array elements do not share one type")
)

// Array is a fixed-size WGSL array literal, `array<T, N>(v0,v1,...,)`
type Array[T Value] []T

// NewArray checks that every element has the same concrete type and returns
// the elements as an Array
func NewArray(values []Value) (Array[Value], error) {
	if len(values) == 0 {
		return nil, ErrEmptyArray
	}
	first := values[0]
	if first == nil {
		return nil, fmt.Errorf("%w: element 0 is nil", ErrMixedArray)
	}
	for i, v := range values[1:] {
		if v == nil {
			return nil, fmt.Errorf("%w: element %d is nil", ErrMixedArray, i+1)
		}
		if reflect.TypeOf(v) != reflect.TypeOf(first) || v.TypeName() != first.TypeName() {
			return nil, fmt.Errorf("%w: element %d is %s, expected %s", ErrMixedArray, i+1, v.TypeName(), first.TypeName())
		}
	}
	return Array[Value](values), nil
}

func (a Array[T]) elemTypeName() string {
	if len(a) > 0 {
		return a[0].TypeName()
	}
	var zero T
	if any(zero) == nil {
		return ""
	}
	return zero.TypeName()
}

func (a Array[T]) TypeName() string {
	return "array<" + a.elemTypeName() + ", " + strconv.Itoa(len(a)) + ">"
}

// Definition lists every element followed by a comma, including the last one
func (a Array[T]) Definition() string {
	var sb strings.Builder
	sb.WriteString(a.TypeName())
	sb.WriteByte('(')
	for _, v := range a {
		sb.WriteString(v.Definition())
		sb.WriteByte(',')
	}
	sb.WriteByte(')')
	return sb.String()
}
