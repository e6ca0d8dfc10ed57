package wgsl

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrOutOfRange = errors.New("number does not fit the literal type")

func toI32(n int64) (int32, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d is outside the i32 range", ErrOutOfRange, n)
	}
	return int32(n), nil
}

func scalarI32(n int64) (Value, error) {
	v, err := toI32(n)
	if err != nil {
		return nil, err
	}
	return I32(v), nil
}

func toF32(n float64) (float32, error) {
	f := float32(n)
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
		return 0, fmt.Errorf("%w: %g is not a finite f32", ErrOutOfRange, n)
	}
	return f, nil
}

// FromAny converts loosely typed data, as produced by a TOML or JSON decoder,
// into a Value.
//
//	int64, int     -> i32
//	float64        -> f32
//	bool           -> bool
//	"12u"          -> u32
//	[2..4]numbers  -> vecN<i32>, or vecN<f32> if any component is a float
//	[2..4]bools    -> vecN<bool>
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case int64:
		return scalarI32(val)
	case int:
		return scalarI32(int64(val))
	case float64:
		f, err := toF32(val)
		if err != nil {
			return nil, err
		}
		return F32(f), nil
	case bool:
		return Bool(val), nil
	case string:
		return parseUnsigned(val)
	case []any:
		return vectorFromAny(val)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func parseUnsigned(s string) (Value, error) {
	digits, ok := strings.CutSuffix(strings.TrimSpace(s), "u")
	if !ok {
		return nil, fmt.Errorf("%w: string %q (only unsigned literals like \"7u\" are accepted)", ErrUnsupportedType, s)
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid u32 literal %q: %w", s, err)
	}
	return U32(n), nil
}

func vectorFromAny(items []any) (Value, error) {
	if len(items) < 2 || len(items) > 4 {
		return nil, fmt.Errorf("%w: list of %d elements (vectors have 2 to 4 components)", ErrUnsupportedType, len(items))
	}

	if _, ok := items[0].(bool); ok {
		c := make([]bool, len(items))
		for i, item := range items {
			b, ok := item.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: mixed vector component %T", ErrUnsupportedType, item)
			}
			c[i] = b
		}
		return vectorFrom(c), nil
	}

	isFloat := false
	ints := make([]int64, len(items))
	floats := make([]float64, len(items))
	for i, item := range items {
		switch n := item.(type) {
		case int64:
			ints[i], floats[i] = n, float64(n)
		case int:
			ints[i], floats[i] = int64(n), float64(n)
		case float64:
			floats[i] = n
			isFloat = true
		default:
			return nil, fmt.Errorf("%w: vector component %T", ErrUnsupportedType, item)
		}
	}

	if isFloat {
		c := make([]float32, len(floats))
		for i, n := range floats {
			f, err := toF32(n)
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
			c[i] = f
		}
		return vectorFrom(c), nil
	}
	c := make([]int32, len(ints))
	for i, n := range ints {
		v, err := toI32(n)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		c[i] = v
	}
	return vectorFrom(c), nil
}
