package ocr

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var jsonNumberType = reflect.TypeOf(json.Number(""))

// plain converts an engine value into plain Go data: numbers become float64,
// slices and arrays become []any, string-keyed maps become map[string]any.
// Byte slices are kept as []byte so text can be decoded later.
func plain(v any) any {
	return plainValue(reflect.ValueOf(v))
}

func plainValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if v.Type() == jsonNumberType {
		if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return f
		}
		return v.String()
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return plainValue(v.Elem())
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return append([]byte(nil), v.Bytes()...)
		}
		return plainSequence(v)
	case reflect.Array:
		return plainSequence(v)
	case reflect.Map:
		if v.IsNil() || v.Type().Key().Kind() != reflect.String {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = plainValue(iter.Value())
		}
		return out
	default:
		return v.Interface()
	}
}

func plainSequence(v reflect.Value) []any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = plainValue(v.Index(i))
	}
	return out
}

// sequence returns v as a list. Byte slices count as a list of numbers here,
// which is what a polygon stored as uint8 looks like.
func sequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []byte:
		out := make([]any, len(s))
		for i, b := range s {
			out[i] = float64(b)
		}
		return out, true
	}
	return nil, false
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// toText decodes a recognized line. Invalid UTF-8 is replaced, never rejected.
func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToValidUTF8(t, "\uFFFD")
	case []byte:
		return strings.ToValidUTF8(string(t), "\uFFFD")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func coordinate(v any) (float64, bool) {
	f, ok := number(v)
	if !ok || !ValidCoordinate(f) {
		return 0, false
	}
	return f, true
}

// toPolygon reshapes a plain value into a Polygon. A flat list of 8 numbers
// becomes 4 pairs; a list of 4 pairs is taken as is. Any other shape, or any
// coordinate that is not a plausible pixel position, yields nil.
func toPolygon(v any) *Polygon {
	items, ok := sequence(v)
	if !ok {
		return nil
	}

	var p Polygon
	switch len(items) {
	case 8:
		for i := 0; i < 4; i++ {
			x, okX := coordinate(items[2*i])
			y, okY := coordinate(items[2*i+1])
			if !okX || !okY {
				return nil
			}
			p[i] = Point{x, y}
		}
	case 4:
		for i, item := range items {
			pair, ok := sequence(item)
			if !ok || len(pair) != 2 {
				return nil
			}
			x, okX := coordinate(pair[0])
			y, okY := coordinate(pair[1])
			if !okX || !okY {
				return nil
			}
			p[i] = Point{x, y}
		}
	default:
		return nil
	}
	return &p
}

// isNil reports whether v is nil or a nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// indirect follows pointers and interfaces down to a concrete value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
