package ocr

import (
	"reflect"
	"strings"
)

// Candidate field names per logical field, current names first. Engines have
// renamed these across versions, so every name is probed in order.
var (
	TextFields    = []string{"rec_texts", "texts"}
	ScoreFields   = []string{"rec_scores", "scores"}
	PolygonFields = []string{"rec_polys", "dt_polys", "boxes"}
)

// Dicter is implemented by engine results that can render themselves as a
// mapping.
type Dicter interface {
	ToDict() map[string]any
}

// source is one engine result item, prepared for field probing.
type source struct {
	raw   any
	value reflect.Value
	dict  map[string]any
	dictd bool
}

// newSource reports false when item is not something fields can be read
// from: a struct, a string-keyed map, or a Dicter.
func newSource(item any) (*source, bool) {
	s := &source{raw: item, value: indirect(reflect.ValueOf(item))}
	if _, ok := item.(Dicter); ok {
		return s, true
	}
	if !s.value.IsValid() {
		return nil, false
	}
	switch s.value.Kind() {
	case reflect.Struct:
		return s, true
	case reflect.Map:
		return s, s.value.Type().Key().Kind() == reflect.String
	}
	return nil, false
}

// accessor reads one named field from a source.
type accessor func(s *source, name string) (any, bool)

// accessors are tried in this order for every candidate name.
var accessors = []accessor{
	(*source).attribute,
	(*source).dictEntry,
	(*source).mapEntry,
}

// lookup returns the first usable value among names. seen reports whether
// any candidate existed at all, usable or not.
func (s *source) lookup(names []string) (value any, seen bool) {
	for _, name := range names {
		for _, access := range accessors {
			v, ok := access(s, name)
			if !ok {
				continue
			}
			seen = true
			if p := plain(v); usable(p) {
				return p, true
			}
		}
	}
	return nil, seen
}

// attribute matches an exported struct field by json tag, or by name with
// underscores and case ignored (rec_texts matches RecTexts).
func (s *source) attribute(name string) (any, bool) {
	if !s.value.IsValid() || s.value.Kind() != reflect.Struct {
		return nil, false
	}
	flat := strings.ReplaceAll(name, "_", "")
	t := s.value.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name || (tag == "" && strings.EqualFold(f.Name, flat)) {
			return s.value.Field(i).Interface(), true
		}
	}
	return nil, false
}

func (s *source) dictEntry(name string) (any, bool) {
	if !s.dictd {
		s.dictd = true
		if d, ok := s.raw.(Dicter); ok {
			s.dict = d.ToDict()
		}
	}
	if s.dict == nil {
		return nil, false
	}
	v, ok := s.dict[name]
	return v, ok
}

func (s *source) mapEntry(name string) (any, bool) {
	if !s.value.IsValid() || s.value.Kind() != reflect.Map || s.value.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	e := s.value.MapIndex(reflect.ValueOf(name).Convert(s.value.Type().Key()))
	if !e.IsValid() {
		return nil, false
	}
	return e.Interface(), true
}

// usable reports whether a plain value carries data: not nil, and not an
// empty list, map or string.
func usable(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case []any:
		return len(t) > 0
	case []byte:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case string:
		return t != ""
	}
	return true
}
