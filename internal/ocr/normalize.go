package ocr

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// DefaultScoreThreshold is the minimum confidence for a line to be kept.
const DefaultScoreThreshold = 0.5

// Normalize turns an engine's raw result into a Result.
//
// raw may be a struct (or pointer to one), a value implementing Dicter, or a
// string-keyed map. A slice or array wrapper is unwrapped to its first
// element. Texts, scores and polygons are each read from the first usable
// candidate in TextFields, ScoreFields and PolygonFields.
//
// A line is dropped when its trimmed text is empty or when it has a score
// below threshold. A NaN score never reaches threshold. Lines without a score,
// or with an infinite one, get confidence 1.0. Polygons that are neither 8
// finite numbers nor 4 finite pairs become nil.
//
// A nil or empty raw result yields an empty Result and no error. A result
// whose shape cannot be read yields an empty Result and an error wrapping
// ErrMalformedResult; the Result is still safe to use.
func Normalize(raw any, threshold float64) (res Result, err error) {
	res = emptyResult()
	defer func() {
		if r := recover(); r != nil {
			res = emptyResult()
			err = fmt.Errorf("%w: %v", ErrMalformedResult, r)
		}
	}()

	item, ok := unwrap(raw)
	if !ok {
		return res, nil
	}

	src, ok := newSource(item)
	if !ok {
		return res, fmt.Errorf("%w: unsupported result type %T", ErrMalformedResult, item)
	}

	textsValue, seen := src.lookup(TextFields)
	if textsValue == nil {
		if seen {
			return res, nil
		}
		return res, fmt.Errorf("%w: none of %v present", ErrMalformedResult, TextFields)
	}
	texts, ok := sequence(textsValue)
	if !ok {
		return res, fmt.Errorf("%w: texts is %T, not a list", ErrMalformedResult, textsValue)
	}

	scoresValue, _ := src.lookup(ScoreFields)
	scores, _ := sequence(scoresValue)
	polysValue, _ := src.lookup(PolygonFields)
	polys, _ := sequence(polysValue)

	kept := make([]string, 0, len(texts))
	for i, t := range texts {
		line := Line{Text: strings.TrimSpace(toText(t)), Confidence: 1.0}
		if line.Text == "" {
			continue
		}
		if i < len(scores) {
			if score, ok := number(scores[i]); ok {
				if !(score >= threshold) {
					continue
				}
				if !math.IsInf(score, 0) {
					line.Confidence = score
				}
			}
		}
		if i < len(polys) {
			line.Polygon = toPolygon(polys[i])
		}
		res.Lines = append(res.Lines, line)
		kept = append(kept, line.Text)
	}

	res.FullText = strings.TrimSpace(strings.Join(kept, " "))
	return res, nil
}

func emptyResult() Result {
	return Result{Lines: []Line{}}
}

// unwrap strips a sequence wrapper. ok is false when there is nothing to
// normalize: nil, a nil pointer, or an empty sequence.
func unwrap(raw any) (any, bool) {
	if isNil(raw) {
		return nil, false
	}
	v := indirect(reflect.ValueOf(raw))
	if !v.IsValid() {
		return nil, false
	}
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type().Elem().Kind() != reflect.Uint8 {
		if v.Len() == 0 {
			return nil, false
		}
		first := v.Index(0).Interface()
		if isNil(first) {
			return nil, false
		}
		return first, true
	}
	return raw, true
}
