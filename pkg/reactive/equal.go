package reactive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// defaultEquals provides type-appropriate equality checking.
// Uses == for scalar kinds and reflect.DeepEqual for others.
func defaultEquals(a, b any) bool {
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int32:
		bv, ok := b.(int32)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint:
		bv, ok := b.(uint)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.(float32)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case json.RawMessage:
		return rawEquals(av, b)
	default:
		if raw, ok := b.(json.RawMessage); ok {
			return rawEquals(raw, a)
		}
		return reflect.DeepEqual(a, b)
	}
}

// rawEquals compares a restored, still-encoded value with a live one by
// encoding the live value.
func rawEquals(raw json.RawMessage, v any) bool {
	if other, ok := v.(json.RawMessage); ok {
		return bytes.Equal(raw, other)
	}
	enc, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return bytes.Equal(bytes.TrimSpace(raw), enc)
}

// slot holds a node value. Restored values stay encoded until a typed handle
// asks for them.
type slot struct {
	value any
	raw   json.RawMessage
}

func (s *slot) set(v any) {
	s.value = v
	s.raw = nil
}

func (s *slot) setRaw(raw json.RawMessage) {
	s.value = nil
	s.raw = nil
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return
	}
	s.raw = append(json.RawMessage(nil), raw...)
}

// current returns the value as stored, raw JSON included.
func (s *slot) current() any {
	if s.raw != nil {
		return s.raw
	}
	return s.value
}

// plain returns the value with any encoded form decoded into generic Go
// values (maps, slices, float64).
func (s *slot) plain() (any, error) {
	if s.raw == nil {
		return s.value, nil
	}
	var v any
	if err := json.Unmarshal(s.raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// encode returns the JSON form of the value.
func (s *slot) encode() (json.RawMessage, error) {
	if s.raw != nil {
		return s.raw, nil
	}
	b, err := json.Marshal(s.value)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// materialize returns the slot value as T, decoding or converting it in place
// when needed. It panics with ErrTypeMismatch when the value cannot be
// represented as T.
func materialize[T any](id NodeID, s *slot) T {
	var zero T
	if s.raw != nil {
		var v T
		if err := json.Unmarshal(s.raw, &v); err != nil {
			panic(&TrackingError{ID: id, Err: fmt.Errorf("%w: %v", ErrTypeMismatch, err)})
		}
		s.set(v)
		return v
	}
	if s.value == nil {
		return zero
	}
	if v, ok := s.value.(T); ok {
		return v
	}
	v, err := convert[T](s.value)
	if err != nil {
		panic(&TrackingError{ID: id, Err: fmt.Errorf("%w: %v", ErrTypeMismatch, err)})
	}
	s.set(v)
	return v
}

// convert moves v into T through its JSON form. Values written from untyped
// callers (script handlers, dev tools) reach typed handles this way.
func convert[T any](v any) (T, error) {
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}

// coerceLike converts v to the dynamic type of cur so that later typed reads
// keep working. When cur is nil the value is stored as given.
func coerceLike(cur, v any) (any, error) {
	if cur == nil || v == nil {
		return v, nil
	}
	if _, ok := cur.(json.RawMessage); ok {
		return v, nil
	}
	ct := reflect.TypeOf(cur)
	if reflect.TypeOf(v) == ct {
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(ct)
	if err := json.Unmarshal(b, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%w: cannot store %T as %s", ErrTypeMismatch, v, ct)
	}
	return ptr.Elem().Interface(), nil
}
