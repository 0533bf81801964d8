package models

import "encoding/json"

// Optional is a tri-state update field. It distinguishes a key that was
// absent from the request (leave unchanged) from an explicit null (clear)
// and from a concrete value. Plain pointers cannot express the first case,
// which is why sparse update payloads use this type.
type Optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Some wraps a concrete value (used in tests and defaults).
func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: v}
}

// Explicit null (clear the field).
func None[T any]() Optional[T] {
	return Optional[T]{Present: true, Null: true}
}

// HasValue reports whether a concrete value was supplied.
func (o Optional[T]) HasValue() bool {
	return o.Present && !o.Null
}

// UnmarshalJSON is only invoked for keys present in the payload, which is
// what makes the absent/null distinction observable.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
