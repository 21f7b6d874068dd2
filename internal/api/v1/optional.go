package v1

import (
	"bytes"
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// Optional marks a field that is either present or absent.
// Absent values are omitted from JSON when the field is tagged `omitzero`.
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) IsPresent() bool {
	return o.present
}

// OrElse returns the value, or fallback when absent.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.present {
		return fallback
	}
	return o.value
}

// IsZero reports absence; used by encoding/json's omitzero.
func (o Optional[T]) IsZero() bool {
	return !o.present
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalCBOR encodes an absent value as CBOR null.
func (o Optional[T]) MarshalCBOR() ([]byte, error) {
	if !o.present {
		return []byte{0xf6}, nil
	}
	return cbor.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalCBOR(data []byte) error {
	if len(data) == 1 && (data[0] == 0xf6 || data[0] == 0xf7) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := cbor.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
