package mqtt

import (
	"encoding/json/v2"
	"strconv"
	"strings"
)

// ValueMarshaler is a function that can convert values of type T to a byte slice for writing to an MQTT Topic.
type ValueMarshaler[T any] func(v T) ([]byte, error)

// ValueUnmarshaler is a function that can convert the byte slice payload from an MQTT Message to values of type T.
type ValueUnmarshaler[T any] func([]byte) (T, error)

var (
	StringUnmarshaler = StringTypeUnmarshaler[string]()

	// UintUnmarshaler parses a base 10 unsigned integer, ignoring surrounding whitespace.
	UintUnmarshaler ValueUnmarshaler[uint] = func(bytes []byte) (uint, error) {
		v, err := strconv.ParseUint(strings.TrimSpace(string(bytes)), 10, 64)
		return uint(v), err
	}
)

// StringTypeMarshaler returns a ValueMarshaler for string-based types that writes the raw string.
func StringTypeMarshaler[T ~string]() ValueMarshaler[T] {
	return func(v T) ([]byte, error) {
		return []byte(v), nil
	}
}

// StringTypeUnmarshaler returns a ValueUnmarshaler for string-based types that reads the raw payload.
func StringTypeUnmarshaler[T ~string]() ValueUnmarshaler[T] {
	return func(bytes []byte) (T, error) {
		return T(bytes), nil
	}
}

// JsonValueMarshaler returns a ValueMarshaler for type T implemented by marshaling the value to Json. Map keys are
// sorted.
func JsonValueMarshaler[T any]() ValueMarshaler[T] {
	return func(v T) ([]byte, error) {
		return json.Marshal(v, json.Deterministic(true))
	}
}

// JsonValueUnmarshaler returns a ValueUnmarshaler for type T implemented by un-marshaling the payload from json.
func JsonValueUnmarshaler[T any]() ValueUnmarshaler[T] {
	return func(bytes []byte) (T, error) {
		var v T

		return v, json.Unmarshal(bytes, &v)
	}
}
