package discovery

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrValueRequired is the error returned by marshal functions for values that hold the type's associated Zero value
	// when marshaling the discovery payload.
	ErrValueRequired = errors.New("value is required")
	// ErrTopicRequired is the error returned by MarshalRequiredTopic when the provided topic is empty.
	ErrTopicRequired = errors.New("topic is required")

	// Marshalers contains json.Marshalers for types from the standard library to make them conform to the Home
	// Assistant MQTT Discovery schema (e.g. render URLs as strings).
	Marshalers = json.JoinMarshalers(
		json.MarshalToFunc(func(e *jsontext.Encoder, u *url.URL) error {
			return e.WriteToken(jsontext.String(u.String()))
		}),
	)
)

// MarshalRequiredTopic encodes the topic for the discovery payload being built. It returns ErrTopicRequired if the
// topic is the empty string.
func MarshalRequiredTopic(name string, e *jsontext.Encoder, k string, topic string) error {
	if topic == "" {
		return fmt.Errorf("%s: %w", name, ErrTopicRequired)
	}

	return MaybeMarshalTopic(e, k, topic)
}

// MaybeMarshalTopic encodes the topic for the discovery payload being built if the topic string is not empty.
func MaybeMarshalTopic(e *jsontext.Encoder, k string, topic string) error {
	if topic == "" {
		return nil
	}

	return errors.Join(
		e.WriteToken(jsontext.String(k)),
		e.WriteToken(jsontext.String(topic)),
	)
}

// MarshalAlways marshals the provided value using json.MarshalEncode with Marshalers, even if it holds the zero value.
func MarshalAlways[T any](e *jsontext.Encoder, k string, v T) error {
	return errors.Join(
		e.WriteToken(jsontext.String(k)),
		json.MarshalEncode(e, v, json.WithMarshalers(Marshalers)),
	)
}

// MarshalStd marshals the specified value using json.MarshalEncode with Marshalers. If the provided value is nil, it
// returns ErrValueRequired.
func MarshalStd[T any](name string, e *jsontext.Encoder, k string, v *T) error {
	if v == nil {
		return fmt.Errorf("%s: %w", name, ErrValueRequired)
	}

	return MaybeMarshalStd(e, k, v)
}

// MaybeMarshalStd marshals the provided value using json.MarshalEncode with Marshalers if it is not nil.
func MaybeMarshalStd[T any](e *jsontext.Encoder, k string, v *T) error {
	if v == nil {
		return nil
	}

	return MarshalAlways(e, k, v)
}

// MaybeMarshalStdSlice marshals the provided slice of values using json.MarshalEncode with Marshalers if it is not
// empty.
func MaybeMarshalStdSlice[T any](e *jsontext.Encoder, k string, v []T) error {
	if len(v) == 0 {
		return nil
	}

	return MarshalAlways(e, k, v)
}

// MarshalStdComparable marshals the provided value using Marshalers. If it is equal to the type's zero value, it
// returns ErrValueRequired.
func MarshalStdComparable[T comparable](name string, e *jsontext.Encoder, k string, v T) error {
	var zero T
	if v == zero {
		return fmt.Errorf("%s: %w", name, ErrValueRequired)
	}

	return MarshalAlways(e, k, v)
}

// MaybeMarshalStdComparable marshals the provided value using Marshalers if it is not equal to the type's zero value.
func MaybeMarshalStdComparable[T comparable](e *jsontext.Encoder, k string, v T) error {
	var zero T
	if v == zero {
		return nil
	}

	return MarshalAlways(e, k, v)
}
