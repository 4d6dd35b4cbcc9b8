package mqtt

import (
	"fmt"
	"log/slog"
)

// QualityOfService determines what level of guarantee the broker should provide when delivering messages. It implements
// fmt.Stringer and slog.LogValuer.
type QualityOfService uint8

func (q QualityOfService) String() string {
	switch q {
	case QOSAtMostOnce:
		return "at most once (0)"
	case QOSAtLeastOnce:
		return "at least once (1)"
	case QOSExactlyOnce:
		return "exactly once (2)"
	default:
		return fmt.Sprintf("invalid (%d)", uint8(q))
	}
}

func (q QualityOfService) LogValue() slog.Value {
	return slog.StringValue(q.String())
}

const (
	// QOSAtMostOnce offers "fire and forget" messaging with no acknowledgment from the receiver.
	QOSAtMostOnce QualityOfService = iota
	// QOSAtLeastOnce ensures that messages are delivered at least once by requiring a PUBACK acknowledgment. Device
	// state, availability, and discovery payloads are all written with this level.
	QOSAtLeastOnce
	// QOSExactlyOnce guarantees that each message is delivered exactly once by using a four-step handshake (PUBLISH,
	// PUBREC, PUBREL, PUBCOMP).
	QOSExactlyOnce
)

// WriteOptions holds options for writing to MQTT. The zero value uses a QoS of 0 with no retain. It implements
// slog.LogValuer.
type WriteOptions struct {
	QoS QualityOfService

	// Retain instructs the broker to persist the last message received for a given topic.
	Retain bool
}

// AtLeastOnce is the WriteOptions used for every publish made on behalf of a device.
var AtLeastOnce = WriteOptions{QoS: QOSAtLeastOnce}

func (w WriteOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", w.QoS),
		slog.Bool("retain", w.Retain),
	)
}

// SubscriptionRetainHandling adjusts how the broker sends retained values to subscribers. It implements fmt.Stringer
// and slog.LogValuer. Brokers speaking MQTT 3.1.1 ignore it.
type SubscriptionRetainHandling uint8

func (s SubscriptionRetainHandling) String() string {
	switch s {
	case RetainHandlingSendOnSubscribe:
		return "send on subscribe (0)"
	case RetainHandlingSendOnNewSubscribe:
		return "send on new subscribe (1)"
	case RetainHandlingIgnoreRetained:
		return "ignore retained (2)"
	default:
		return fmt.Sprintf("invalid (%d)", uint8(s))
	}
}

func (s SubscriptionRetainHandling) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

const (
	RetainHandlingSendOnSubscribe SubscriptionRetainHandling = iota
	RetainHandlingSendOnNewSubscribe
	RetainHandlingIgnoreRetained
)

// ReadOptions holds options for configuring MQTT Subscriptions. It implements slog.LogValuer.
type ReadOptions struct {
	// QoS specifies the maximum Quality of Service the broker may use when forwarding messages.
	QoS QualityOfService

	// NoLocal indicates that the server must not forward the message to the client that published it.
	NoLocal bool

	RetainHandling SubscriptionRetainHandling
}

func (r ReadOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", r.QoS),
		slog.Bool("no_local", r.NoLocal),
		slog.Any("retain_handling", r.RetainHandling),
	)
}
