package mqtt

import (
	"context"
	"log/slog"
)

// Subscription holds metadata for a MQTT subscription for a given topic. It implements fmt.Stringer and slog.LogValuer.
type Subscription struct {
	Topic   string
	Options ReadOptions
}

// CommandSubscription constructs the Subscription used for command topics. Commands are subscribed at QOSAtLeastOnce
// so a command sent while the broker is buffering is not dropped.
func CommandSubscription(topic string) Subscription {
	return Subscription{Topic: topic, Options: ReadOptions{QoS: QOSAtLeastOnce}}
}

func (s Subscription) String() string {
	return s.Topic
}

func (s Subscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("topic", s.Topic),
		slog.Any("options", s.Options),
	)
}

// Handler is the MQTT equivalent to http.Handler. It is a callback configured for an MQTT Subscription.
//
// Handlers must not block. If the handler needs to write a response, it should use the provided Writer. It is not valid
// to use the Writer or message slice after returning.
type Handler interface {
	ServeMQTT(w Writer, topic string, message []byte)
}

// The HandlerFunc type is an adapter to allow the use of ordinary functions as MQTT handlers.
type HandlerFunc func(Writer, string, []byte)

func (f HandlerFunc) ServeMQTT(w Writer, topic string, message []byte) {
	f(w, topic, message)
}

// Subscriber manages MQTT Subscriptions
type Subscriber interface {
	// Subscribe configures the underlying MQTT connection to send the client messages for the provided subscriptions.
	// The provided Handler will be called for all subscribed topics in this call.
	Subscribe(ctx context.Context, handler Handler, subscriptions ...Subscription) error

	// Unsubscribe removes any subscriptions configured for the specified topics.
	Unsubscribe(ctx context.Context, topics ...string) error
}
