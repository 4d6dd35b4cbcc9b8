package mqtt

import (
	"context"
)

// Writer is the minimum abstraction around writing values to MQTT.
type Writer interface {
	// WriteTopic writes the provided value to the specified topic with the specified WriteOptions.
	WriteTopic(ctx context.Context, topic string, options WriteOptions, value []byte) error
}

// The WriterFunc type is an adapter to allow the use of ordinary functions as a Writer.
type WriterFunc func(ctx context.Context, topic string, options WriteOptions, value []byte) error

func (f WriterFunc) WriteTopic(ctx context.Context, topic string, options WriteOptions, value []byte) error {
	return f(ctx, topic, options, value)
}

// Client is implemented by transports that can both publish and subscribe.
type Client interface {
	Writer
	Subscriber
}
