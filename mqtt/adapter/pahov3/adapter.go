// Package pahov3 adapts an MQTT 3.1.1 connection from github.com/eclipse/paho.mqtt.golang to mqtt.Client for brokers
// that do not speak MQTT v5.
package pahov3

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nlowe/hadevice/log"
	"github.com/nlowe/hadevice/mqtt"
)

// DisconnectQuiesce is how long Disconnect lets in-flight work finish, in milliseconds.
const DisconnectQuiesce = 250

type subscription struct {
	qos      byte
	callback pahomqtt.MessageHandler
}

// Conn is an mqtt.Client backed by a paho.mqtt.golang client. Subscriptions are restored every time the client
// reconnects.
type Conn struct {
	client pahomqtt.Client

	mu            sync.Mutex
	subscriptions map[string]subscription

	log *slog.Logger
}

var _ mqtt.Client = &Conn{}

func newConn() *Conn {
	return &Conn{
		subscriptions: map[string]subscription{},
		log:           log.ForComponent("pahov3"),
	}
}

// Dial connects using opts and blocks until the broker accepts the connection or ctx is done. The OnConnect handler
// in opts, if any, is still called after subscriptions are restored.
//
// Message callbacks are not ordered so a CommandHandler can publish a reply without deadlocking the client.
func Dial(ctx context.Context, opts *pahomqtt.ClientOptions) (*Conn, error) {
	c := newConn()

	onConnect := opts.OnConnect
	opts.SetOnConnectHandler(func(client pahomqtt.Client) {
		c.restoreSubscriptions()

		if onConnect != nil {
			onConnect(client)
		}
	})
	opts.SetOrderMatters(false)

	c.client = pahomqtt.NewClient(opts)

	c.log.Info("Connecting to mqtt broker")
	if err := wait(ctx, c.client.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}

	c.log.Debug("Connected to mqtt broker")
	return c, nil
}

// Disconnect closes the connection after DisconnectQuiesce.
func (c *Conn) Disconnect(_ context.Context) error {
	c.client.Disconnect(DisconnectQuiesce)
	return nil
}

// wait blocks until t completes or ctx is done.
func wait(ctx context.Context, t pahomqtt.Token) error {
	select {
	case <-t.Done():
		return t.Error()
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func (c *Conn) restoreSubscriptions() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.subscriptions) == 0 {
		return
	}

	c.log.With(slog.Int("count", len(c.subscriptions))).Debug("Connection is up, re-sending subscriptions")
	for topic, s := range c.subscriptions {
		// The outcome is not awaited inside the connect callback
		c.client.Subscribe(topic, s.qos, s.callback)
	}
}

func (c *Conn) WriteTopic(ctx context.Context, topic string, options mqtt.WriteOptions, value []byte) error {
	c.log.Log(ctx, log.LevelTrace, "Publishing payload", log.Topic(topic), slog.Any("options", options), log.Payload(value))

	return wait(ctx, c.client.Publish(topic, byte(options.QoS), options.Retain, value))
}

func (c *Conn) Subscribe(ctx context.Context, handler mqtt.Handler, subscriptions ...mqtt.Subscription) error {
	if len(subscriptions) == 0 {
		return nil
	}

	callback := c.wrapHandler(handler)
	filters := make(map[string]byte, len(subscriptions))
	for _, s := range subscriptions {
		filters[s.Topic] = byte(s.Options.QoS)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.With(slog.Any("subscriptions", subscriptions)).Debug("Subscribing to MQTT Topic(s)")
	if err := wait(ctx, c.client.SubscribeMultiple(filters, callback)); err != nil {
		return err
	}

	for topic, qos := range filters {
		c.subscriptions[topic] = subscription{qos: qos, callback: callback}
	}

	return nil
}

func (c *Conn) Unsubscribe(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range topics {
		delete(c.subscriptions, t)
	}

	c.log.With(slog.Any("topics", topics)).Debug("Unsubscribing from MQTT Topic(s)")
	return wait(ctx, c.client.Unsubscribe(topics...))
}

// wrapHandler adapts handler to a paho callback that recovers from panics.
func (c *Conn) wrapHandler(handler mqtt.Handler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.log.With(log.Topic(msg.Topic()), slog.Any("panic", r)).Error("MQTT handler panic recovered")
			}
		}()

		handler.ServeMQTT(c, msg.Topic(), msg.Payload())
	}
}
