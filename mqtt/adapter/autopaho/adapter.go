// Package autopaho adapts an MQTT v5 connection managed by github.com/eclipse/paho.golang/autopaho to mqtt.Client.
package autopaho

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/nlowe/hadevice/log"
	"github.com/nlowe/hadevice/mqtt"
)

// Conn is an mqtt.Client backed by an autopaho.ConnectionManager. Subscriptions are re-sent every time the connection
// comes back up.
type Conn struct {
	mu sync.Mutex

	cm *autopaho.ConnectionManager
	r  paho.Router

	subscriptions map[string]paho.SubscribeOptions

	log *slog.Logger
}

var _ mqtt.Client = &Conn{}

// Dial connects to the broker described by config and blocks until the first connection is up or ctx is done. The
// OnConnectionUp callback in config, if any, is still called after subscriptions are restored.
func Dial(ctx context.Context, config autopaho.ClientConfig) (*Conn, error) {
	c := &Conn{
		r:             paho.NewStandardRouter(),
		subscriptions: map[string]paho.SubscribeOptions{},
		log:           log.ForComponent("autopaho"),
	}

	onConnectionUp := config.OnConnectionUp
	config.OnConnectionUp = func(cm *autopaho.ConnectionManager, connack *paho.Connack) {
		c.restoreSubscriptions(ctx)

		if onConnectionUp != nil {
			onConnectionUp(cm, connack)
		}
	}

	// Hold the lock until c.cm is assigned so the first OnConnectionUp waits for it.
	c.mu.Lock()
	c.log.Info("Connecting to mqtt broker")
	cm, err := autopaho.NewConnection(ctx, config)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}

	c.cm = cm
	c.cm.AddOnPublishReceived(func(rx autopaho.PublishReceived) (bool, error) {
		c.r.Route(rx.Packet.Packet())
		return true, nil
	})
	c.mu.Unlock()

	c.log.Debug("Waiting for connection to be ready")
	if err = cm.AwaitConnection(ctx); err != nil {
		return nil, fmt.Errorf("mqtt: wait for connection: %w", err)
	}

	c.log.Debug("Connected to mqtt broker")
	return c, nil
}

// Disconnect closes the connection and stops reconnecting.
func (c *Conn) Disconnect(ctx context.Context) error {
	return c.cm.Disconnect(ctx)
}

// Done is closed once the connection manager has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.cm.Done()
}

func (c *Conn) restoreSubscriptions(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.subscriptions) == 0 {
		return
	}

	sub := &paho.Subscribe{
		Subscriptions: make([]paho.SubscribeOptions, 0, len(c.subscriptions)),
	}

	for _, s := range c.subscriptions {
		sub.Subscriptions = append(sub.Subscriptions, s)
	}

	c.log.With(slog.Int("count", len(sub.Subscriptions))).Debug("Connection is up, re-sending subscriptions")
	if _, err := c.cm.Subscribe(ctx, sub); err != nil {
		c.log.With(log.Error(err)).Error("Failed to re-subscribe to mqtt topics")
	}
}

func (c *Conn) WriteTopic(ctx context.Context, topic string, options mqtt.WriteOptions, value []byte) error {
	c.log.Log(ctx, log.LevelTrace, "Publishing payload", log.Topic(topic), slog.Any("options", options), log.Payload(value))

	_, err := c.cm.Publish(ctx, &paho.Publish{
		QoS:     uint8(options.QoS),
		Retain:  options.Retain,
		Topic:   topic,
		Payload: value,
	})

	return err
}

func (c *Conn) Subscribe(ctx context.Context, handler mqtt.Handler, subscriptions ...mqtt.Subscription) error {
	if len(subscriptions) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &paho.Subscribe{
		Subscriptions: make([]paho.SubscribeOptions, len(subscriptions)),
	}

	for i, s := range subscriptions {
		sub.Subscriptions[i] = subscribeOptions(s)
	}

	c.log.With(slog.Any("subscriptions", subscriptions)).Debug("Subscribing to MQTT Topic(s)")
	if _, err := c.cm.Subscribe(ctx, sub); err != nil {
		return err
	}

	for _, opts := range sub.Subscriptions {
		c.subscriptions[opts.Topic] = opts
		c.r.RegisterHandler(opts.Topic, func(publish *paho.Publish) {
			handler.ServeMQTT(c, publish.Topic, publish.Payload)
		})
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
		c.r.UnregisterHandler(t)
	}

	c.log.With(slog.Any("topics", topics)).Debug("Unsubscribing from MQTT Topic(s)")
	_, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{
		Topics: topics,
	})

	return err
}

func subscribeOptions(s mqtt.Subscription) paho.SubscribeOptions {
	return paho.SubscribeOptions{
		Topic:          s.Topic,
		QoS:            uint8(s.Options.QoS),
		RetainHandling: uint8(s.Options.RetainHandling),
		NoLocal:        s.Options.NoLocal,
	}
}
