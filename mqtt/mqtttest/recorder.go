// Package mqtttest provides an in-memory mqtt.Client for tests.
package mqtttest

import (
	"context"
	"slices"
	"sync"

	"github.com/nlowe/hadevice/mqtt"
)

// Message is a payload written through a Recorder.
type Message struct {
	Topic   string
	Options mqtt.WriteOptions
	Payload string
}

// Recorder is an mqtt.Client that records writes and subscriptions instead of talking to a broker. Writes are not
// routed to subscribers; use Deliver to simulate an inbound message.
type Recorder struct {
	mu sync.Mutex

	messages      []Message
	subscriptions []mqtt.Subscription
	unsubscribed  []string
	handlers      map[string]mqtt.Handler

	// WriteErr, when set, is returned by every WriteTopic call.
	WriteErr error
	// SubscribeErr, when set, is returned by every Subscribe call and no subscription is recorded.
	SubscribeErr error
}

var _ mqtt.Client = &Recorder{}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{handlers: map[string]mqtt.Handler{}}
}

func (r *Recorder) WriteTopic(_ context.Context, topic string, options mqtt.WriteOptions, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.WriteErr != nil {
		return r.WriteErr
	}

	r.messages = append(r.messages, Message{Topic: topic, Options: options, Payload: string(value)})
	return nil
}

func (r *Recorder) Subscribe(_ context.Context, handler mqtt.Handler, subscriptions ...mqtt.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.SubscribeErr != nil {
		return r.SubscribeErr
	}

	for _, s := range subscriptions {
		r.subscriptions = append(r.subscriptions, s)
		r.handlers[s.Topic] = handler
	}

	return nil
}

func (r *Recorder) Unsubscribe(_ context.Context, topics ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range topics {
		delete(r.handlers, t)
	}
	r.unsubscribed = append(r.unsubscribed, topics...)

	return nil
}

// Deliver routes payload to the handler subscribed to topic, reporting whether one was found.
func (r *Recorder) Deliver(topic string, payload []byte) bool {
	r.mu.Lock()
	h, ok := r.handlers[topic]
	r.mu.Unlock()

	if !ok {
		return false
	}

	h.ServeMQTT(r, topic, payload)
	return true
}

// Messages returns a copy of every recorded write in order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.messages)
}

// MessagesTo returns the recorded writes for a single topic in order.
func (r *Recorder) MessagesTo(topic string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Message
	for _, m := range r.messages {
		if m.Topic == topic {
			result = append(result, m)
		}
	}

	return result
}

// Subscriptions returns a copy of every recorded subscription in order, including duplicates.
func (r *Recorder) Subscriptions() []mqtt.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.subscriptions)
}

// Unsubscribed returns every topic passed to Unsubscribe in order.
func (r *Recorder) Unsubscribed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.unsubscribed)
}

// Reset forgets recorded writes and subscriptions but keeps registered handlers.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = nil
	r.subscriptions = nil
	r.unsubscribed = nil
}
