package mqtt

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nlowe/hadevice/log"
)

// RemoteValue holds a value that is populated from a mqtt topic subscription. It implements Handler.
type RemoteValue[T any] struct {
	topic       string
	unmarshaler ValueUnmarshaler[T]
	opts        ReadOptions

	mu sync.RWMutex

	nextWatcher int
	watchers    map[int]func(T)

	v           T
	initialized bool

	log *slog.Logger
}

// NewRemoteValue constructs a RemoteValue for the specified topic that uses the provided ValueUnmarshaler to decode
// payloads. If unmarshaler is nil, payloads are decoded as json.
func NewRemoteValue[T any](topic string, unmarshaler ValueUnmarshaler[T]) *RemoteValue[T] {
	return NewRemoteValueWithOptions(topic, unmarshaler, ReadOptions{})
}

// NewRemoteValueWithOptions is like NewRemoteValue, but subscribes with the provided ReadOptions.
func NewRemoteValueWithOptions[T any](topic string, unmarshaler ValueUnmarshaler[T], opts ReadOptions) *RemoteValue[T] {
	if unmarshaler == nil {
		unmarshaler = JsonValueUnmarshaler[T]()
	}

	return &RemoteValue[T]{
		topic:       TrimTopic(topic),
		unmarshaler: unmarshaler,
		opts:        opts,
		watchers:    map[int]func(T){},

		log: log.ForComponent("mqtt.value.remote").With(log.Topic(topic)),
	}
}

// Topic returns the topic this RemoteValue listens on. A nil RemoteValue returns the empty string.
func (v *RemoteValue[T]) Topic() string {
	if v == nil {
		return ""
	}

	return v.topic
}

// Subscription returns the Subscription needed to feed this RemoteValue.
func (v *RemoteValue[T]) Subscription() Subscription {
	return Subscription{Topic: v.topic, Options: v.opts}
}

// ServeMQTT decodes the payload if topic matches this RemoteValue, stores it, and then calls every watcher in
// registration order. Payloads that fail to decode are logged and dropped.
func (v *RemoteValue[T]) ServeMQTT(_ Writer, topic string, payload []byte) {
	if v == nil || TrimTopic(topic) != v.topic {
		return
	}

	parsed, err := v.unmarshaler(payload)
	if err != nil {
		v.log.With(log.Error(err)).Warn("Failed to unmarshal payload from mqtt")
		return
	}

	v.mu.Lock()
	v.v, v.initialized = parsed, true
	watchers := make([]func(T), 0, len(v.watchers))
	for id := 0; id < v.nextWatcher; id++ {
		if w, ok := v.watchers[id]; ok {
			watchers = append(watchers, w)
		}
	}
	v.mu.Unlock()

	v.log.With(slog.Any("v", parsed), slog.Int("watchers", len(watchers))).Debug("Received new value from mqtt")
	for _, w := range watchers {
		w(parsed)
	}
}

// Get returns the most recent value received from mqtt. If no value has been received yet, the second return value will
// be false.
func (v *RemoteValue[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.v, v.initialized
}

// Watch registers a callback to execute when a new value is received, returning an id for Unwatch. Watchers run on the
// transport's goroutine and must not block.
func (v *RemoteValue[T]) Watch(callback func(T)) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextWatcher
	v.nextWatcher++
	v.watchers[id] = callback

	return id
}

// Unwatch removes the watcher with the specified id. Unknown ids are ignored.
func (v *RemoteValue[T]) Unwatch(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.watchers, id)
}

// DesiredValue makes calling RemoteValue.Await on comparable remote values easier
func DesiredValue[T comparable](want T) func(T) bool {
	return func(got T) bool {
		return want == got
	}
}

// Await blocks until a received value passes the desired filter, returning that value. Cancel ctx to stop waiting.
func (v *RemoteValue[T]) Await(ctx context.Context, desired func(T) bool) (T, error) {
	found := make(chan T, 1)

	id := v.Watch(func(t T) {
		if desired(t) {
			select {
			case found <- t:
			default:
			}
		}
	})
	defer v.Unwatch(id)

	if current, ok := v.Get(); ok && desired(current) {
		return current, nil
	}

	select {
	case got := <-found:
		return got, nil
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}
