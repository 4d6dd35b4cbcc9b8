// Package log configures the slog.Logger values used throughout hadevice. Library packages log through a shared sink
// that discards everything until an application calls To.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

const (
	ComponentKey = "component"
	ErrorKey     = "error"
	TopicKey     = "topic"
	PayloadKey   = "payload"
)

// LevelTrace sits below slog.LevelDebug and is used for full discovery payloads.
const LevelTrace = slog.Level(-8)

// Error returns a slog.Attr for the provided error. The key will be ErrorKey.
func Error(e error) slog.Attr {
	return slog.Any(ErrorKey, e)
}

// Topic returns a slog.Attr for an MQTT topic. The key will be TopicKey.
func Topic(topic string) slog.Attr {
	return slog.String(TopicKey, topic)
}

// Payload returns a slog.Attr for an MQTT payload rendered as a string. The key will be PayloadKey.
func Payload(payload []byte) slog.Attr {
	return slog.String(PayloadKey, string(payload))
}

// indirectHandler wraps a slog.Handler so the underlying handler can be swapped after loggers have been handed out.
// Attributes and groups are recorded and replayed against whatever handler is current when a record is handled.
type indirectHandler struct {
	h *atomic.Pointer[slog.Handler]

	attrs  []slog.Attr
	groups []string
}

func (i *indirectHandler) current() slog.Handler {
	h := i.h.Load()
	if h == nil {
		return nil
	}

	handler := *h
	if len(i.attrs) > 0 {
		handler = handler.WithAttrs(i.attrs)
	}
	for _, g := range i.groups {
		handler = handler.WithGroup(g)
	}

	return handler
}

func (i *indirectHandler) Enabled(ctx context.Context, level slog.Level) bool {
	h := i.h.Load()
	if h == nil {
		return false
	}

	return (*h).Enabled(ctx, level)
}

func (i *indirectHandler) Handle(ctx context.Context, record slog.Record) error {
	h := i.current()
	if h == nil {
		return nil
	}

	return h.Handle(ctx, record)
}

func (i *indirectHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &indirectHandler{
		h:      i.h,
		attrs:  append(append([]slog.Attr{}, i.attrs...), attrs...),
		groups: i.groups,
	}
}

func (i *indirectHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return i
	}

	return &indirectHandler{
		h:      i.h,
		attrs:  i.attrs,
		groups: append(append([]string{}, i.groups...), name),
	}
}

var _ slog.Handler = &indirectHandler{}

var (
	sink = &indirectHandler{h: &atomic.Pointer[slog.Handler]{}}
)

// To updates all slog.Logger objects used internally by hadevice to write logs to the provided slog.Handler, including
// loggers constructed before To was called. By default, log values are discarded.
func To(h slog.Handler) {
	sink.h.Store(&h)
}

// ForComponent constructs a slog.Logger for the specified component (which is stored in an attribute with the key
// ComponentKey).
func ForComponent(component string) *slog.Logger {
	return slog.New(sink).With(slog.String(ComponentKey, component))
}

// ParseLevel converts a case-insensitive level name to a slog.Level. The empty string maps to slog.LevelInfo.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
	}
}

// ReplaceLevelNames is a slog.HandlerOptions.ReplaceAttr function that renders LevelTrace as "TRACE".
func ReplaceLevelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}

	return a
}
