package hadevice

import (
	"log/slog"
	"strings"

	"github.com/nlowe/hadevice/log"
	"github.com/nlowe/hadevice/mqtt"
)

// Command is a message Home Assistant sent to one of an entity's command topics.
type Command struct {
	// Entity is the name of the entity the command is for.
	Entity string
	// Kind is the final topic level, e.g. "command", "brightness_command", or "speed_command".
	Kind    string
	Topic   string
	Payload []byte
}

func (c Command) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("entity", c.Entity),
		slog.String("kind", c.Kind),
		slog.String("payload", string(c.Payload)),
	)
}

// CommandHandler receives commands for a Device. Like mqtt.Handler, implementations must not block and must not retain
// the Writer or payload after returning.
type CommandHandler interface {
	HandleCommand(w mqtt.Writer, cmd Command)
}

// The CommandHandlerFunc type is an adapter to allow the use of ordinary functions as a CommandHandler.
type CommandHandlerFunc func(mqtt.Writer, Command)

func (f CommandHandlerFunc) HandleCommand(w mqtt.Writer, cmd Command) {
	f(w, cmd)
}

// ServeMQTT implements mqtt.Handler for the Device's command subscriptions. Messages for topics outside of the device's
// topic or for undeclared entities are dropped.
func (d *Device) ServeMQTT(w mqtt.Writer, topic string, payload []byte) {
	rest, ok := mqtt.CutTopicPrefix(topic, d.deviceTopic)
	if !ok {
		return
	}

	entity, kind, ok := strings.Cut(rest, mqtt.TopicSeparator)
	if !ok {
		return
	}

	if _, known := d.Entity(entity); !known {
		d.log.With(log.Topic(topic)).Warn("Dropping command for unknown entity")
		return
	}

	cmd := Command{Entity: entity, Kind: kind, Topic: topic, Payload: payload}
	if d.commands == nil {
		d.log.With(slog.Any("command", cmd)).Debug("No command handler configured, dropping command")
		return
	}

	d.log.With(slog.Any("command", cmd)).Debug("Received command")
	d.commands.HandleCommand(w, cmd)
}
