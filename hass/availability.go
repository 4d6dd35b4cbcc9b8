package hass

import (
	"log/slog"

	"github.com/nlowe/hadevice/mqtt"
)

// Availability exposes whether Home Assistant should consider a device or entity as "available" (aka it is online). It
// implements slog.LogValuer.
type Availability string

var (
	AvailabilityMarshaler   = mqtt.StringTypeMarshaler[Availability]()
	AvailabilityUnmarshaler = mqtt.StringTypeUnmarshaler[Availability]()
)

const (
	// AvailabilityInit is the state of a device that has not yet announced itself. It is never sent by Home Assistant
	// but is published as-is if availability is requested before Online or Offline is called.
	AvailabilityInit Availability = "init"
	// Available is the Availability value for online/available devices.
	Available Availability = "online"
	// Unavailable is the Availability value for offline/unavailable devices.
	Unavailable Availability = "offline"
)

func (a Availability) LogValue() slog.Value {
	return slog.StringValue(string(a))
}

// CustomAvailability holds the payloads advertised in discovery for the available and unavailable states. It
// implements slog.LogValuer.
type CustomAvailability struct {
	Available   Availability
	Unavailable Availability
}

// DefaultAvailability advertises Available and Unavailable.
var DefaultAvailability = CustomAvailability{Available: Available, Unavailable: Unavailable}

func (c CustomAvailability) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("available_value", string(c.Available)),
		slog.String("unavailable_value", string(c.Unavailable)),
	)
}
