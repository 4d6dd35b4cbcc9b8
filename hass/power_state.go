package hass

import (
	"fmt"
	"strings"

	"github.com/nlowe/hadevice/mqtt"
)

// PowerState represents generic on/off state for devices. This may or may not refer to physical power depending on the
// underlying entity (For example, a motion sensor may report PowerStateOn when motion is detected).
type PowerState string

const (
	PowerStateOn  PowerState = "ON"
	PowerStateOff PowerState = "OFF"
)

// ErrInvalidPowerState is wrapped by PowerStateUnmarshaler for payloads other than ON and OFF.
var ErrInvalidPowerState = fmt.Errorf("invalid power state")

var (
	PowerStateMarshaler = mqtt.StringTypeMarshaler[PowerState]()

	// PowerStateUnmarshaler accepts ON and OFF in any case, surrounding whitespace ignored.
	PowerStateUnmarshaler mqtt.ValueUnmarshaler[PowerState] = func(bytes []byte) (PowerState, error) {
		switch s := PowerState(strings.ToUpper(strings.TrimSpace(string(bytes)))); s {
		case PowerStateOn, PowerStateOff:
			return s, nil
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidPowerState, bytes)
		}
	}
)
